package document

// NoteType tags a note's position in the fragrance pyramid.
type NoteType string

const (
	// NoteTop is a top (opening) note.
	NoteTop NoteType = "TOP"
	// NoteMiddle is a middle (heart) note.
	NoteMiddle NoteType = "MIDDLE"
	// NoteBase is a base note.
	NoteBase NoteType = "BASE"
)

// NoteRef is a denormalized note association.
type NoteRef struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Type NoteType `json:"type"`
}

// AccordRef is a denormalized accord association.
type AccordRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DesignerRef is a denormalized designer association.
type DesignerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Document is the search-store-resident projection of a perfume aggregate.
// It is created or replaced wholesale on every upsert; the store owns no
// data that cannot be regenerated from the relational source.
type Document struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	BrandID       int64  `json:"brandId"`
	BrandName     string `json:"brandName"`
	ReleaseYear   int    `json:"releaseYear"`
	Concentration string `json:"concentration"`
	ImageURL      string `json:"imageUrl"`

	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
	Approved    bool    `json:"approved"`

	Notes     []NoteRef     `json:"notes"`
	Accords   []AccordRef   `json:"accords"`
	Designers []DesignerRef `json:"designers"`

	// Flattened tokens emitted by the mapper for FT indexing:
	// NoteTokens entries are "<type>:<name>" lowercased, NoteNames,
	// AccordNames and DesignerNames are lowercased names.
	NoteTokens    []string `json:"noteTokens"`
	NoteNames     []string `json:"noteNames"`
	AccordNames   []string `json:"accordNames"`
	DesignerNames []string `json:"designerNames"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// HasAccord reports whether the document carries the given lowercased accord name.
func (d *Document) HasAccord(name string) bool {
	for _, a := range d.AccordNames {
		if a == name {
			return true
		}
	}
	return false
}

// HasNoteToken reports whether the document carries the given "<type>:<name>" token.
func (d *Document) HasNoteToken(token string) bool {
	for _, n := range d.NoteTokens {
		if n == token {
			return true
		}
	}
	return false
}
