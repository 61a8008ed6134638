// Package perfume holds the fully materialized relational snapshot consumed
// by the document mapper. Associations are loaded eagerly by the read port;
// there is no lazy traversal back into the relational layer.
package perfume

import "time"

// Brand is the perfume's brand row.
type Brand struct {
	ID   int64
	Name string
}

// NoteLink is a note association tagged with its pyramid position.
type NoteLink struct {
	NoteID int64
	Name   string
	Type   string // TOP, MIDDLE, BASE
}

// AccordLink is an accord association.
type AccordLink struct {
	AccordID int64
	Name     string
}

// DesignerLink is a designer association tagged with a role.
type DesignerLink struct {
	DesignerID int64
	Name       string
	Role       string
}

// Aggregate is the perfume row plus all loaded associations and review stats,
// as an acyclic snapshot.
type Aggregate struct {
	ID            string
	Name          string
	Description   string
	ReleaseYear   int
	Concentration string
	ImageURL      string
	Approved      bool

	Brand     Brand
	Notes     []NoteLink
	Accords   []AccordLink
	Designers []DesignerLink

	AvgRating   float64
	ReviewCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}
