// Package preference holds the member preference vector consumed by
// recommendation queries. How the weights are derived is the preference
// analysis service's concern; the search repository treats the vector as an
// opaque ranking input.
package preference

// Vector is a weighted set of note, accord, and brand affinities.
// Keys are lowercased names; weights are non-negative.
type Vector struct {
	Notes   map[string]float64 `json:"notes"`
	Accords map[string]float64 `json:"accords"`
	Brands  map[string]float64 `json:"brands"`
}

// NewVector creates an empty vector with allocated maps.
func NewVector() Vector {
	return Vector{
		Notes:   make(map[string]float64),
		Accords: make(map[string]float64),
		Brands:  make(map[string]float64),
	}
}

// IsZero reports whether the vector carries no positive weight.
// A zero vector yields no recommendations rather than an arbitrary ordering.
func (v Vector) IsZero() bool {
	for _, w := range v.Notes {
		if w > 0 {
			return false
		}
	}
	for _, w := range v.Accords {
		if w > 0 {
			return false
		}
	}
	for _, w := range v.Brands {
		if w > 0 {
			return false
		}
	}
	return true
}
