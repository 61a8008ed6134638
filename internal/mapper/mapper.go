// Package mapper projects a relational perfume aggregate into its search
// document. The projection is total and deterministic: the same snapshot
// always yields a field-for-field identical document.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scentlab/scentdex/internal/domain"
	"github.com/scentlab/scentdex/internal/domain/document"
	"github.com/scentlab/scentdex/internal/domain/perfume"
)

// ToDocument maps an aggregate snapshot into a Document. A nil aggregate is
// the only failure mode; incomplete associations map to sentinel id 0.
func ToDocument(agg *perfume.Aggregate) (document.Document, error) {
	if agg == nil {
		return document.Document{}, fmt.Errorf("%w: nil aggregate", domain.ErrMappingInput)
	}
	if agg.ID == "" {
		return document.Document{}, fmt.Errorf("%w: aggregate without id", domain.ErrMappingInput)
	}

	doc := document.Document{
		ID:            agg.ID,
		Name:          agg.Name,
		Description:   agg.Description,
		BrandID:       agg.Brand.ID,
		BrandName:     agg.Brand.Name,
		ReleaseYear:   agg.ReleaseYear,
		Concentration: agg.Concentration,
		ImageURL:      agg.ImageURL,
		Rating:        agg.AvgRating,
		ReviewCount:   agg.ReviewCount,
		Approved:      agg.Approved,
		Notes:         mapNotes(agg.Notes),
		Accords:       mapAccords(agg.Accords),
		Designers:     mapDesigners(agg.Designers),
		CreatedAt:     agg.CreatedAt.UnixMilli(),
		UpdatedAt:     agg.UpdatedAt.UnixMilli(),
	}

	doc.NoteTokens, doc.NoteNames = noteTokens(doc.Notes)
	doc.AccordNames = accordNames(doc.Accords)
	doc.DesignerNames = designerNames(doc.Designers)

	return doc, nil
}

// mapNotes collapses duplicate note ids; ordering is normalized by id so the
// projection is stable across loads.
func mapNotes(links []perfume.NoteLink) []document.NoteRef {
	seen := make(map[int64]bool, len(links))
	out := make([]document.NoteRef, 0, len(links))
	for _, l := range links {
		if l.NoteID != 0 && seen[l.NoteID] {
			continue
		}
		seen[l.NoteID] = true
		out = append(out, document.NoteRef{
			ID:   l.NoteID,
			Name: l.Name,
			Type: document.NoteType(strings.ToUpper(l.Type)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func mapAccords(links []perfume.AccordLink) []document.AccordRef {
	seen := make(map[int64]bool, len(links))
	out := make([]document.AccordRef, 0, len(links))
	for _, l := range links {
		if l.AccordID != 0 && seen[l.AccordID] {
			continue
		}
		seen[l.AccordID] = true
		out = append(out, document.AccordRef{ID: l.AccordID, Name: l.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func mapDesigners(links []perfume.DesignerLink) []document.DesignerRef {
	seen := make(map[int64]bool, len(links))
	out := make([]document.DesignerRef, 0, len(links))
	for _, l := range links {
		if l.DesignerID != 0 && seen[l.DesignerID] {
			continue
		}
		seen[l.DesignerID] = true
		out = append(out, document.DesignerRef{ID: l.DesignerID, Name: l.Name, Role: l.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NoteToken builds the "<type>:<name>" filter token for a note.
func NoteToken(noteType, name string) string {
	return strings.ToLower(strings.TrimSpace(noteType)) + ":" + strings.ToLower(strings.TrimSpace(name))
}

func noteTokens(notes []document.NoteRef) (tokens, names []string) {
	tokenSeen := make(map[string]bool, len(notes))
	nameSeen := make(map[string]bool, len(notes))
	for _, n := range notes {
		if n.Name == "" {
			continue
		}
		token := NoteToken(string(n.Type), n.Name)
		if !tokenSeen[token] {
			tokenSeen[token] = true
			tokens = append(tokens, token)
		}
		name := strings.ToLower(n.Name)
		if !nameSeen[name] {
			nameSeen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(tokens)
	sort.Strings(names)
	return tokens, names
}

func accordNames(accords []document.AccordRef) []string {
	seen := make(map[string]bool, len(accords))
	out := make([]string, 0, len(accords))
	for _, a := range accords {
		if a.Name == "" {
			continue
		}
		name := strings.ToLower(a.Name)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func designerNames(designers []document.DesignerRef) []string {
	seen := make(map[string]bool, len(designers))
	out := make([]string, 0, len(designers))
	for _, d := range designers {
		if d.Name == "" {
			continue
		}
		name := strings.ToLower(d.Name)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
