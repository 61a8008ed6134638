// Package perfume reads perfume aggregates and vote signals from the
// relational catalogue. It is the only place that speaks SQL; everything
// downstream consumes materialized snapshots.
package perfume

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/scentlab/scentdex/internal/domain"
	domperfume "github.com/scentlab/scentdex/internal/domain/perfume"
)

// Pool exposes the subset of pgxpool behaviour the repository needs.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Repo loads perfume aggregates with eagerly fetched associations.
type Repo struct {
	pool Pool
}

// New creates a perfume read repository.
func New(pool Pool) *Repo {
	return &Repo{pool: pool}
}

const loadSQL = `
SELECT p.id, p.name, COALESCE(p.description, ''), COALESCE(p.release_year, 0),
       COALESCE(p.concentration, ''), COALESCE(p.image_url, ''), p.approved,
       b.id, b.name,
       COALESCE(AVG(r.rating), 0), COUNT(r.rating),
       p.created_at, p.updated_at
FROM perfumes p
JOIN brands b ON b.id = p.brand_id
LEFT JOIN reviews r ON r.perfume_id = p.id
WHERE p.id = $1
GROUP BY p.id, b.id`

const notesSQL = `
SELECT n.id, n.name, pn.note_type
FROM perfume_notes pn
JOIN notes n ON n.id = pn.note_id
WHERE pn.perfume_id = $1
ORDER BY n.id`

const accordsSQL = `
SELECT a.id, a.name
FROM perfume_accords pa
JOIN accords a ON a.id = pa.accord_id
WHERE pa.perfume_id = $1
ORDER BY a.id`

const designersSQL = `
SELECT d.id, d.name, COALESCE(pd.role, '')
FROM perfume_designers pd
JOIN designers d ON d.id = pd.designer_id
WHERE pd.perfume_id = $1
ORDER BY d.id`

// Load fetches a perfume with its brand, associations and review stats.
// Returns domain.ErrNotFound for unknown or malformed ids.
func (r *Repo) Load(ctx context.Context, id string) (*domperfume.Aggregate, error) {
	numID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	agg := &domperfume.Aggregate{}
	var rowID int64
	row := r.pool.QueryRow(ctx, loadSQL, numID)
	err = row.Scan(
		&rowID, &agg.Name, &agg.Description, &agg.ReleaseYear,
		&agg.Concentration, &agg.ImageURL, &agg.Approved,
		&agg.Brand.ID, &agg.Brand.Name,
		&agg.AvgRating, &agg.ReviewCount,
		&agg.CreatedAt, &agg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load perfume %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}
	agg.ID = strconv.FormatInt(rowID, 10)

	if agg.Notes, err = r.loadNotes(ctx, numID); err != nil {
		return nil, err
	}
	if agg.Accords, err = r.loadAccords(ctx, numID); err != nil {
		return nil, err
	}
	if agg.Designers, err = r.loadDesigners(ctx, numID); err != nil {
		return nil, err
	}
	return agg, nil
}

func (r *Repo) loadNotes(ctx context.Context, id int64) ([]domperfume.NoteLink, error) {
	rows, err := r.pool.Query(ctx, notesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var links []domperfume.NoteLink
	for rows.Next() {
		var l domperfume.NoteLink
		if err := rows.Scan(&l.NoteID, &l.Name, &l.Type); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return links, nil
}

func (r *Repo) loadAccords(ctx context.Context, id int64) ([]domperfume.AccordLink, error) {
	rows, err := r.pool.Query(ctx, accordsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("load accords: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var links []domperfume.AccordLink
	for rows.Next() {
		var l domperfume.AccordLink
		if err := rows.Scan(&l.AccordID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan accord: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accords: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return links, nil
}

func (r *Repo) loadDesigners(ctx context.Context, id int64) ([]domperfume.DesignerLink, error) {
	rows, err := r.pool.Query(ctx, designersSQL, id)
	if err != nil {
		return nil, fmt.Errorf("load designers: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var links []domperfume.DesignerLink
	for rows.Next() {
		var l domperfume.DesignerLink
		if err := rows.Scan(&l.DesignerID, &l.Name, &l.Role); err != nil {
			return nil, fmt.Errorf("scan designer: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designers: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return links, nil
}

// Ping probes catalogue connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping catalogue: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
