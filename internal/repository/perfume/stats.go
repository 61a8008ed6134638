package perfume

import (
	"context"
	"fmt"
	"strconv"

	"github.com/scentlab/scentdex/internal/domain"
)

const idsSQL = `SELECT id FROM perfumes ORDER BY id`

const memberIDsSQL = `SELECT DISTINCT member_id FROM reviews ORDER BY member_id`

// Affinity queries sum a member's review ratings per dimension value.
// Only positive reviews contribute; the usecase normalizes the sums.
const noteAffinitySQL = `
SELECT LOWER(n.name), SUM(r.rating)
FROM reviews r
JOIN perfume_notes pn ON pn.perfume_id = r.perfume_id
JOIN notes n ON n.id = pn.note_id
WHERE r.member_id = $1 AND r.rating >= $2
GROUP BY LOWER(n.name)`

const accordAffinitySQL = `
SELECT LOWER(a.name), SUM(r.rating)
FROM reviews r
JOIN perfume_accords pa ON pa.perfume_id = r.perfume_id
JOIN accords a ON a.id = pa.accord_id
WHERE r.member_id = $1 AND r.rating >= $2
GROUP BY LOWER(a.name)`

const brandAffinitySQL = `
SELECT LOWER(b.name), SUM(r.rating)
FROM reviews r
JOIN perfumes p ON p.id = r.perfume_id
JOIN brands b ON b.id = p.brand_id
WHERE r.member_id = $1 AND r.rating >= $2
GROUP BY LOWER(b.name)`

// EachID streams every perfume id in ascending order, invoking fn per id.
// A non-nil fn error stops the walk and is returned as-is.
func (r *Repo) EachID(ctx context.Context, fn func(id string) error) error {
	rows, err := r.pool.Query(ctx, idsSQL)
	if err != nil {
		return fmt.Errorf("list perfume ids: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan perfume id: %w", err)
		}
		if err := fn(strconv.FormatInt(id, 10)); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate perfume ids: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// MemberIDs lists every member that has reviewed at least one perfume.
func (r *Repo) MemberIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, memberIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member ids: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return ids, nil
}

// NoteAffinity sums a member's ratings per note name at or above minRating.
func (r *Repo) NoteAffinity(ctx context.Context, memberID string, minRating float64) (map[string]float64, error) {
	return r.affinity(ctx, noteAffinitySQL, memberID, minRating)
}

// AccordAffinity sums a member's ratings per accord name at or above minRating.
func (r *Repo) AccordAffinity(ctx context.Context, memberID string, minRating float64) (map[string]float64, error) {
	return r.affinity(ctx, accordAffinitySQL, memberID, minRating)
}

// BrandAffinity sums a member's ratings per brand name at or above minRating.
func (r *Repo) BrandAffinity(ctx context.Context, memberID string, minRating float64) (map[string]float64, error) {
	return r.affinity(ctx, brandAffinitySQL, memberID, minRating)
}

func (r *Repo) affinity(ctx context.Context, sql, memberID string, minRating float64) (map[string]float64, error) {
	numID, err := parseID(memberID)
	if err != nil {
		return map[string]float64{}, nil
	}

	rows, err := r.pool.Query(ctx, sql, numID, minRating)
	if err != nil {
		return nil, fmt.Errorf("affinity query: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var name string
		var sum float64
		if err := rows.Scan(&name, &sum); err != nil {
			return nil, fmt.Errorf("scan affinity row: %w", err)
		}
		if name == "" || sum <= 0 {
			continue
		}
		weights[name] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affinity rows: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return weights, nil
}
