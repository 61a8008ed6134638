package perfume

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/scentlab/scentdex/internal/domain"
)

func newTestRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func expectAssociations(mock pgxmock.PgxPoolIface, id int64) {
	mock.ExpectQuery("FROM perfume_notes").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "note_type"}))
	mock.ExpectQuery("FROM perfume_accords").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery("FROM perfume_designers").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "role"}))
}

func TestLoad_HappyPath(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("FROM perfumes p").WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "description", "release_year", "concentration",
			"image_url", "approved", "brand_id", "brand_name",
			"avg_rating", "review_count", "created_at", "updated_at",
		}).AddRow(
			int64(42), "Aventus", "pineapple opener", 2010, "EDP",
			"https://img.example/42.jpg", true, int64(7), "Creed",
			4.4, 120, now, now,
		))

	mock.ExpectQuery("FROM perfume_notes").WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "note_type"}).
			AddRow(int64(1), "Bergamot", "TOP").
			AddRow(int64(2), "Musk", "BASE"))
	mock.ExpectQuery("FROM perfume_accords").WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(3), "Fruity"))
	mock.ExpectQuery("FROM perfume_designers").WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "role"}).
			AddRow(int64(4), "Olivier Creed", "perfumer"))

	agg, err := repo.Load(ctx, "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.ID != "42" || agg.Name != "Aventus" {
		t.Errorf("unexpected aggregate: %+v", agg)
	}
	if agg.Brand.Name != "Creed" {
		t.Errorf("unexpected brand: %+v", agg.Brand)
	}
	if len(agg.Notes) != 2 || agg.Notes[1].Type != "BASE" {
		t.Errorf("unexpected notes: %+v", agg.Notes)
	}
	if len(agg.Accords) != 1 || agg.Accords[0].Name != "Fruity" {
		t.Errorf("unexpected accords: %+v", agg.Accords)
	}
	if len(agg.Designers) != 1 || agg.Designers[0].Role != "perfumer" {
		t.Errorf("unexpected designers: %+v", agg.Designers)
	}
	if agg.AvgRating != 4.4 || agg.ReviewCount != 120 {
		t.Errorf("unexpected review stats: %f/%d", agg.AvgRating, agg.ReviewCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM perfumes p").WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Load(ctx, "99")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_MalformedID(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Load(context.Background(), "not-a-number")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM perfumes p").WithArgs(int64(1)).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Load(ctx, "1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestEachID_StreamsInOrder(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id FROM perfumes").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).
			AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(10)))

	var got []string
	err := repo.EachID(ctx, func(id string) error {
		got = append(got, id)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "10" {
		t.Fatalf("unexpected ids: %v", got)
	}
}

func TestEachID_CallbackErrorStopsWalk(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id FROM perfumes").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).
			AddRow(int64(1)).AddRow(int64(2)))

	boom := errors.New("stop")
	calls := 0
	err := repo.EachID(ctx, func(string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestMemberIDs(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT DISTINCT member_id").
		WillReturnRows(pgxmock.NewRows([]string{"member_id"}).
			AddRow(int64(5)).AddRow(int64(8)))

	ids, err := repo.MemberIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "5" || ids[1] != "8" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestNoteAffinity(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM reviews r").WithArgs(int64(5), 3.0).
		WillReturnRows(pgxmock.NewRows([]string{"name", "sum"}).
			AddRow("vanilla", 12.5).
			AddRow("oud", 4.0))

	weights, err := repo.NoteAffinity(ctx, "5", 3.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if weights["vanilla"] != 12.5 || weights["oud"] != 4.0 {
		t.Fatalf("unexpected weights: %v", weights)
	}
}

func TestAffinity_MalformedMemberID(t *testing.T) {
	repo, _ := newTestRepo(t)

	weights, err := repo.BrandAffinity(context.Background(), "abc", 3.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(weights) != 0 {
		t.Fatalf("expected empty weights, got %v", weights)
	}
}
