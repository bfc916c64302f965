package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"loan-eligibility/domain"
)

func sampleRecord(label domain.Label, at time.Time) domain.DecisionRecord {
	return domain.DecisionRecord{
		Application: domain.RawApplication{
			Gender:            domain.Female,
			Married:           domain.No,
			Dependents:        "3+",
			Education:         domain.NotGraduate,
			SelfEmployed:      domain.Yes,
			ApplicantIncome:   4000,
			CoapplicantIncome: 1000,
			LoanAmount:        150,
			LoanTermMonths:    180,
			CreditHistory:     domain.CreditBad,
			PropertyArea:      domain.Rural,
		},
		Features: domain.FeatureRecord{
			Dependents:      3,
			Education:       1,
			TotalIncome:     5000,
			DebtIncomeRatio: 0.03,
		},
		Label:     label,
		Message:   "REJECTED: High risk flagged.",
		Model:     "loan@1",
		DecidedAt: at,
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(0)

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := cache.Set(ctx, "k", "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "1" {
		t.Fatalf("expected 1, got %q", val)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(2)

	for _, key := range []string{"a", "b", "a", "c"} {
		if err := cache.Set(ctx, key, "1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}
	if _, err := cache.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected the oldest key to be evicted, got %v", err)
	}
	for _, key := range []string{"b", "c"} {
		if _, err := cache.Get(ctx, key); err != nil {
			t.Errorf("expected %s to be cached, got %v", key, err)
		}
	}
}

func TestDecisionRepositoryMemory_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewDecisionRepositoryMemory()

	now := time.Now()
	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, sampleRecord(domain.Label(i%2), now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != 3 || records[1].ID != 2 {
		t.Fatalf("expected ids 3,2 got %d,%d", records[0].ID, records[1].ID)
	}

	all, _ := repo.List(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func newSQLiteRepo(t *testing.T) *DecisionRepositorySQL {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "decisions.db")
	if _, err := Migrate(DriverSQLite, dsn, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo, err := OpenDecisionRepositorySQL(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestDecisionRepositorySQL_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, sampleRecord(domain.Rejected, base)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, sampleRecord(domain.Approved, base.Add(time.Minute))); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	latest := records[0]
	if latest.Label != domain.Approved {
		t.Errorf("expected newest record first")
	}
	if !latest.DecidedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("expected decided_at %v, got %v", base.Add(time.Minute), latest.DecidedAt)
	}
	if latest.Application.Education != domain.NotGraduate || latest.Application.Dependents != "3+" {
		t.Errorf("application did not round-trip: %+v", latest.Application)
	}
	if latest.Features.DebtIncomeRatio != 0.03 {
		t.Errorf("features did not round-trip: %+v", latest.Features)
	}

	limited, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 record, got %d", len(limited))
	}
}

func TestDecisionRepositorySQL_ListsPartialApplication(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, sampleRecord(domain.Rejected, base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	partial := domain.DecisionRecord{
		Application: domain.RawApplication{Dependents: "0", ApplicantIncome: 100},
		Label:       domain.Rejected,
		Message:     "REJECTED: High risk flagged.",
		DecidedAt:   base.Add(time.Minute),
	}
	if err := repo.Save(ctx, partial); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	got := records[0].Application
	if got.Gender != "" || got.CreditHistory != "" || got.ApplicantIncome != 100 || got.Dependents != "0" {
		t.Errorf("partial application did not round-trip: %+v", got)
	}
	if records[1].Application.Gender != domain.Female {
		t.Errorf("complete application did not round-trip: %+v", records[1].Application)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "decisions.db")

	v1, err := Migrate(DriverSQLite, dsn, nil)
	if err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	v2, err := Migrate(DriverSQLite, dsn, nil)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("expected version 1 twice, got %d and %d", v1, v2)
	}
}

func TestRebind(t *testing.T) {
	pg := &DecisionRepositorySQL{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("unexpected postgres query %q", got)
	}

	lite := &DecisionRepositorySQL{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("unexpected sqlite query %q", got)
	}
}

func TestOpenDecisionRepositorySQL_UnsupportedDriver(t *testing.T) {
	if _, err := OpenDecisionRepositorySQL(context.Background(), "oracle", "dsn"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
