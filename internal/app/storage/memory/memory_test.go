package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/storage"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

func newApp(jobID, candidateID string) application.Application {
	return application.Application{
		JobID:       jobID,
		CandidateID: candidateID,
		CompanyID:   "company-1",
		Status:      application.StatusSubmitted,
		StatusHistory: []application.StatusEntry{
			{Status: application.StatusSubmitted, ChangedAt: time.Now().UTC(), ChangedBy: candidateID},
		},
	}
}

func TestMemory_CreateEnforcesPairUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.CreateApplication(ctx, newApp("j1", "c1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.CreateApplication(ctx, newApp("j1", "c1"))
	if !errors.IsKind(err, errors.KindConflict) {
		t.Fatalf("expected conflict on duplicate pair, got %v", err)
	}
	if _, err := store.CreateApplication(ctx, newApp("j1", "c2")); err != nil {
		t.Fatalf("different candidate should be accepted: %v", err)
	}
	if _, err := store.CreateApplication(ctx, newApp("j2", "c1")); err != nil {
		t.Fatalf("different job should be accepted: %v", err)
	}
}

func TestMemory_ConcurrentCreateExactlyOneWins(t *testing.T) {
	store := New()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateApplication(ctx, newApp("j1", "c1"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.IsKind(err, errors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("expected exactly one winner, got %d successes / %d conflicts", successes, conflicts)
	}
}

func TestMemory_UpdateVersionGuard(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateApplication(ctx, newApp("j1", "c1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("fresh application should have version 1, got %d", created.Version)
	}

	first := created.Clone()
	first.CoverLetter = "first writer"
	updated, err := store.UpdateApplication(ctx, first)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("version should increment, got %d", updated.Version)
	}

	// A second writer still holding version 1 must lose.
	second := created.Clone()
	second.CoverLetter = "second writer"
	_, err = store.UpdateApplication(ctx, second)
	if !errors.IsKind(err, errors.KindStaleWrite) {
		t.Fatalf("expected stale write, got %v", err)
	}

	got, err := store.GetApplication(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CoverLetter != "first writer" {
		t.Fatalf("loser overwrote winner: %q", got.CoverLetter)
	}
}

func TestMemory_UpdatePreservesImmutableFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateApplication(ctx, newApp("j1", "c1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mutated := created.Clone()
	mutated.JobID = "j-other"
	mutated.CandidateID = "c-other"
	mutated.CompanyID = "company-other"
	updated, err := store.UpdateApplication(ctx, mutated)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.JobID != "j1" || updated.CandidateID != "c1" || updated.CompanyID != "company-1" {
		t.Fatalf("immutable references were overwritten: %+v", updated)
	}
}

func TestMemory_SoftDeleteHidesRecord(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateApplication(ctx, newApp("j1", "c1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SoftDeleteApplication(ctx, created.ID, time.Now()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := store.GetApplication(ctx, created.ID); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("soft-deleted application should be invisible, got %v", err)
	}

	// The pair stays occupied: uniqueness holds across soft deletion.
	_, err = store.CreateApplication(ctx, newApp("j1", "c1"))
	if !errors.IsKind(err, errors.KindConflict) {
		t.Fatalf("soft-deleted pair should still conflict, got %v", err)
	}

	items, total, err := store.ListApplications(ctx, storage.Filter{CompanyID: "company-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 || total != 0 {
		t.Fatalf("soft-deleted application leaked into list: %d/%d", len(items), total)
	}

	items, total, err = store.ListApplications(ctx, storage.Filter{CompanyID: "company-1", IncludeDeleted: true})
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(items) != 1 || total != 1 {
		t.Fatalf("IncludeDeleted should expose the record: %d/%d", len(items), total)
	}
}

func TestMemory_ListFiltersAndPaginates(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i, pair := range []struct {
		job, cand string
		status    application.Status
		score     int
	}{
		{"j1", "c1", application.StatusSubmitted, 50},
		{"j1", "c2", application.StatusUnderReview, 75},
		{"j1", "c3", application.StatusShortlisted, 90},
		{"j2", "c1", application.StatusSubmitted, 60},
	} {
		app := newApp(pair.job, pair.cand)
		app.Status = pair.status
		app.Score = pair.score
		if _, err := store.CreateApplication(ctx, app); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	_, total, err := store.ListApplications(ctx, storage.Filter{CompanyID: "company-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 applications, got %d", total)
	}

	items, total, err := store.ListApplications(ctx, storage.Filter{CompanyID: "company-1", MinScore: 70})
	if err != nil {
		t.Fatalf("list minScore: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("minScore filter: got %d/%d", len(items), total)
	}

	items, total, err = store.ListApplications(ctx, storage.Filter{CompanyID: "company-1", Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 4 || len(items) != 1 {
		t.Fatalf("pagination: got %d items, total %d", len(items), total)
	}
}

func TestMemory_CloneIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateApplication(ctx, newApp("j1", "c1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating the returned aggregate must not leak into the store.
	created.StatusHistory[0].Status = application.StatusHired
	created.Documents = append(created.Documents, application.Document{Name: "x"})

	got, err := store.GetApplication(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StatusHistory[0].Status != application.StatusSubmitted || len(got.Documents) != 0 {
		t.Fatalf("store state aliased caller mutation: %+v", got)
	}
}
