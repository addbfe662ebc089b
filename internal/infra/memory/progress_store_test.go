package memory

import (
	"context"
	"testing"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	if _, ok := store.Load(ctx, "lesson-1"); ok {
		t.Fatalf("expected absent record for fresh store")
	}

	store.Save(ctx, "lesson-1", 2, 1)
	rec, ok := store.Load(ctx, "lesson-1")
	if !ok || rec.LastIndex != 2 || rec.SavedScore != 1 {
		t.Fatalf("expected {2, 1}, got %+v (ok=%v)", rec, ok)
	}

	// Saving the same triple twice leaves identical state.
	store.Save(ctx, "lesson-1", 2, 1)
	rec, ok = store.Load(ctx, "lesson-1")
	if !ok || rec.LastIndex != 2 || rec.SavedScore != 1 {
		t.Fatalf("expected idempotent save, got %+v (ok=%v)", rec, ok)
	}

	store.Save(ctx, "lesson-1", 3, 3)
	rec, _ = store.Load(ctx, "lesson-1")
	if rec.LastIndex != 3 || rec.SavedScore != 3 {
		t.Fatalf("expected overwrite to {3, 3}, got %+v", rec)
	}
}

func TestProgressStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	store.Clear(ctx, "lesson-1") // clearing an absent record is a no-op

	store.Save(ctx, "lesson-1", 1, 1)
	store.Clear(ctx, "lesson-1")
	if _, ok := store.Load(ctx, "lesson-1"); ok {
		t.Fatalf("expected absent record after clear")
	}
}

func TestProgressStoresIsolatePerLearner(t *testing.T) {
	ctx := context.Background()
	stores := NewProgressStores()

	stores.For("u1").Save(ctx, "lesson-1", 2, 2)
	if _, ok := stores.For("u2").Load(ctx, "lesson-1"); ok {
		t.Fatalf("expected u2 to have no checkpoint")
	}
	if rec, ok := stores.For("u1").Load(ctx, "lesson-1"); !ok || rec.LastIndex != 2 {
		t.Fatalf("expected u1 checkpoint to survive, got %+v (ok=%v)", rec, ok)
	}
}
