package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/langfix/store"
)

func newTrail(id, session string, ts time.Time) *store.Trail {
	return &store.Trail{
		ID:          id,
		SessionID:   session,
		Instruction: "write flower copy",
		Attempts: []store.AttemptRecord{
			{Index: 0, Instruction: "write flower copy", Raw: `{"description": "x"}`, Failure: "structural", Error: `missing required field "reason"`},
			{Index: 1, Instruction: "repair", Raw: `{"description": "x", "reason": "y"}`},
		},
		Outcome:   store.OutcomeSuccess,
		Record:    map[string]any{"description": "x", "reason": "y"},
		Timestamp: ts,
	}
}

func TestMemoryTrailStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	ms := NewMemoryTrailStore()
	ctx := context.Background()
	trail := newTrail("trail-1", "session-a", time.Now())

	if err := ms.Save(ctx, trail); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded, err := ms.Load(ctx, "trail-1")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if loaded.SessionID != "session-a" {
		t.Errorf("SessionID mismatch: got %s", loaded.SessionID)
	}
	if len(loaded.Attempts) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(loaded.Attempts))
	}
	if loaded.Attempts[0].Failure != "structural" {
		t.Errorf("Failure mismatch: got %s", loaded.Attempts[0].Failure)
	}

	// mutating the loaded copy must not leak into the store
	loaded.Attempts[0].Raw = "changed"
	loaded.Record["reason"] = "changed"
	again, _ := ms.Load(ctx, "trail-1")
	if again.Attempts[0].Raw == "changed" || again.Record["reason"] == "changed" {
		t.Error("Store returned shared state")
	}
}

func TestMemoryTrailStore_Errors(t *testing.T) {
	t.Parallel()

	ms := NewMemoryTrailStore()
	ctx := context.Background()

	if _, err := ms.Load(ctx, "missing"); !errors.Is(err, store.ErrTrailNotFound) {
		t.Errorf("Expected ErrTrailNotFound, got %v", err)
	}
	if err := ms.Delete(ctx, "missing"); !errors.Is(err, store.ErrTrailNotFound) {
		t.Errorf("Expected ErrTrailNotFound, got %v", err)
	}
	if err := ms.Save(ctx, &store.Trail{}); err == nil {
		t.Error("Expected error for trail without ID")
	}
}

func TestMemoryTrailStore_ListDeleteClear(t *testing.T) {
	t.Parallel()

	ms := NewMemoryTrailStore()
	ctx := context.Background()
	base := time.Now()

	_ = ms.Save(ctx, newTrail("b", "session-a", base.Add(time.Second)))
	_ = ms.Save(ctx, newTrail("a", "session-a", base))
	_ = ms.Save(ctx, newTrail("c", "session-b", base))

	trails, err := ms.List(ctx, "session-a")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(trails) != 2 || trails[0].ID != "a" || trails[1].ID != "b" {
		t.Fatalf("Unexpected list result: %+v", trails)
	}

	empty, err := ms.List(ctx, "unknown")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil list, got %v, %v", empty, err)
	}

	if err := ms.Delete(ctx, "a"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	trails, _ = ms.List(ctx, "session-a")
	if len(trails) != 1 {
		t.Errorf("Expected 1 trail after delete, got %d", len(trails))
	}

	if err := ms.Clear(ctx, "session-a"); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	trails, _ = ms.List(ctx, "session-a")
	if len(trails) != 0 {
		t.Errorf("Expected no trails after clear, got %d", len(trails))
	}
	if _, err := ms.Load(ctx, "c"); err != nil {
		t.Errorf("Clear removed another session's trail: %v", err)
	}
}

func TestMemoryTrailStore_ThreadSafety(t *testing.T) {
	t.Parallel()

	ms := NewMemoryTrailStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := range 20 {
				id := fmt.Sprintf("w%d-%d", worker, j)
				_ = ms.Save(ctx, newTrail(id, "shared", time.Now()))
				_, _ = ms.Load(ctx, id)
				_, _ = ms.List(ctx, "shared")
			}
		}(i)
	}
	wg.Wait()

	trails, _ := ms.List(ctx, "shared")
	if len(trails) != 200 {
		t.Errorf("Expected 200 trails, got %d", len(trails))
	}
}
