package nullifier

import (
	"context"
	"testing"

	"github.com/veilmix/privpool/internal/runtime"
	"github.com/veilmix/privpool/pkg/types"
)

func TestMarkSpentRejectsDoubleSpend(t *testing.T) {
	store := runtime.NewMemoryStore()
	ctx := context.Background()
	nh := types.Hash{0x42}

	if err := MarkSpent(ctx, store, nh); err != nil {
		t.Fatalf("first spend should succeed: %v", err)
	}

	spent, err := IsSpent(ctx, store, nh)
	if err != nil || !spent {
		t.Fatalf("expected nullifier to be marked spent, err=%v spent=%v", err, spent)
	}

	if err := MarkSpent(ctx, store, nh); err != ErrAlreadySpent {
		t.Fatalf("expected ErrAlreadySpent on second spend, got %v", err)
	}
}

func TestDistinctNullifiersIndependentlySpendable(t *testing.T) {
	store := runtime.NewMemoryStore()
	ctx := context.Background()

	if err := MarkSpent(ctx, store, types.Hash{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := MarkSpent(ctx, store, types.Hash{2}); err != nil {
		t.Fatalf("unexpected error spending a distinct nullifier: %v", err)
	}
}
