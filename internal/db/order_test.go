package db

import "testing"

func TestOrderKeyBetween(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	t.Run("TwoNeighbors", func(t *testing.T) {
		if got := orderKeyBetween(f(1024), f(2048)); got != 1536 {
			t.Errorf("midpoint = %v, want 1536", got)
		}
	})

	t.Run("OnlyBefore", func(t *testing.T) {
		if got := orderKeyBetween(f(1024), nil); got != 1024+orderGap {
			t.Errorf("after-last key = %v, want %v", got, 1024+orderGap)
		}
	})

	t.Run("OnlyAfter", func(t *testing.T) {
		if got := orderKeyBetween(nil, f(1024)); got != 1024-orderGap {
			t.Errorf("before-first key = %v, want %v", got, 1024-orderGap)
		}
	})

	t.Run("NoNeighbors", func(t *testing.T) {
		if got := orderKeyBetween(nil, nil); got != orderGap {
			t.Errorf("first-child key = %v, want %v", got, orderGap)
		}
	})
}

func TestBisectable(t *testing.T) {
	if !bisectable(0, orderGap) {
		t.Error("fresh gap should be bisectable")
	}
	if bisectable(1000, 1000+minOrderGap/2) {
		t.Error("collapsed gap should not be bisectable")
	}
	if bisectable(5, 5) {
		t.Error("zero gap should not be bisectable")
	}
}
