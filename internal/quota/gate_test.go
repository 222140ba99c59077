// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quota

import (
	"testing"

	"github.com/sdetchat/sdetchat-tui/internal/kv"
)

func TestTryReserveDecrements(t *testing.T) {
	g := NewGate(kv.NewMemory(), 3)

	for i := 3; i > 0; i-- {
		if g.Remaining() != i {
			t.Fatalf("Remaining = %d, want %d", g.Remaining(), i)
		}
		if !g.TryReserve() {
			t.Fatalf("TryReserve refused with %d remaining", i)
		}
	}
}

func TestTryReserveAtZeroRefusesWithoutDecrement(t *testing.T) {
	g := NewGate(kv.NewMemory(), 0)

	for i := 0; i < 5; i++ {
		if g.TryReserve() {
			t.Fatal("TryReserve succeeded at zero")
		}
		if g.Remaining() != 0 {
			t.Fatalf("Remaining = %d, want 0", g.Remaining())
		}
	}
}

// TestMonotonicity pins the invariant that remaining never increases across
// any sequence of TryReserve calls.
func TestMonotonicity(t *testing.T) {
	g := NewGate(kv.NewMemory(), 10)

	prev := g.Remaining()
	for i := 0; i < 25; i++ {
		g.TryReserve()
		cur := g.Remaining()
		if cur > prev {
			t.Fatalf("remaining increased from %d to %d", prev, cur)
		}
		prev = cur
	}
	if prev != 0 {
		t.Errorf("final remaining = %d, want 0", prev)
	}
}

func TestCounterPersistsAcrossGates(t *testing.T) {
	store := kv.NewMemory()

	g1 := NewGate(store, 5)
	g1.TryReserve()
	g1.TryReserve()

	g2 := NewGate(store, 5)
	if g2.Remaining() != 3 {
		t.Errorf("Remaining after reload = %d, want 3", g2.Remaining())
	}
}

func TestCorruptPersistedCounterFallsBack(t *testing.T) {
	store := kv.NewMemory()
	store.SetString("requestsLeft", "not-a-number")

	g := NewGate(store, 7)
	if g.Remaining() != 7 {
		t.Errorf("Remaining = %d, want fallback 7", g.Remaining())
	}
}

func TestReset(t *testing.T) {
	store := kv.NewMemory()
	g := NewGate(store, 2)
	g.TryReserve()
	g.TryReserve()

	g.Reset(50)
	if g.Remaining() != 50 {
		t.Errorf("Remaining after reset = %d, want 50", g.Remaining())
	}
	if raw, _ := store.GetString("requestsLeft"); raw != "50" {
		t.Errorf("persisted counter = %q, want '50'", raw)
	}
}
