package eval

import (
	"testing"
)

func TestHeapBumpAllocation(t *testing.T) {
	h := newHeap()

	p1, ok := h.Alloc(4)
	if !ok || p1 != 0 {
		t.Fatalf("Alloc(4) = %d,%v", p1, ok)
	}
	p2, ok := h.Alloc(2)
	if !ok || p2 != 4 {
		t.Fatalf("Alloc(2) = %d,%v", p2, ok)
	}
	if h.Water() != 6*valueSize {
		t.Errorf("Water = %d, want %d", h.Water(), 6*valueSize)
	}

	*h.At(p2) = MakeInt(7)
	if h.At(p2).Int != 7 {
		t.Error("slot write lost")
	}
}

func TestHeapExhaustionRefused(t *testing.T) {
	h := newHeap()
	if _, ok := h.Alloc(EvalHeap/valueSize + 1); ok {
		t.Error("over-capacity Alloc succeeded")
	}

	// Exactly at capacity is fine.
	if _, ok := h.Alloc(EvalHeap / valueSize); !ok {
		t.Error("at-capacity Alloc refused")
	}
	if _, ok := h.Alloc(1); ok {
		t.Error("Alloc past the high-water mark succeeded")
	}
}

func TestHeapUarrayCharged(t *testing.T) {
	h := newHeap()
	ua, ok := h.AllocUarray()
	if !ok || ua == nil {
		t.Fatal("AllocUarray failed on empty heap")
	}
	if h.Water() != uarraySize {
		t.Errorf("Water = %d, want %d", h.Water(), uarraySize)
	}
}

func TestUarrayDimLen(t *testing.T) {
	cases := []struct {
		dim  UarrayDim
		want int64
	}{
		{UarrayDim{Left: 1, Right: 8, Dir: 0}, 8},
		{UarrayDim{Left: 8, Right: 1, Dir: 1}, 8},
		{UarrayDim{Left: 2, Right: 1, Dir: 0}, 0},
	}
	for _, tc := range cases {
		if got := tc.dim.Len(); got != tc.want {
			t.Errorf("Len(%+v) = %d, want %d", tc.dim, got, tc.want)
		}
	}
}
