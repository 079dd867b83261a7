package lod

import (
	"testing"
	"time"
)

func fakeClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time { return t }
}

func TestBudgetForDepthIncreasesMonotonically(t *testing.T) {
	prev := 0
	for d := MinDepth; d <= MaxDepth; d++ {
		b := BudgetForDepth(d)
		if b <= prev {
			t.Errorf("BudgetForDepth(%d) = %d, want > %d", d, b, prev)
		}
		prev = b
	}
}

func TestCheckSuppressedDuringCooldown(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManager(0)
	m.now = fakeClock(start)

	// prime lastChangeTime
	m.Check(1.0, 0, false)

	d := m.Check(4.0, 1000, false)
	if d.Changed {
		t.Errorf("depth changed within cooldown window: %+v", d)
	}
}

func TestCheckIncreasesDepthOnZoomInWhenUnderBudget(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManager(0)
	m.now = fakeClock(start)
	m.Check(1.0, 0, false) // prime

	past := fakeClock(start.Add(2 * time.Second))
	m.now = past

	d := m.Check(2.1, 100, false) // zoomed in >=2x, far under budget
	if !d.Changed || d.NewDepth != 1 {
		t.Errorf("Check() = %+v, want depth increase to 1", d)
	}
}

func TestCheckDecreasesDepthOnZoomOutWhenOverBudget(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManager(2)
	m.now = fakeClock(start)
	m.Check(10.0, 0, false) // prime at zoom 10

	m.now = fakeClock(start.Add(2 * time.Second))
	budget := BudgetForDepth(2)
	d := m.Check(1.0, int(float64(budget)*0.95), false) // zoomed out 0.1x, over budget
	if !d.Changed || d.NewDepth != 1 {
		t.Errorf("Check() = %+v, want depth decrease to 1", d)
	}
}

func TestCheckSuppressedWhileRerendering(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManager(0)
	m.now = fakeClock(start)
	m.Check(1.0, 0, false)

	m.now = fakeClock(start.Add(2 * time.Second))
	m.SetRerendering(true)
	d := m.Check(10.0, 100, false)
	if d.Changed {
		t.Errorf("depth changed while isRerendering=true: %+v", d)
	}
}

func TestCheckNeverExceedsMaxDepth(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManager(MaxDepth)
	m.now = fakeClock(start)
	m.Check(1.0, 0, false)

	m.now = fakeClock(start.Add(2 * time.Second))
	d := m.Check(100.0, 1, false)
	if d.NewDepth > MaxDepth {
		t.Errorf("depth exceeded MaxDepth: %+v", d)
	}
}

func TestOutlineModeAlwaysRecomputesStroke(t *testing.T) {
	m := NewManager(0)
	d := m.Check(1.5, 0, true)
	if !d.RecomputeStroke {
		t.Error("outline mode should request stroke recompute regardless of depth change")
	}
}
