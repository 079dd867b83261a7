// Package lod implements the level-of-detail budget/hysteresis/cooldown
// state machine that decides how deep into the cell hierarchy the renderer
// flattens geometry. No teacher analogue exists for "LOD" as such; the
// budget/threshold-crossing shape is grounded on a raster zoom-pyramid's
// "when do we recompute a coarser representation" decision, adapted from
// discrete raster zoom levels to hierarchy-recursion depth.
package lod

import "time"

// MinDepth and MaxDepth bound the hierarchy-flattening recursion depth
// (spec.md §4.4).
const (
	MinDepth = 0
	MaxDepth = 3
)

// BaseBudget is the polygon budget at MinDepth; budgetMultiplier scales it
// per depth level (spec.md §6).
const BaseBudget = 100_000

var budgetMultiplier = [MaxDepth + 1]float64{1, 1.5, 2, 2.5}

// BudgetForDepth returns the polygon budget for a given depth.
func BudgetForDepth(depth int) int {
	if depth < MinDepth {
		depth = MinDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	return int(float64(BaseBudget) * budgetMultiplier[depth])
}

// Zoom factors that trigger a depth re-evaluation relative to the zoom
// level the last depth change happened at (spec.md §4.4).
const (
	zoomOutFactor = 0.2
	zoomInFactor  = 2.0
)

// ZoomOutFactor and ZoomInFactor expose the threshold-crossing factors for
// callers that report them (e.g. gdsview.GetPerformanceMetrics's
// "thresholds" field, spec.md §6).
const (
	ZoomOutFactor = zoomOutFactor
	ZoomInFactor  = zoomInFactor
)

// Utilization thresholds against the current depth's budget (spec.md §4.4).
const (
	utilizationLow  = 0.30
	utilizationHigh = 0.90
)

// cooldown is the minimum time between depth changes, to avoid oscillation
// right at a threshold crossing (spec.md §4.4).
const cooldown = 1 * time.Second

// Manager tracks the current LOD depth and decides when it should change.
type Manager struct {
	depth int

	lastChangeZoom float64
	lastChangeTime time.Time
	now            func() time.Time

	isRerendering bool
}

// NewManager creates a Manager at the given initial depth (spec.md §4.4
// "initial depth heuristic: 3 if top cells have zero direct polygons but
// have instances, else 0" — computed by the caller and passed in here).
func NewManager(initialDepth int) *Manager {
	return &Manager{
		depth: clampDepth(initialDepth),
		now:   time.Now,
	}
}

func clampDepth(d int) int {
	if d < MinDepth {
		return MinDepth
	}
	if d > MaxDepth {
		return MaxDepth
	}
	return d
}

// Depth returns the current LOD depth.
func (m *Manager) Depth() int { return m.depth }

// SetRerendering marks whether a render pass is currently in flight; while
// true, Check suppresses depth changes to avoid invalidating in-progress
// work (spec.md §4.4 "isRerendering suppression").
func (m *Manager) SetRerendering(v bool) { m.isRerendering = v }

// SetDepthHint directly overrides the current depth, bypassing the
// threshold/cooldown machinery. Used when the host shell calls
// setRenderDepth(int) (spec.md §6 "hint; LOD may override") — the next
// Check call still evaluates thresholds normally and may move away from
// the hinted depth.
func (m *Manager) SetDepthHint(d int) {
	m.depth = clampDepth(d)
}

// Decision reports what Check decided to do and why.
type Decision struct {
	NewDepth        int
	Changed         bool
	Reason          string
	RecomputeStroke bool
}

// Check evaluates the current zoom and polygon utilization against the
// thresholds and returns a Decision. renderedPolygons is the number of
// polygons the most recent frame actually drew at the current depth;
// outlineMode reports whether the renderer is in outline/stroke mode.
func (m *Manager) Check(zoom float64, renderedPolygons int, outlineMode bool) Decision {
	d := Decision{NewDepth: m.depth}

	if outlineMode {
		// Outline mode recomputes stroke width on every zoom change
		// regardless of depth, since stroke width is defined in screen
		// pixels and must track the effective scale (spec.md §4.5).
		d.RecomputeStroke = true
	}

	if m.isRerendering {
		d.Reason = "suppressed: rerendering in flight"
		return d
	}

	if m.lastChangeTime.IsZero() {
		m.lastChangeZoom = zoom
		m.lastChangeTime = m.nowFunc()
	}

	if m.nowFunc().Sub(m.lastChangeTime) < cooldown {
		d.Reason = "suppressed: cooldown"
		return d
	}

	crossedOut := m.lastChangeZoom > 0 && zoom <= m.lastChangeZoom*zoomOutFactor
	crossedIn := zoom >= m.lastChangeZoom*zoomInFactor

	budget := BudgetForDepth(m.depth)
	utilization := 0.0
	if budget > 0 {
		utilization = float64(renderedPolygons) / float64(budget)
	}

	newDepth := m.depth
	switch {
	case crossedIn && utilization < utilizationLow && m.depth < MaxDepth:
		newDepth = m.depth + 1
		d.Reason = "zoom-in threshold crossed, budget underutilized"
	case crossedOut && utilization > utilizationHigh && m.depth > MinDepth:
		newDepth = m.depth - 1
		d.Reason = "zoom-out threshold crossed, budget overutilized"
	}

	if newDepth != m.depth {
		m.depth = newDepth
		m.lastChangeZoom = zoom
		m.lastChangeTime = m.nowFunc()
		d.NewDepth = newDepth
		d.Changed = true
	}
	return d
}

func (m *Manager) nowFunc() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}
