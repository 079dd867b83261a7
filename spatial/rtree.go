// Package spatial provides a bulk-loaded R-tree over axis-aligned boxes,
// used to answer "which tiles/cells intersect the current viewport"
// queries in log-linear time without imposing any ordering guarantee on
// results (no analogous library exists anywhere in the example corpus;
// grounded structurally on a sorted-range query pattern and adapted to two
// dimensions via the sort-tile-recursive bulk-load algorithm).
package spatial

import (
	"sort"

	"github.com/jwt625/gdsjam-sub000/geom"
)

// nodeFanout is the maximum number of children per internal or leaf node.
// 16 is a conventional STR fanout for R-trees holding tens of thousands of
// entries; it is not spec-mandated, only a tuning constant.
const nodeFanout = 16

// Entry is a single indexed item: a bounding box and an opaque payload the
// caller uses to recover what the box represents (a tile key, a cell
// instance, ...).
type Entry struct {
	Box   geom.Rect
	Value interface{}
}

type node struct {
	box      geom.Rect
	children []*node // nil for leaf nodes
	entries  []Entry // nil for internal nodes
}

func (n *node) isLeaf() bool { return n.children == nil }

// RTree is a static, bulk-loaded spatial index. It is rebuilt wholesale via
// InsertMany rather than supporting incremental insertion, matching how
// gdsview.Viewer rebuilds its index once per loaded document (spec.md §4.2
// "insertMany(entries)").
type RTree struct {
	root  *node
	count int
}

// New returns an empty index.
func New() *RTree {
	return &RTree{}
}

// InsertMany replaces the tree's contents with a bulk load of entries using
// the sort-tile-recursive (STR) algorithm: sort by box center X, slice into
// ceil(sqrt(n/fanout)) vertical strips, sort each strip by center Y, and
// group each strip into leaf-sized runs; internal levels repeat the same
// grouping over the level below until one root remains.
func (t *RTree) InsertMany(entries []Entry) {
	t.count = len(entries)
	if len(entries) == 0 {
		t.root = nil
		return
	}

	leaves := strBulkLoadLeaves(entries)
	level := leaves
	for len(level) > 1 {
		level = buildParentLevel(level)
	}
	t.root = level[0]
}

// Clear empties the index.
func (t *RTree) Clear() {
	t.root = nil
	t.count = 0
}

// Len returns the number of entries currently indexed.
func (t *RTree) Len() int { return t.count }

// Query returns every entry whose box intersects q, in no particular order
// (spec.md §4.2 "no ordering guarantee on results").
func (t *RTree) Query(q geom.Rect) []Entry {
	if t.root == nil {
		return nil
	}
	var out []Entry
	queryNode(t.root, q, &out)
	return out
}

func queryNode(n *node, q geom.Rect, out *[]Entry) {
	if !n.box.Intersects(q) {
		return
	}
	if n.isLeaf() {
		for _, e := range n.entries {
			if e.Box.Intersects(q) {
				*out = append(*out, e)
			}
		}
		return
	}
	for _, c := range n.children {
		queryNode(c, q, out)
	}
}

func strBulkLoadLeaves(entries []Entry) []*node {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Box.CenterX() < sorted[j].Box.CenterX()
	})

	numLeaves := ceilDiv(len(sorted), nodeFanout)
	numStrips := isqrt(numLeaves)
	if numStrips*numStrips < numLeaves {
		numStrips++ // round the square root up
	}
	if numStrips < 1 {
		numStrips = 1
	}
	stripSize := ceilDiv(len(sorted), numStrips)
	if stripSize < 1 {
		stripSize = len(sorted)
	}

	var leaves []*node
	for start := 0; start < len(sorted); start += stripSize {
		end := start + stripSize
		if end > len(sorted) {
			end = len(sorted)
		}
		strip := sorted[start:end]
		sort.Slice(strip, func(i, j int) bool {
			return strip[i].Box.CenterY() < strip[j].Box.CenterY()
		})
		for s := 0; s < len(strip); s += nodeFanout {
			e := s + nodeFanout
			if e > len(strip) {
				e = len(strip)
			}
			leaves = append(leaves, newLeaf(strip[s:e]))
		}
	}
	return leaves
}

func newLeaf(entries []Entry) *node {
	box := geom.EmptyRect()
	owned := append([]Entry(nil), entries...)
	for _, e := range owned {
		box = box.Union(e.Box)
	}
	return &node{box: box, entries: owned}
}

func buildParentLevel(children []*node) []*node {
	var parents []*node
	for s := 0; s < len(children); s += nodeFanout {
		e := s + nodeFanout
		if e > len(children) {
			e = len(children)
		}
		group := children[s:e]
		box := geom.EmptyRect()
		for _, c := range group {
			box = box.Union(c.box)
		}
		parents = append(parents, &node{box: box, children: append([]*node(nil), group...)})
	}
	return parents
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func isqrt(n int) int {
	if n <= 1 {
		return 1
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
