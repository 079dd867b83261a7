package gdsview

import (
	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/render"
	"github.com/jwt625/gdsjam-sub000/spatial"
)

// indexDepth bounds how deep the spatial index walk recurses into
// instances. Unlike the renderer's LOD-driven depth, the SpatialIndex is
// built once per document load and must cover enough of the hierarchy for
// viewport-scoped visibility queries to be useful at any zoom; it does not
// need to match the currently rendered depth (spec.md §4.2).
const indexDepth = 3

// buildSpatialIndex walks doc's top cells down to indexDepth instance
// hops, grouping polygons into (layer, tile) entries the way render's
// flatten groups them into (layer, datatype, tile) batches, and bulk-loads
// them into a fresh R-tree. Grounded on render/flatten.go's walkCell, but
// simplified: no budget accounting, no screen-space projection, since the
// index only needs to answer "which tiles/layers overlap this
// world-space rectangle".
type tileLayerKey struct {
	Layer        int
	TileX, TileY int
}

func buildSpatialIndex(doc *gds.Document) *spatial.RTree {
	seen := make(map[tileLayerKey]geom.Rect)
	visited := make(map[string]bool)

	var walk func(c *gds.Cell, transform geom.Affine, depth int)
	walk = func(c *gds.Cell, transform geom.Affine, depth int) {
		if c == nil || c.IsContext() || visited[c.Name] {
			return
		}
		visited[c.Name] = true
		defer delete(visited, c.Name)

		for _, p := range c.Polygons {
			bbox := geom.HullOfPoints(p.Points)
			worldBBox := transform.ApplyToRectHull(bbox)
			key := render.TileKeyFor(p.Layer, p.Datatype, worldBBox)
			tlk := tileLayerKey{Layer: key.Layer, TileX: key.TileX, TileY: key.TileY}
			if existing, ok := seen[tlk]; ok {
				seen[tlk] = existing.Union(worldBBox)
			} else {
				seen[tlk] = worldBBox
			}
		}

		if depth >= indexDepth {
			return
		}
		for i := range c.Instances {
			inst := &c.Instances[i]
			child, ok := doc.Cell(inst.CellRef)
			if !ok {
				continue
			}
			walk(child, gds.InstanceTransform(transform, inst), depth+1)
		}
	}

	for _, c := range doc.TopCells {
		walk(c, geom.Identity, 0)
	}

	tree := spatial.New()
	entries := make([]spatial.Entry, 0, len(seen))
	for k, box := range seen {
		entries = append(entries, spatial.Entry{Box: box, Value: k.Layer})
	}
	tree.InsertMany(entries)
	return tree
}
