package render

import (
	"math"

	"github.com/jwt625/gdsjam-sub000/geom"
)

// TileSize is the tiling granularity in database units (spec.md §3 Tile,
// §6 TILE_SIZE).
const TileSize = 1_000_000

// TileKey identifies a batch of polygons sharing a layer, datatype, and
// spatial tile (spec.md §4.6 "tile batching by (layer, datatype, tileX,
// tileY)"), grounded on batch.go's batchKey grouping pattern re-keyed from
// (target, shader, blend, page) to this domain's four-way key.
type TileKey struct {
	Layer, Datatype int
	TileX, TileY    int
}

// TileKeyFor computes the tile a polygon belongs to from the center of its
// world-space bounding box (not from the polygon's area centroid).
func TileKeyFor(layer, datatype int, bbox geom.Rect) TileKey {
	return TileKey{
		Layer:    layer,
		Datatype: datatype,
		TileX:    int(math.Floor(bbox.CenterX() / TileSize)),
		TileY:    int(math.Floor(bbox.CenterY() / TileSize)),
	}
}

// TileBBox returns the world-space bounding box of a tile.
func TileBBox(key TileKey) geom.Rect {
	x0 := float64(key.TileX) * TileSize
	y0 := float64(key.TileY) * TileSize
	return geom.Rect{MinX: x0, MinY: y0, MaxX: x0 + TileSize, MaxY: y0 + TileSize}
}

// Batch is one tile-batched group of flattened, screen-space polygons ready
// for a single coalesced draw submission.
type Batch struct {
	Key      TileKey
	Polygons [][]float64 // each entry is a flattened [x0,y0,x1,y1,...] screen-space loop
}
