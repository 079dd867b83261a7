package gds

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jwt625/gdsjam-sub000/geom"
)

// ProgressFunc is invoked periodically during Parse with a monotonically
// non-decreasing count of elements processed so far (spec.md §5 "progress
// callback invoked monotonically").
type ProgressFunc func(elementsProcessed int)

// Options controls Parse behavior.
type Options struct {
	// OnProgress, if set, is called roughly every ProgressEvery elements
	// (spec.md §5). ProgressEvery <= 0 defaults to 5000.
	OnProgress   ProgressFunc
	ProgressEvery int
	// Cancelled, if set, is polled before each record; when it reports true,
	// Parse returns ErrCancelled (spec.md §5 cooperative cancellation).
	Cancelled func() bool
}

// ErrCancelled is returned by Parse when Options.Cancelled reports true.
var ErrCancelled = errors.New("gds: parse cancelled")

// Parse decodes a full GDSII stream into a Document. It first attempts the
// strict fast-path decoder; on any structural violation it discards partial
// state and retries with the permissive decoder, which tolerates malformed
// sequencing (missing ENDSTR, deprecated BGNEXTN/ENDEXTN records, records
// out of their usual order) at the cost of being unable to assume a single
// linear pass (spec.md §4.1 "Fast-path binary decoder ... permissive
// fallback").
func Parse(r io.Reader, opts Options) (*Document, error) {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 5000
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Stage: "read", Offset: -1, Cause: err}
	}

	b := newBuilder(opts)
	doc, err := decode(newRecordReader(bytes.NewReader(raw)), b, true)
	if err == nil {
		return finalize(doc, b)
	}
	if errors.Is(err, ErrCancelled) {
		return nil, err
	}

	b = newBuilder(opts)
	b.stats.UsedFallbackParser = true
	doc, err = decode(newRecordReader(bytes.NewReader(raw)), b, false)
	if err != nil {
		return nil, fmt.Errorf("gds: permissive fallback also failed: %w", err)
	}
	return finalize(doc, b)
}

// builder accumulates parse state across the decode pass.
type builder struct {
	opts    Options
	units   Units
	cells   map[string]*Cell
	order   []string // first-seen cell names, for stable top-cell ordering
	stats   Statistics
	elCount int
}

func newBuilder(opts Options) *builder {
	return &builder{
		opts:  opts,
		cells: make(map[string]*Cell),
	}
}

func finalize(_ *Document, b *builder) (*Document, error) {
	top, err := finalizeTopCells(b.cells, b.order)
	if err != nil {
		return nil, err
	}
	if err := computeBBoxesInDependencyOrder(b.cells, b.order); err != nil {
		return nil, err
	}

	overall := geom.EmptyRect()
	for _, c := range top {
		overall = overall.Union(c.BoundingBox)
	}
	markSkipInMinimap(b.cells, overall)

	return &Document{
		Units:       b.units,
		Cells:       b.cells,
		TopCells:    top,
		OverallBBox: overall,
		Statistics:  b.stats,
	}, nil
}

// elementAccum holds the in-progress element inside the current structure.
type elementAccum struct {
	kind          tag // tagBOUNDARY, tagPATH, tagSREF, tagAREF, tagTEXT, tagBOX
	layer         int
	datatype      int
	width         float64
	pathType      PathType
	sname         string
	mirror        bool
	mag           float64
	angleDeg      float64
	x, y          float64
	cols, rows    int
	xy            []geom.Point
}

// decode runs the record stream through the GDSII grammar state machine.
// strict=true rejects any unexpected tag for the current state; strict=false
// tolerates unexpected sequencing by best-effort dispatch on tag alone.
func decode(rr *recordReader, b *builder, strict bool) (*Document, error) {
	var cur *Cell
	var el *elementAccum
	sawHeader := false

	unexpected := func(stage string, rec record) error {
		if strict {
			return &ParseError{Stage: stage, Offset: rec.offset, Cause: fmt.Errorf("%w: tag %s in state %s", ErrUnknownTag, rec.tag, stage)}
		}
		return nil
	}

records:
	for {
		if b.opts.Cancelled != nil && b.opts.Cancelled() {
			return nil, ErrCancelled
		}
		rec, err := rr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch rec.tag {
		case tagHEADER:
			sawHeader = true

		case tagUNITS:
			vals := rec.real8s()
			if len(vals) >= 2 {
				b.units = Units{DBPerUser: vals[0], UserPerMeter: vals[0] / vals[1]}
			} else if !strict {
				// malformed UNITS record; keep zero-value units rather than fail
			} else {
				return nil, &ParseError{Stage: "units", Offset: rec.offset, Cause: ErrMalformedLength}
			}

		case tagBGNLIB, tagBGNSTR:
			// library and structure begin records carry only timestamps, ignored

		case tagSTRNAME:
			name := rec.ascii()
			c := &Cell{Name: name, isContext: isContextCellName(name)}
			if _, exists := b.cells[name]; !exists {
				b.order = append(b.order, name)
			}
			b.cells[name] = c
			cur = c

		case tagENDSTR:
			cur = nil

		case tagBOUNDARY, tagBOX:
			if cur == nil {
				if err := unexpected("boundary", rec); err != nil {
					return nil, err
				}
				continue
			}
			el = &elementAccum{kind: rec.tag, mag: 1}
			if rec.tag == tagBOUNDARY {
				b.stats.BoundaryRecords++
			} else {
				b.stats.BoxRecords++
			}

		case tagPATH:
			if cur == nil {
				if err := unexpected("path", rec); err != nil {
					return nil, err
				}
				continue
			}
			el = &elementAccum{kind: tagPATH, mag: 1}
			b.stats.PathRecords++

		case tagSREF:
			if cur == nil {
				if err := unexpected("sref", rec); err != nil {
					return nil, err
				}
				continue
			}
			el = &elementAccum{kind: tagSREF, mag: 1}
			b.stats.SREFRecords++

		case tagAREF:
			if cur == nil {
				if err := unexpected("aref", rec); err != nil {
					return nil, err
				}
				continue
			}
			el = &elementAccum{kind: tagAREF, mag: 1, cols: 1, rows: 1}
			b.stats.ARefRecords++

		case tagTEXT:
			if cur == nil {
				if err := unexpected("text", rec); err != nil {
					return nil, err
				}
				continue
			}
			el = &elementAccum{kind: tagTEXT, mag: 1}
			b.stats.TextRecords++

		case tagLAYER:
			if el != nil {
				vals := rec.int16s()
				if len(vals) > 0 {
					el.layer = int(vals[0])
				}
			}

		case tagDATATYPE, tagBOXTYPE, tagTEXTTYPE, tagNODETYPE:
			if el != nil {
				vals := rec.int16s()
				if len(vals) > 0 {
					el.datatype = int(vals[0])
				}
			}

		case tagWIDTH:
			if el != nil {
				vals := rec.int32s()
				if len(vals) > 0 {
					el.width = float64(vals[0])
				}
			}

		case tagPATHTYPE:
			if el != nil {
				vals := rec.int16s()
				if len(vals) > 0 {
					el.pathType = PathType(vals[0])
				}
			}

		case tagSNAME:
			if el != nil {
				el.sname = rec.ascii()
			}

		case tagSTRANS:
			if el != nil {
				vals := rec.int16s()
				if len(vals) > 0 {
					// bit 15 (reflection flag) set means the sign bit is set.
					el.mirror = vals[0] < 0
				}
			}

		case tagMAG:
			if el != nil {
				vals := rec.real8s()
				if len(vals) > 0 {
					el.mag = vals[0]
				}
			}

		case tagANGLE:
			if el != nil {
				vals := rec.real8s()
				if len(vals) > 0 {
					el.angleDeg = vals[0]
				}
			}

		case tagCOLROW:
			if el != nil {
				vals := rec.int16s()
				if len(vals) >= 2 {
					el.cols, el.rows = int(vals[0]), int(vals[1])
				}
			}

		case tagXY:
			if el != nil {
				coords := rec.int32s()
				pts := make([]geom.Point, 0, len(coords)/2)
				for i := 0; i+1 < len(coords); i += 2 {
					pts = append(pts, geom.Point{X: float64(coords[i]), Y: float64(coords[i+1])})
				}
				el.xy = pts
				if (el.kind == tagSREF || el.kind == tagAREF) && len(pts) > 0 {
					el.x, el.y = pts[0].X, pts[0].Y
				}
			}

		case tagENDEL:
			if cur != nil && el != nil {
				if err := commitElement(b, cur, el); err != nil {
					return nil, err
				}
				b.elCount++
				if b.opts.OnProgress != nil && b.elCount%b.opts.ProgressEvery == 0 {
					b.opts.OnProgress(b.elCount)
				}
			}
			el = nil

		case tagBGNEXTN, tagENDEXTN:
			// deprecated path-extension records; value is ignored, presence
			// tolerated by both decoders (spec.md §4.1 deprecated fallback)

		case tagENDLIB:
			// stream end; trailing records (if any) are ignored
			break records

		case tagLIBNAME, tagREFLIBS, tagFONTS, tagATTRTABLE, tagGENERATIONS,
			tagFORMAT, tagMASK, tagENDMASKS, tagSTRCLASS, tagSTRTYPE,
			tagPRESENTATION, tagSTRING, tagELFLAGS, tagPLEX, tagNODE,
			tagTEXTNODE, tagPROPATTR, tagPROPVALUE, tagLIBDIRSIZE, tagSRFNAME,
			tagLIBSECUR, tagSPACING, tagUINTEGER, tagUSTRING, tagLINKTYPE,
			tagLINKKEYS, tagSTYPTABLE, tagELKEY, tagTAPENUM, tagTAPECODE:
			// structurally inert records for rendering purposes

		default:
			if err := unexpected("record", rec); err != nil {
				return nil, err
			}
		}
	}

	if strict && !sawHeader {
		return nil, &ParseError{Stage: "header", Offset: 0, Cause: ErrTruncatedStream}
	}
	return nil, nil
}

// commitElement converts a completed element accumulation into the owning
// cell's Polygons/Paths/Instances, dropping degenerate polygons.
func commitElement(b *builder, cur *Cell, el *elementAccum) error {
	switch el.kind {
	case tagBOUNDARY:
		pts := dedupClosingPoint(el.xy)
		unique := countUniqueVertices(pts)
		if unique < 3 {
			b.stats.DegeneratePolygons++
			return nil
		}
		cur.Polygons = append(cur.Polygons, Polygon{
			Layer:    el.layer,
			Datatype: el.datatype,
			Points:   pts,
		})

	case tagBOX:
		// recognised but yields no geometry; BoxRecords is already counted
		// at element-start (spec.md §4.1).

	case tagPATH:
		cur.Paths = append(cur.Paths, Path{
			Layer:    el.layer,
			Datatype: el.datatype,
			Width:    el.width,
			PathType: el.pathType,
			Points:   el.xy,
		})

	case tagSREF:
		if el.sname == "" {
			return nil
		}
		mag := el.mag
		if mag == 0 {
			mag = 1
		}
		cur.Instances = append(cur.Instances, Instance{
			CellRef:       el.sname,
			X:             el.x,
			Y:             el.y,
			RotationDeg:   el.angleDeg,
			Mirror:        el.mirror,
			Magnification: mag,
		})

	case tagAREF:
		// recognised but yields no geometry; ARefRecords is already counted
		// at element-start (spec.md §4.1).

	case tagTEXT:
		// text elements carry no fill geometry relevant to rendering; the
		// raw STRING payload is not retained (spec.md names no TEXT-overlay
		// requirement beyond the statistics counter).
	}
	return nil
}

// dedupClosingPoint drops a final point that merely repeats the first
// (GDSII BOUNDARY/BOX conventionally closes the ring explicitly).
func dedupClosingPoint(pts []geom.Point) []geom.Point {
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		return pts[:len(pts)-1]
	}
	return pts
}

// countUniqueVertices counts distinct points, used for the <3-unique-vertex
// degenerate-polygon rule (spec.md §3.3 / §8.7).
func countUniqueVertices(pts []geom.Point) int {
	seen := make(map[geom.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}
