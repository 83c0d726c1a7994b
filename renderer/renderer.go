// Package renderer composes braille, canvas, label, style, tile and
// tilesource into a single Draw(center, zoom) -> string operation, per
// spec.md §4.7. RendererBusy is modeled the same way daisied-aln's
// Editor allows only one modal dialog open at a time: a concurrent Draw
// call is rejected outright rather than queued or cancelling the
// in-flight one.
package renderer

import (
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"mapscii/braille"
	"mapscii/canvas"
	"mapscii/config"
	"mapscii/label"
	"mapscii/mercator"
	"mapscii/palette"
	"mapscii/rtree"
	"mapscii/style"
	"mapscii/tile"
	"mapscii/tilesource"
)

// ErrBusy is returned by Draw when a render is already in flight,
// surfaced to the user as a one-line notice per spec.md §7.
var ErrBusy = errors.New("renderer: busy, a draw is already in progress")

// ErrTileUnavailable wraps a tile fetch/decode failure that aborted a
// frame; the caller should keep showing the previous frame.
var ErrTileUnavailable = errors.New("renderer: tile unavailable")

// Renderer owns the Canvas and LabelBuffer for one viewport and
// orchestrates tile fetch + style + draw into a single frame string.
type Renderer struct {
	cfg    *config.Config
	doc    *style.Doc
	source *tilesource.Source
	canvas *canvas.Canvas
	labels *label.Buffer

	busy int32
}

// New constructs a Renderer. w, h are the canvas pixel dimensions.
func New(cfg *config.Config, doc *style.Doc, source *tilesource.Source, w, h int) *Renderer {
	buf := braille.New(w, h, braille.Options{UseBraille: cfg.UseBraille, Delimiter: cfg.Delimiter})
	return &Renderer{
		cfg:    cfg,
		doc:    doc,
		source: source,
		canvas: canvas.New(buf),
		labels: label.New(),
	}
}

// Draw renders the viewport centered at (lon, lat) and the given zoom
// level, returning the serialized frame. Concurrent calls are rejected
// with ErrBusy; the in-flight draw is never cancelled.
func (r *Renderer) Draw(lon, lat, zoom float64) (string, error) {
	if !atomic.CompareAndSwapInt32(&r.busy, 0, 1) {
		return "", ErrBusy
	}
	defer atomic.StoreInt32(&r.busy, 0)

	r.canvas.Clear()
	r.labels.Clear()
	if bg, ok := r.backgroundColor(); ok {
		r.canvas.SetBackground(bg)
	}

	zBase := math.Floor(zoom)
	scale := math.Pow(2, zoom-zBase)
	projectSize := r.cfg.ProjectSize
	if projectSize == 0 {
		projectSize = 256
	}

	centerTX, centerTY := mercator.LonLatToTile(lon, lat, zBase)
	w, h := r.canvas.Width(), r.canvas.Height()
	halfTilesX := float64(w) / 2 / (float64(projectSize) * scale)
	halfTilesY := float64(h) / 2 / (float64(projectSize) * scale)

	minTX := int(math.Floor(centerTX - halfTilesX))
	maxTX := int(math.Floor(centerTX + halfTilesX))
	minTY := int(math.Floor(centerTY - halfTilesY))
	maxTY := int(math.Floor(centerTY + halfTilesY))

	type coord struct{ tx, ty int }
	var coords []coord
	for tx := minTX; tx <= maxTX; tx++ {
		for ty := minTY; ty <= maxTY; ty++ {
			coords = append(coords, coord{tx, ty})
		}
	}

	tiles := make([]*tile.Tile, len(coords))
	errs := make([]error, len(coords))
	var wg sync.WaitGroup
	for i, c := range coords {
		wg.Add(1)
		go func(i int, c coord) {
			defer wg.Done()
			t, err := r.source.GetTile(int(zBase), c.tx, c.ty)
			tiles[i] = t
			errs[i] = err
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return "", errors.Join(ErrTileUnavailable, err)
		}
	}

	for _, l := range r.doc.Layers {
		// l.MinZoom/MaxZoom of 0 mean "unset" (style.Compile's JSON default,
		// the same convention resolveRef's ref-inheritance already assumes),
		// so only MaxZoom > 0 actually bounds the zoom range from above.
		if zoom < l.MinZoom || (l.MaxZoom > 0 && zoom > l.MaxZoom) {
			continue
		}
		for i, c := range coords {
			t := tiles[i]
			layer, ok := t.Layers[l.SourceLayer]
			if !ok {
				continue
			}
			extent := float64(layer.Extent)
			tileOriginCanvasX := (float64(c.tx) - centerTX) * float64(projectSize) * scale
			tileOriginCanvasY := (float64(c.ty) - centerTY) * float64(projectSize) * scale

			project := func(p tile.Point) canvas.Point {
				px := float64(p.X) / extent * float64(projectSize) * scale
				py := float64(p.Y) / extent * float64(projectSize) * scale
				return canvas.Point{
					X: int(tileOriginCanvasX+px) + w/2,
					Y: int(tileOriginCanvasY+py) + h/2,
				}
			}

			// Translate the canvas viewport into this tile's extent space
			// and let the R-tree narrow down to the features that could
			// possibly intersect it, per spec.md §4.7 step 4a.
			toExtentX := func(canvasX float64) float64 {
				return (canvasX - float64(w)/2 - tileOriginCanvasX) / scale / float64(projectSize) * extent
			}
			toExtentY := func(canvasY float64) float64 {
				return (canvasY - float64(h)/2 - tileOriginCanvasY) / scale / float64(projectSize) * extent
			}
			viewBox := rtree.Box{
				MinX: toExtentX(0), MaxX: toExtentX(float64(w)),
				MinY: toExtentY(0), MaxY: toExtentY(float64(h)),
			}
			if viewBox.MinX > viewBox.MaxX {
				viewBox.MinX, viewBox.MaxX = viewBox.MaxX, viewBox.MinX
			}
			if viewBox.MinY > viewBox.MaxY {
				viewBox.MinY, viewBox.MaxY = viewBox.MaxY, viewBox.MinY
			}

			hits := layer.Tree.Search(viewBox)
			indices := make([]int, 0, len(hits))
			for _, hit := range hits {
				if idx, ok := hit.Value.(int); ok && idx >= 0 && idx < len(layer.Records) {
					indices = append(indices, idx)
				}
			}
			// Records is already Rank-ascending (tile.buildLayer sorts it),
			// and idx is a position in that slice, so sorting indices
			// ascending recovers the draw-order guarantee that Tree.Search's
			// traversal order does not provide.
			sort.Ints(indices)

			for _, idx := range indices {
				rec := layer.Records[idx]
				if rec.Kind != l.Type && l.Type != "" {
					continue
				}
				r.drawRecord(rec, l, project)
			}
		}
	}

	return r.canvas.Frame(), nil
}

func (r *Renderer) drawRecord(rec tile.Record, l style.Layer, project func(tile.Point) canvas.Point) {
	switch l.Type {
	case "fill":
		rings := make([][]canvas.Point, len(rec.Rings))
		for i, ring := range rec.Rings {
			pts := make([]canvas.Point, len(ring))
			for j, p := range ring {
				pts[j] = project(p)
			}
			rings[i] = pts
		}
		r.canvas.Polygon(rings, rec.Color)
	case "line":
		if len(rec.Rings) == 0 {
			return
		}
		pts := make([]canvas.Point, len(rec.Rings[0]))
		for j, p := range rec.Rings[0] {
			pts[j] = project(p)
		}
		width := paintWidth(l.Paint)
		r.canvas.Polyline(pts, rec.Color, width)
	case "symbol":
		centroid := centroidOf(rec.Rings)
		if centroid == nil {
			return
		}
		pt := project(*centroid)
		text := rec.Text
		if text == "" {
			text = r.cfg.PoiMarker
			if text == "" {
				text = "◉"
			}
		}
		margin := r.cfg.LabelMargin
		if ov := r.cfg.LayerOverride(l.SourceLayer); ov.Margin != 0 {
			margin = ov.Margin
		}
		if r.labels.WriteIfPossible(text, pt.X, pt.Y, rec.Feature, margin) {
			r.canvas.Text(text, pt.X, pt.Y, rec.Color, true)
		}
	}
}

func centroidOf(rings []tile.Ring) *tile.Point {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return nil
	}
	var sx, sy int64
	n := int64(0)
	for _, ring := range rings {
		for _, p := range ring {
			sx += int64(p.X)
			sy += int64(p.Y)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &tile.Point{X: int32(sx / n), Y: int32(sy / n)}
}

func paintWidth(paint map[string]any) int {
	v, ok := paint["line-width"]
	if !ok {
		return 1
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	default:
		return 1
	}
}

// backgroundColor resolves the style document's "background" layer
// paint color, if any.
func (r *Renderer) backgroundColor() (uint8, bool) {
	for _, l := range r.doc.Layers {
		if l.Type != "background" {
			continue
		}
		raw, ok := l.Paint["background-color"]
		if !ok {
			continue
		}
		hex, ok := raw.(string)
		if !ok {
			continue
		}
		idx, err := palette.ParseHex(hex)
		if err != nil {
			continue
		}
		return idx, true
	}
	return 0, false
}
