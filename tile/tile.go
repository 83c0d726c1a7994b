// Package tile decodes a Mapbox Vector Tile byte buffer (optionally
// gzip-wrapped) into per-layer R-tree-indexed feature records, applying
// a compiled style to resolve paint color and draw order, per spec.md
// §4.5. Geometry/value wire decoding lives in mvt.go and geometry.go.
package tile

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"sort"

	"mapscii/palette"
	"mapscii/rtree"
	"mapscii/style"
)

// Record is one renderable feature: its style-resolved color, draw kind,
// geometry (already in tile-extent space), sort rank and, for symbol
// layers, label text.
type Record struct {
	Kind     string // "fill", "line", "symbol", ... — the matched layer's style type
	Color    uint8
	Rank     int
	Text     string
	Rings    []Ring
	BBox     rtree.Box
	Feature  style.Feature
}

// Layer is a decoded, styled, R-tree-indexed tile layer.
type Layer struct {
	Extent  uint32
	Tree    *rtree.Tree
	Records []Record
}

// Tile is an immutable decoded vector tile: once populated from a byte
// buffer it is never mutated again, per spec.md §3's ownership rules.
type Tile struct {
	Layers map[string]*Layer
}

// nodeSize is the R-tree bulk-load group size target for per-layer
// feature indexes, per spec.md §4.5 ("configurable node-size ≈ 18").
const nodeSize = 18

// Load decodes buf (gunzipping first if it starts with the gzip magic
// bytes 0x1F 0x8B) into a Tile, applying doc to resolve each feature's
// layer match, color, and label text.
func Load(buf []byte, doc *style.Doc, lang string) (*Tile, error) {
	if len(buf) >= 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		r, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("tile: gunzip: %w", err)
		}
		defer r.Close()
		decompressed, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("tile: gunzip: %w", err)
		}
		buf = decompressed
	}

	rawLayers, err := decodeMVT(buf)
	if err != nil {
		return nil, fmt.Errorf("tile: decode: %w", err)
	}

	t := &Tile{Layers: make(map[string]*Layer, len(rawLayers))}
	for _, rl := range rawLayers {
		layer := buildLayer(rl, doc, lang)
		if layer != nil {
			t.Layers[rl.name] = layer
		}
	}
	return t, nil
}

func buildLayer(rl rawLayer, doc *style.Doc, lang string) *Layer {
	var records []Record

	for _, rf := range rl.features {
		props := decodeProperties(rf.tags, rl.keys, rl.values)
		typ := geomTypeName(rf.geomType)
		feat := style.Feature{Type: typ, Properties: props}

		matched, ok := doc.GetStyleFor(rl.name, feat)
		if !ok {
			continue
		}

		color := resolveColor(matched.Paint, matched.Type)
		rank := intProp(props, "localrank", intProp(props, "scalerank", 0))
		text := labelText(props, lang)
		rings := decodeGeometry(rf.geometry)

		if matched.Type == "fill" {
			rec := Record{Kind: "fill", Color: color, Rank: rank, Text: text, Rings: rings, Feature: feat}
			rec.BBox = boundingBox(rings)
			records = append(records, rec)
			continue
		}

		for _, ring := range rings {
			rec := Record{Kind: matched.Type, Color: color, Rank: rank, Text: text, Rings: []Ring{ring}, Feature: feat}
			rec.BBox = boundingBox([]Ring{ring})
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Rank < records[j].Rank })

	// items are built after the rank sort so each rtree.Item's Value (the
	// record's position in Records) stays valid for lookups from a Search hit.
	items := make([]rtree.Item, len(records))
	for i, rec := range records {
		items[i] = rtree.Item{Box: rec.BBox, Value: i}
	}

	return &Layer{
		Extent:  rl.extent,
		Tree:    rtree.BulkLoadWithGroupSize(items, nodeSize),
		Records: records,
	}
}

func geomTypeName(g GeomType) string {
	switch g {
	case GeomPoint:
		return "Point"
	case GeomLineString:
		return "LineString"
	case GeomPolygon:
		return "Polygon"
	default:
		return "Unknown"
	}
}

// decodeProperties zips a feature's tag index pairs against the layer's
// shared keys/values tables into a properties map.
func decodeProperties(tags []uint32, keys []string, values []any) map[string]any {
	props := make(map[string]any, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		ki, vi := int(tags[i]), int(tags[i+1])
		if ki < 0 || ki >= len(keys) || vi < 0 || vi >= len(values) {
			continue
		}
		props[keys[ki]] = values[vi]
	}
	return props
}

// resolveColor reads paint["line-color"|"fill-color"|"text-color"],
// taking the first stop's value if it is a zoom-stop record, and
// resolves the CSS hex color to the nearest 256-palette index.
func resolveColor(paint map[string]any, layerType string) uint8 {
	var key string
	switch layerType {
	case "line":
		key = "line-color"
	case "fill":
		key = "fill-color"
	case "symbol":
		key = "text-color"
	default:
		key = "fill-color"
	}

	raw, ok := paint[key]
	if !ok {
		return 0
	}
	raw = firstZoomStop(raw)
	hex, ok := raw.(string)
	if !ok {
		return 0
	}
	idx, err := palette.ParseHex(hex)
	if err != nil {
		return 0
	}
	return idx
}

// firstZoomStop returns v unchanged unless it is a zoom-stop record
// (`{"stops": [[zoom, value], ...]}` or a bare array of stops), in which
// case only the first stop's value is honored, per the GLOSSARY's "Zoom
// stop" entry.
func firstZoomStop(v any) any {
	if m, ok := v.(map[string]any); ok {
		if stops, ok := m["stops"].([]any); ok && len(stops) > 0 {
			if pair, ok := stops[0].([]any); ok && len(pair) == 2 {
				return pair[1]
			}
		}
		return v
	}
	if arr, ok := v.([]any); ok && len(arr) > 0 {
		if pair, ok := arr[0].([]any); ok && len(pair) == 2 {
			return pair[1]
		}
	}
	return v
}

// labelText picks the first present field in priority order: name_<lang>
// (the config.Language-suffixed key), name_en, name, house_num, per
// spec.md §4.5 step 5.
func labelText(props map[string]any, lang string) string {
	if lang != "" && lang != "en" {
		if v, ok := props["name_"+lang]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	if v, ok := props["name_en"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if v, ok := props["name"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if v, ok := props["house_num"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intProp(props map[string]any, key string, fallback int) int {
	v, ok := props[key]
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	default:
		return fallback
	}
}

func boundingBox(rings []Ring) rtree.Box {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return rtree.Box{}
	}
	first := rings[0][0]
	box := rtree.Box{MinX: float64(first.X), MinY: float64(first.Y), MaxX: float64(first.X), MaxY: float64(first.Y)}
	for _, ring := range rings {
		for _, p := range ring {
			x, y := float64(p.X), float64(p.Y)
			if x < box.MinX {
				box.MinX = x
			}
			if x > box.MaxX {
				box.MaxX = x
			}
			if y < box.MinY {
				box.MinY = y
			}
			if y > box.MaxY {
				box.MaxY = y
			}
		}
	}
	return box
}
