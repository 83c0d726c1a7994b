// Package style compiles a Mapbox GL style document into per-layer
// predicates, per spec.md §4.4: @-constant substitution, ref-based layer
// inheritance, and filter compilation into a tagged sum evaluated by
// match rather than a runtime map[string]interface{} walk (spec.md §9's
// REDESIGN FLAG on polymorphism), modeled on highlight.Highlighter's
// single-pass compile-then-cache shape.
package style

import "encoding/json"

// Feature is the minimal surface Styler needs from a decoded tile
// feature: its layer-scoped properties and geometry type.
type Feature struct {
	Type       string
	Properties map[string]any
}

// Layer is a compiled style layer ready for getStyleFor matching.
type Layer struct {
	ID          string
	Type        string
	SourceLayer string
	MinZoom     float64
	MaxZoom     float64
	Paint       map[string]any
	filter      Filter
}

// Doc is a compiled style document: constants substituted, ref-inheritance
// resolved, filters compiled.
type Doc struct {
	Name   string
	Layers []Layer
}

// rawLayer mirrors the on-disk JSON shape before compilation.
type rawLayer struct {
	ID          string         `json:"id"`
	Ref         string         `json:"ref"`
	Type        string         `json:"type"`
	SourceLayer string         `json:"source-layer"`
	MinZoom     float64        `json:"minzoom"`
	MaxZoom     float64        `json:"maxzoom"`
	Filter      any            `json:"filter"`
	Paint       map[string]any `json:"paint"`
}

type rawDoc struct {
	Name      string          `json:"name"`
	Constants map[string]any  `json:"constants"`
	Layers    []rawLayer      `json:"layers"`
}

// Compile parses and compiles a style document from raw JSON bytes.
func Compile(data []byte) (*Doc, error) {
	var raw rawDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	substituted := substituteConstants(raw.Layers, raw.Constants)

	byID := make(map[string]rawLayer, len(substituted))

	doc := &Doc{Name: raw.Name}
	for _, l := range substituted {
		resolved := resolveRef(l, byID)
		byID[resolved.ID] = resolved
		doc.Layers = append(doc.Layers, Layer{
			ID:          resolved.ID,
			Type:        resolved.Type,
			SourceLayer: resolved.SourceLayer,
			MinZoom:     resolved.MinZoom,
			MaxZoom:     resolved.MaxZoom,
			Paint:       resolved.Paint,
			filter:      compileFilter(resolved.Filter),
		})
	}
	return doc, nil
}

// resolveRef inherits type/source-layer/minzoom/maxzoom/filter from a
// previously-seen layer named by ref, for any field not already set
// locally.
func resolveRef(l rawLayer, byID map[string]rawLayer) rawLayer {
	if l.Ref == "" {
		return l
	}
	base, ok := byID[l.Ref]
	if !ok {
		return l
	}
	if l.Type == "" {
		l.Type = base.Type
	}
	if l.SourceLayer == "" {
		l.SourceLayer = base.SourceLayer
	}
	if l.MinZoom == 0 {
		l.MinZoom = base.MinZoom
	}
	if l.MaxZoom == 0 {
		l.MaxZoom = base.MaxZoom
	}
	if l.Filter == nil {
		l.Filter = base.Filter
	}
	return l
}

// substituteConstants recursively replaces any string beginning with "@"
// with the named constant's value, throughout every layer's filter and
// paint fields.
func substituteConstants(layers []rawLayer, constants map[string]any) []rawLayer {
	if len(constants) == 0 {
		return layers
	}
	out := make([]rawLayer, len(layers))
	for i, l := range layers {
		l.Filter = substituteValue(l.Filter, constants)
		if l.Paint != nil {
			paint := make(map[string]any, len(l.Paint))
			for k, v := range l.Paint {
				paint[k] = substituteValue(v, constants)
			}
			l.Paint = paint
		}
		out[i] = l
	}
	return out
}

func substituteValue(v any, constants map[string]any) any {
	switch t := v.(type) {
	case string:
		if len(t) > 0 && t[0] == '@' {
			if resolved, ok := constants[t]; ok {
				return resolved
			}
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = substituteValue(e, constants)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = substituteValue(e, constants)
		}
		return out
	default:
		return v
	}
}

// GetStyleFor returns the first layer (in declaration order) with the given
// source layer whose compiled filter accepts feature, and true; or the zero
// Layer and false if none match ("do not draw").
func (d *Doc) GetStyleFor(sourceLayer string, feature Feature) (Layer, bool) {
	for _, l := range d.Layers {
		if l.SourceLayer != sourceLayer {
			continue
		}
		if l.filter.eval(feature) {
			return l, true
		}
	}
	return Layer{}, false
}
