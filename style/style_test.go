package style

import "testing"

func TestE5StyleFilterCompile(t *testing.T) {
	f := compileFilter([]any{"==", "class", "motorway"})
	if !f.eval(Feature{Properties: map[string]any{"class": "motorway"}}) {
		t.Error(`["==", "class", "motorway"] should accept class=motorway`)
	}
	if f.eval(Feature{Properties: map[string]any{"class": "primary"}}) {
		t.Error(`["==", "class", "motorway"] should reject class=primary`)
	}

	in := compileFilter([]any{"in", "class", "a", "b"})
	if !in.eval(Feature{Properties: map[string]any{"class": "b"}}) {
		t.Error(`["in", "class", "a", "b"] should accept class=b`)
	}
}

func TestFilterAllIsCorrectAND(t *testing.T) {
	f := FilterAll{Filters: []Filter{
		FilterEq{Key: "a", Value: "1"},
		FilterEq{Key: "b", Value: "2"},
	}}
	if !f.eval(Feature{Properties: map[string]any{"a": "1", "b": "2"}}) {
		t.Error("all sub-filters pass: should accept")
	}
	if f.eval(Feature{Properties: map[string]any{"a": "1", "b": "wrong"}}) {
		t.Error("one sub-filter fails: should reject (not the inverted source bug)")
	}
}

func TestFilterNone(t *testing.T) {
	f := FilterNone{Filters: []Filter{FilterEq{Key: "a", Value: "1"}}}
	if f.eval(Feature{Properties: map[string]any{"a": "1"}}) {
		t.Error("sub-filter matches: none should reject")
	}
	if !f.eval(Feature{Properties: map[string]any{"a": "2"}}) {
		t.Error("sub-filter doesn't match: none should accept")
	}
}

func TestFilterHasAndCmp(t *testing.T) {
	has := FilterHas{Key: "name"}
	if !has.eval(Feature{Properties: map[string]any{"name": "x"}}) {
		t.Error("has should accept present truthy key")
	}
	if has.eval(Feature{Properties: map[string]any{}}) {
		t.Error("has should reject missing key")
	}

	cmp := FilterCmp{Key: "pop", Op: CmpGTE, Value: 1000}
	if !cmp.eval(Feature{Properties: map[string]any{"pop": float64(1000)}}) {
		t.Error(">= 1000 should accept 1000")
	}
	if cmp.eval(Feature{Properties: map[string]any{"pop": float64(999)}}) {
		t.Error(">= 1000 should reject 999")
	}
}

func TestUnknownFilterIsAlwaysTrue(t *testing.T) {
	f := compileFilter([]any{"nonsense-op", "x"})
	if !f.eval(Feature{}) {
		t.Error("unrecognized filter should degrade to always-true")
	}
	if !compileFilter(nil).eval(Feature{}) {
		t.Error("absent filter should degrade to always-true")
	}
}

func TestGetStyleForDeterministic(t *testing.T) {
	doc := &Doc{Layers: []Layer{
		{ID: "roads", SourceLayer: "roads", filter: FilterEq{Key: "class", Value: "motorway"}},
		{ID: "all-roads", SourceLayer: "roads", filter: FilterAlways{}},
	}}
	feat := Feature{Properties: map[string]any{"class": "motorway"}}

	l1, ok1 := doc.GetStyleFor("roads", feat)
	l2, ok2 := doc.GetStyleFor("roads", feat)
	if !ok1 || !ok2 || l1.ID != l2.ID {
		t.Fatalf("GetStyleFor not deterministic: (%v,%v) vs (%v,%v)", l1.ID, ok1, l2.ID, ok2)
	}
	if l1.ID != "roads" {
		t.Errorf("expected first matching layer 'roads', got %q", l1.ID)
	}
}

func TestRefInheritance(t *testing.T) {
	data := []byte(`{
		"layers": [
			{"id": "base", "type": "fill", "source-layer": "water", "filter": ["==", "class", "lake"]},
			{"id": "derived", "ref": "base"}
		]
	}`)
	doc, err := Compile(data)
	if err != nil {
		t.Fatal(err)
	}
	var derived *Layer
	for i := range doc.Layers {
		if doc.Layers[i].ID == "derived" {
			derived = &doc.Layers[i]
		}
	}
	if derived == nil {
		t.Fatal("derived layer not found")
	}
	if derived.Type != "fill" || derived.SourceLayer != "water" {
		t.Errorf("derived layer did not inherit type/source-layer: %+v", derived)
	}
	if !derived.filter.eval(Feature{Properties: map[string]any{"class": "lake"}}) {
		t.Error("derived layer should inherit base's filter")
	}
}

func TestConstantSubstitution(t *testing.T) {
	data := []byte(`{
		"constants": {"@water-color": "lake"},
		"layers": [
			{"id": "water", "type": "fill", "source-layer": "water", "filter": ["==", "class", "@water-color"]}
		]
	}`)
	doc, err := Compile(data)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Layers[0].filter.eval(Feature{Properties: map[string]any{"class": "lake"}}) {
		t.Error("@water-color should have been substituted with \"lake\"")
	}
}
