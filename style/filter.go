package style

// Filter is a compiled predicate over a Feature, one concrete type per
// filter form (spec.md §9's tagged-sum REDESIGN FLAG).
type Filter interface {
	eval(Feature) bool
}

// FilterAlways always accepts; used for absent/unknown filter forms.
type FilterAlways struct{}

func (FilterAlways) eval(Feature) bool { return true }

// FilterAll is the logical AND of its sub-filters. Fixes spec.md §9(a):
// the source inverts this to "true if any sub-filter fails"; the correct
// semantics is "true only if none of the sub-filters fail".
type FilterAll struct{ Filters []Filter }

func (f FilterAll) eval(feat Feature) bool {
	for _, sub := range f.Filters {
		if !sub.eval(feat) {
			return false
		}
	}
	return true
}

// FilterAny is the logical OR of its sub-filters.
type FilterAny struct{ Filters []Filter }

func (f FilterAny) eval(feat Feature) bool {
	for _, sub := range f.Filters {
		if sub.eval(feat) {
			return true
		}
	}
	return false
}

// FilterNone accepts only when every sub-filter rejects (NOR).
type FilterNone struct{ Filters []Filter }

func (f FilterNone) eval(feat Feature) bool {
	for _, sub := range f.Filters {
		if sub.eval(feat) {
			return false
		}
	}
	return true
}

// FilterEq tests properties[Key] == Value.
type FilterEq struct {
	Key   string
	Value any
}

func (f FilterEq) eval(feat Feature) bool {
	return valueEquals(feat.Properties[f.Key], f.Value)
}

// FilterNeq tests properties[Key] != Value.
type FilterNeq struct {
	Key   string
	Value any
}

func (f FilterNeq) eval(feat Feature) bool {
	return !valueEquals(feat.Properties[f.Key], f.Value)
}

// FilterIn tests properties[Key] membership in Values.
type FilterIn struct {
	Key    string
	Values []any
}

func (f FilterIn) eval(feat Feature) bool {
	v := feat.Properties[f.Key]
	for _, want := range f.Values {
		if valueEquals(v, want) {
			return true
		}
	}
	return false
}

// FilterNotIn tests properties[Key] exclusion from Values.
type FilterNotIn struct {
	Key    string
	Values []any
}

func (f FilterNotIn) eval(feat Feature) bool {
	return !(FilterIn{Key: f.Key, Values: f.Values}).eval(feat)
}

// FilterHas tests truthy presence of properties[Key].
type FilterHas struct{ Key string }

func (f FilterHas) eval(feat Feature) bool {
	return isTruthy(feat.Properties[f.Key])
}

// FilterNotHas tests absence (or falsiness) of properties[Key].
type FilterNotHas struct{ Key string }

func (f FilterNotHas) eval(feat Feature) bool {
	return !isTruthy(feat.Properties[f.Key])
}

// CmpOp is one of the four numeric comparison operators.
type CmpOp int

const (
	CmpLT CmpOp = iota
	CmpLTE
	CmpGT
	CmpGTE
)

// FilterCmp is a numeric comparison of properties[Key] against Value.
type FilterCmp struct {
	Key   string
	Op    CmpOp
	Value float64
}

func (f FilterCmp) eval(feat Feature) bool {
	n, ok := asFloat(feat.Properties[f.Key])
	if !ok {
		return false
	}
	switch f.Op {
	case CmpLT:
		return n < f.Value
	case CmpLTE:
		return n <= f.Value
	case CmpGT:
		return n > f.Value
	case CmpGTE:
		return n >= f.Value
	default:
		return false
	}
}

func valueEquals(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// compileFilter compiles a raw JSON-decoded filter expression
// (`["op", ...]`) into a Filter. Malformed or unrecognized filters
// compile to FilterAlways, matching spec.md §7's StylerCompile
// degrade-to-always-true rule.
func compileFilter(raw any) Filter {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return FilterAlways{}
	}
	op, ok := arr[0].(string)
	if !ok {
		return FilterAlways{}
	}

	switch op {
	case "all":
		return FilterAll{Filters: compileSubFilters(arr[1:])}
	case "any":
		return FilterAny{Filters: compileSubFilters(arr[1:])}
	case "none":
		return FilterNone{Filters: compileSubFilters(arr[1:])}
	case "==":
		if len(arr) != 3 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		return FilterEq{Key: key, Value: arr[2]}
	case "!=":
		if len(arr) != 3 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		return FilterNeq{Key: key, Value: arr[2]}
	case "in":
		if len(arr) < 2 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		return FilterIn{Key: key, Values: arr[2:]}
	case "!in":
		if len(arr) < 2 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		return FilterNotIn{Key: key, Values: arr[2:]}
	case "has":
		if len(arr) != 2 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		return FilterHas{Key: key}
	case "!has":
		if len(arr) != 2 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		return FilterNotHas{Key: key}
	case "<", "<=", ">", ">=":
		if len(arr) != 3 {
			return FilterAlways{}
		}
		key, ok := arr[1].(string)
		if !ok {
			return FilterAlways{}
		}
		val, ok := asFloat(arr[2])
		if !ok {
			return FilterAlways{}
		}
		var cmpOp CmpOp
		switch op {
		case "<":
			cmpOp = CmpLT
		case "<=":
			cmpOp = CmpLTE
		case ">":
			cmpOp = CmpGT
		case ">=":
			cmpOp = CmpGTE
		}
		return FilterCmp{Key: key, Op: cmpOp, Value: val}
	default:
		return FilterAlways{}
	}
}

func compileSubFilters(raw []any) []Filter {
	out := make([]Filter, len(raw))
	for i, r := range raw {
		out[i] = compileFilter(r)
	}
	return out
}
