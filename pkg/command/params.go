package command

import (
	"fmt"
	"math"
	"strconv"
)

// Params holds a command's parameters as decoded from the scene document.
// Numbers may arrive as any Go numeric type depending on the decoder, so
// the accessors are tolerant and fall back to a default value.
type Params map[string]any

// Has reports whether the parameter is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Int returns the parameter as an int, or def if it is missing or not numeric.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	if n, ok := ToInt(v); ok {
		return n
	}
	return def
}

// Bool returns the parameter as a bool, or def if it is missing.
func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def
		}
		return parsed
	default:
		if n, ok := ToInt(v); ok {
			return n != 0
		}
		return def
	}
}

// String returns the parameter as a string, or def if it is missing.
func (p Params) String(key string, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Map returns a nested parameter object.
func (p Params) Map(key string) (Params, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	return asParams(v)
}

// List returns a parameter list.
func (p Params) List(key string) []any {
	v, ok := p[key]
	if !ok {
		return nil
	}
	list, _ := v.([]any)
	return list
}

// VariableRef returns the parameter as a variable reference.
// A reference is an object with scope, index and an optional domain.
func (p Params) VariableRef(key string) (Ref, bool) {
	m, ok := p.Map(key)
	if !ok {
		return Ref{}, false
	}
	return refFromParams(m)
}

// Value returns a parameter that is either a literal or a variable reference.
func (p Params) Value(key string) (Value, bool) {
	v, ok := p[key]
	if !ok {
		return Value{}, false
	}
	if m, ok := asParams(v); ok {
		if ref, ok := refFromParams(m); ok {
			return Value{Ref: &ref}, true
		}
	}
	return Value{Literal: v}, true
}

// Ref addresses a variable in the variable store.
type Ref struct {
	Scope  int    `yaml:"scope"`
	Index  int    `yaml:"index"`
	Domain string `yaml:"domain,omitempty"`
}

// Value is either a literal constant or a reference to a stored variable.
type Value struct {
	Literal any
	Ref     *Ref
}

// IsRef reports whether the value must be resolved through the variable store.
func (v Value) IsRef() bool {
	return v.Ref != nil
}

func refFromParams(m Params) (Ref, bool) {
	if !m.Has("index") {
		return Ref{}, false
	}
	return Ref{
		Scope:  m.Int("scope", 0),
		Index:  m.Int("index", 0),
		Domain: m.String("domain", ""),
	}, true
}

func asParams(v any) (Params, bool) {
	switch m := v.(type) {
	case Params:
		return m, true
	case map[string]any:
		return Params(m), true
	case map[any]any:
		out := make(Params, len(m))
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// ToInt converts a decoded numeric value to int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// floatToInt truncates f toward zero. NaN and values outside the int range fail.
func floatToInt(f float64) (int, bool) {
	// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
	if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}
