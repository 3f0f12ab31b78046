package actions

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParamKind is the type of a single action parameter.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindInteger ParamKind = "integer"
	KindBoolean ParamKind = "boolean"
)

// ParamSpec describes one field of an action's parameter shape.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Required    bool
	Description string
}

// ActionDescriptor is the immutable, static description of one action kind:
// its unique name, the natural-language description shown to the model, its
// parameter shape, and whether it targets a previously indexed page element.
// Created once at startup and never mutated.
type ActionDescriptor struct {
	Name        string
	Description string
	HasIndex    bool
	Params      []ParamSpec
}

// TakesNoArguments reports whether the parameter shape is empty, in which case
// validation is skipped entirely and the handler receives empty Args.
func (d ActionDescriptor) TakesNoArguments() bool {
	return len(d.Params) == 0
}

// Args holds the validated, canonically typed arguments of one action call.
// Values are string, int or bool depending on the parameter kind.
type Args map[string]any

// String returns the named string argument, or "" when absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int returns the named integer argument and whether it was present.
func (a Args) Int(name string) (int, bool) {
	v, ok := a[name].(int)
	return v, ok
}

// IntOr returns the named integer argument, or def when absent.
func (a Args) IntOr(name string, def int) int {
	if v, ok := a.Int(name); ok {
		return v
	}
	return def
}

// Bool returns the named boolean argument, or false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Has reports whether the named argument was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Validate parses raw structured input against the descriptor's parameter
// shape. It is a pure function: on success it returns canonically typed Args,
// on failure an InvalidInputError carrying a human-readable diagnostic.
// Unknown fields are ignored so that minor model over-generation does not
// block execution; missing required fields and type mismatches do.
func (d ActionDescriptor) Validate(raw map[string]any) (Args, error) {
	if d.TakesNoArguments() {
		// Action takes no arguments by design; whatever was supplied is ignored.
		return Args{}, nil
	}

	args := make(Args, len(d.Params))
	for _, p := range d.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, NewInvalidInputError(d.Name, "missing required field %q (%s)", p.Name, p.Kind)
			}
			continue
		}
		coerced, err := coerceParam(p, v)
		if err != nil {
			return nil, NewInvalidInputError(d.Name, "field %q: %s", p.Name, err)
		}
		args[p.Name] = coerced
	}
	return args, nil
}

// coerceParam converts a raw JSON-decoded value into the parameter's canonical
// Go type. JSON decoding yields float64 (or json.Number) for every numeric, so
// integers need explicit narrowing.
func coerceParam(p ParamSpec, v any) (any, error) {
	switch p.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		return s, nil
	case KindInteger:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected an integer, got %v", n)
			}
			return int(n), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("expected an integer, got %q", n.String())
			}
			return int(i), nil
		default:
			return nil, fmt.Errorf("expected an integer, got %T", v)
		}
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported parameter kind %q", p.Kind)
	}
}
