package actions

import (
	"context"
	"fmt"
	"strings"
)

// Handler executes one validated action call against browser state. It
// returns a Result on every path that does not propagate an error; errors it
// does return are infrastructure faults the control loop must treat as a
// failed step.
type Handler func(ctx context.Context, args Args) (*ActionResult, error)

// Action wraps one schema descriptor and one handler. It owns input
// validation, dispatch, and the model-facing prompt fragment describing
// itself. Constructed by the Builder, it lives for the duration of one agent
// run and is not shared across concurrent runs.
type Action struct {
	Desc    ActionDescriptor
	handler Handler
}

// New binds a descriptor to its handler.
func New(desc ActionDescriptor, handler Handler) *Action {
	return &Action{Desc: desc, handler: handler}
}

// Name returns the action's unique registry key.
func (a *Action) Name() string {
	return a.Desc.Name
}

// Validate checks raw input against the descriptor's parameter shape. On
// failure the handler is never invoked, so the call has no partial side
// effects.
func (a *Action) Validate(raw map[string]any) (Args, error) {
	return a.Desc.Validate(raw)
}

// Call validates the raw input and invokes the bound handler. Validation
// failures surface as *InvalidInputError. Errors raised inside the handler
// are not caught here; they propagate to the control loop.
func (a *Action) Call(ctx context.Context, raw map[string]any) (*ActionResult, error) {
	args, err := a.Validate(raw)
	if err != nil {
		return nil, err
	}
	return a.handler(ctx, args)
}

// ElementIndex returns the element index carried by raw input, if this action
// is declared index-bearing and the input structurally contains a numeric
// "index" field. Pure; performs no validation beyond the index itself.
func (a *Action) ElementIndex(raw map[string]any) (int, bool) {
	if !a.Desc.HasIndex {
		return 0, false
	}
	v, ok := raw["index"]
	if !ok {
		return 0, false
	}
	n, err := coerceParam(ParamSpec{Name: "index", Kind: KindInteger}, v)
	if err != nil {
		return 0, false
	}
	return n.(int), true
}

// DescribeForPrompt renders the action's shape for inclusion in the planning
// prompt, as its description followed by
// {name: {field: {type, required|optional}, ...}}. This is the only place the
// model learns an action's shape, so it is derived mechanically from the same
// descriptor the validator uses and cannot drift from it.
func (a *Action) DescribeForPrompt() string {
	var b strings.Builder
	b.WriteString(a.Desc.Description)
	b.WriteString(":\n")
	fmt.Fprintf(&b, "{%s: {", a.Desc.Name)
	for i, p := range a.Desc.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		requiredness := "optional"
		if p.Required {
			requiredness = "required"
		}
		fmt.Fprintf(&b, "%s: {type: %s, %s}", p.Name, p.Kind, requiredness)
	}
	b.WriteString("}}")
	return b.String()
}
