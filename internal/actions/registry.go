package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/llmutil"
)

// Registry is the dispatch layer: it resolves an action by its string name
// and runs it against raw, untrusted arguments. The registered set is fixed
// for the lifetime of one agent run.
type Registry struct {
	logger  *zap.Logger
	actions map[string]*Action
	ordered []*Action
}

// NewRegistry indexes the given action set by name. Duplicate names are a
// programming error and panic at construction.
func NewRegistry(logger *zap.Logger, acts []*Action) *Registry {
	r := &Registry{
		logger:  logger.Named("action_registry"),
		actions: make(map[string]*Action, len(acts)),
		ordered: acts,
	}
	for _, a := range acts {
		if _, exists := r.actions[a.Name()]; exists {
			panic(fmt.Sprintf("duplicate action registered: %q", a.Name()))
		}
		r.actions[a.Name()] = a
	}
	return r
}

// Get returns the named action.
func (r *Registry) Get(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Actions returns the registered set in registration order.
func (r *Registry) Actions() []*Action {
	return r.ordered
}

// Dispatch validates rawArgs against the named action's schema and executes
// it. Unknown names and validation failures are errors; the handler's own
// error policy applies beyond that.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs map[string]any) (*ActionResult, error) {
	a, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	r.logger.Debug("Dispatching action", zap.String("action", name))
	res, err := a.Call(ctx, rawArgs)
	if err != nil {
		if _, isValidation := AsInvalidInput(err); isValidation {
			r.logger.Warn("Action rejected invalid input", zap.String("action", name), zap.Error(err))
		}
		return nil, err
	}
	return res, nil
}

// DispatchModelOutput parses a raw model response against the combined
// dynamic schema and dispatches the single populated action. The combined
// schema is structurally permissive (every field optional and nullable), so
// the exactly-one-populated-field invariant is enforced here, semantically:
// zero or multiple populated actions is a dispatch error with a diagnostic
// the model can correct from.
func (r *Registry) DispatchModelOutput(ctx context.Context, response string) (*ActionResult, error) {
	extracted, err := llmutil.ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extracted), &fields); err != nil {
		return nil, fmt.Errorf("model response is not a JSON object: %w", err)
	}

	var populated []string
	for name, raw := range fields {
		if string(raw) == "null" {
			continue
		}
		if _, known := r.actions[name]; !known {
			return nil, fmt.Errorf("%w: model response references %q", ErrUnknownAction, name)
		}
		populated = append(populated, name)
	}
	sort.Strings(populated)

	switch len(populated) {
	case 0:
		return nil, fmt.Errorf("model response selected no action; exactly one of the schema fields must be populated")
	case 1:
	default:
		return nil, fmt.Errorf("model response populated %d actions (%s); exactly one is required",
			len(populated), strings.Join(populated, ", "))
	}

	name := populated[0]
	var rawArgs map[string]any
	if err := json.Unmarshal(fields[name], &rawArgs); err != nil {
		return nil, fmt.Errorf("arguments of action %q are not a JSON object: %w", name, err)
	}
	if rawArgs == nil {
		rawArgs = map[string]any{}
	}
	return r.Dispatch(ctx, name, rawArgs)
}

// PromptDescription renders every registered action's model-facing shape,
// newline-joined, for inclusion in the planning prompt.
func (r *Registry) PromptDescription() string {
	parts := make([]string, 0, len(r.ordered))
	for _, a := range r.ordered {
		parts = append(parts, a.DescribeForPrompt())
	}
	return strings.Join(parts, "\n")
}

// DynamicSchema builds the combined schema over the registered set.
func (r *Registry) DynamicSchema() map[string]any {
	return BuildDynamicSchema(r.ordered)
}
