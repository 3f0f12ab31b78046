package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/internal/observability"
)

func TestDispatchUnknownAction(t *testing.T) {
	h := newHarness()

	_, err := h.registry.Dispatch(context.Background(), "teleport", map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Zero(t, h.log.Len())
}

func TestRegistryPanicsOnDuplicateName(t *testing.T) {
	acts := []*Action{New(descDone, nil), New(descDone, nil)}
	assert.Panics(t, func() {
		NewRegistry(observability.GetLogger(), acts)
	})
}

func TestPromptDescriptionCoversAllActions(t *testing.T) {
	h := newHarness()
	desc := h.registry.PromptDescription()
	for _, d := range Catalog() {
		assert.Contains(t, desc, "{"+d.Name+":")
	}
}

func TestDispatchModelOutput(t *testing.T) {
	t.Run("single populated action", func(t *testing.T) {
		h := newHarness()
		res, err := h.registry.DispatchModelOutput(context.Background(),
			`{"cache_content": {"content": "notes"}}`)
		require.NoError(t, err)
		assert.Contains(t, res.ExtractedContent, "notes")
	})

	t.Run("null fields are treated as unpopulated", func(t *testing.T) {
		h := newHarness()
		res, err := h.registry.DispatchModelOutput(context.Background(),
			`{"done": {"text": "finished"}, "click_element": null, "go_to_url": null}`)
		require.NoError(t, err)
		assert.True(t, res.IsDone)
	})

	t.Run("no populated action is rejected", func(t *testing.T) {
		h := newHarness()
		_, err := h.registry.DispatchModelOutput(context.Background(),
			`{"done": null, "go_back": null}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no action")
	})

	t.Run("multiple populated actions are rejected", func(t *testing.T) {
		h := newHarness()
		_, err := h.registry.DispatchModelOutput(context.Background(),
			`{"done": {"text": "x"}, "cache_content": {"content": "y"}}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one is required")
		// Neither action may have been executed.
		assert.Zero(t, h.log.Len())
	})

	t.Run("unknown action name is rejected", func(t *testing.T) {
		h := newHarness()
		_, err := h.registry.DispatchModelOutput(context.Background(),
			`{"self_destruct": {"countdown": 3}}`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownAction))
	})

	t.Run("markdown fenced response", func(t *testing.T) {
		h := newHarness()
		response := "Here is my choice:\n```json\n{\"cache_content\": {\"content\": \"fenced\"}}\n```"
		res, err := h.registry.DispatchModelOutput(context.Background(), response)
		require.NoError(t, err)
		assert.Contains(t, res.ExtractedContent, "fenced")
	})

	t.Run("near json is repaired", func(t *testing.T) {
		h := newHarness()
		// Trailing comma: invalid JSON that jsonrepair can fix.
		res, err := h.registry.DispatchModelOutput(context.Background(),
			`{"cache_content": {"content": "repaired"},}`)
		require.NoError(t, err)
		assert.Contains(t, res.ExtractedContent, "repaired")
	})

	t.Run("validation applies after selection", func(t *testing.T) {
		h := newHarness()
		h.browser.AssertNotCalled(t, "NavigateTo", mock.Anything, mock.Anything, mock.Anything)
		_, err := h.registry.DispatchModelOutput(context.Background(), `{"go_to_url": {}}`)
		require.Error(t, err)
		_, ok := AsInvalidInput(err)
		assert.True(t, ok)
	})
}
