package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"done": {"text": "finished"}}`,
			want:     `{"done": {"text": "finished"}}`,
		},
		{
			name:     "fenced with language tag",
			response: "```json\n{\"click_element\": {\"index\": 3}}\n```",
			want:     `{"click_element": {"index": 3}}`,
		},
		{
			name:     "fenced without language tag",
			response: "```\n{\"go_back\": {}}\n```",
			want:     `{"go_back": {}}`,
		},
		{
			name:     "object embedded in prose",
			response: `Sure, here is the action: {"scroll_down": {"amount": 500}} Let me know.`,
			want:     `{"scroll_down": {"amount": 500}}`,
		},
		{
			name:     "leading and trailing whitespace",
			response: "\n\n  {\"send_keys\": {\"keys\": \"Enter\"}}  \n",
			want:     `{"send_keys": {"keys": "Enter"}}`,
		},
		{
			name:     "no object at all",
			response: "I cannot decide on an action.",
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.response)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, got)
		})
	}
}

func TestExtractJSONObjectRepairsNearJSON(t *testing.T) {
	t.Run("trailing comma", func(t *testing.T) {
		got, err := ExtractJSONObject(`{"open_tab": {"url": "https://example.com"},}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"open_tab": {"url": "https://example.com"}}`, got)
	})

	t.Run("single quotes", func(t *testing.T) {
		got, err := ExtractJSONObject(`{'done': {'text': 'ok'}}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"done": {"text": "ok"}}`, got)
	})
}

func TestParseJSONResponse(t *testing.T) {
	type decision struct {
		Action    string `json:"action"`
		Reasoning string `json:"reasoning"`
	}

	t.Run("fenced response", func(t *testing.T) {
		response := "```json\n{\"action\": \"click\", \"reasoning\": \"submit button\"}\n```"
		got, err := ParseJSONResponse[decision](response)
		require.NoError(t, err)
		assert.Equal(t, "click", got.Action)
		assert.Equal(t, "submit button", got.Reasoning)
	})

	t.Run("unmarshalable shape", func(t *testing.T) {
		_, err := ParseJSONResponse[decision](`{"action": 42}`)
		assert.Error(t, err)
	})

	t.Run("unextractable input", func(t *testing.T) {
		_, err := ParseJSONResponse[decision]("no json here")
		assert.Error(t, err)
	})
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))
}
