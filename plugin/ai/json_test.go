package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "plain", input: `{"intent":"search"}`, want: `{"intent":"search"}`, wantOK: true},
		{name: "fenced", input: "```json\n{\"intent\": \"order\"}\n```", want: `{"intent": "order"}`, wantOK: true},
		{name: "prefixed", input: `Sure! Here is the JSON: {"a": 1} hope that helps`, want: `{"a": 1}`, wantOK: true},
		{name: "nested", input: `x {"a": {"b": [1, 2]}, "c": "}"} y`, want: `{"a": {"b": [1, 2]}, "c": "}"}`, wantOK: true},
		{name: "escaped quote", input: `{"q": "say \"hi\" {"}`, want: `{"q": "say \"hi\" {"}`, wantOK: true},
		{name: "skips invalid first object", input: `{oops} {"ok": true}`, want: `{"ok": true}`, wantOK: true},
		{name: "none", input: "no json here", wantOK: false},
		{name: "unbalanced", input: `{"a": 1`, wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	require.NoError(t, DecodeJSON("```\n{\"intent\":\"availability\"}\n```", &out))
	assert.Equal(t, "availability", out.Intent)

	assert.ErrorIs(t, DecodeJSON("nothing", &out), ErrNoJSON)
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", TruncateForLog("short", 10))
	assert.Equal(t, "abc...", TruncateForLog("abcdef", 3))
	assert.Equal(t, "₹₹...", TruncateForLog("₹₹₹₹", 2))
}
