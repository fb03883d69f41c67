package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantOK   bool
		wantTool string
	}{
		{"raw json", `{"tool_name":"answerUser","parameters":{"answer":"hi"}}`, true, "answerUser"},
		{"fenced json", "Sure!\n```json\n{\"tool_name\": \"search_web\", \"parameters\": {\"query\": \"go\"}}\n```", true, "search_web"},
		{"bare fence", "```\n{\"tool_name\":\"clarify\",\"parameters\":{\"question\":\"?\"}}\n```", true, "clarify"},
		{"prose around json", `I will search. {"tool_name":"search_web","parameters":{}} done`, true, "search_web"},
		{"prose with braces after json", `{"tool_name":"answerUser","parameters":{"answer":"ok"}} (note: I used {braces})`, true, "answerUser"},
		{"text fence before json fence", "Plan:\n```text\nlook it up {first}\n```\nThen:\n```json\n{\"tool_name\":\"search_web\",\"parameters\":{\"query\":\"go\"}}\n```", true, "search_web"},
		{"json fence preferred", "```\n{\"tool_name\":\"clarify\",\"parameters\":{}}\n```\n```json\n{\"tool_name\":\"calculator\",\"parameters\":{}}\n```", true, "calculator"},
		{"stray brace before json", `Using {calculator}: {"tool_name":"calculator","parameters":{"expression":"1+1"}}`, true, "calculator"},
		{"plain text", "Hello there, how can I help?", false, ""},
		{"broken json", `{"tool_name": "x", "parameters": {`, false, ""},
		{"missing tool name", `{"parameters":{"a":1}}`, false, ""},
		{"missing parameters", `{"tool_name":"calculator"}`, false, ""},
		{"parameters not object", `{"tool_name":"calculator","parameters":"2+2"}`, false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecodeCommand(tt.raw)
			assert.Equal(t, tt.wantOK, d.OK(), d.Reason)
			if tt.wantOK {
				require.NotNil(t, d.Command)
				assert.Equal(t, tt.wantTool, d.Command.ToolName)
				assert.NotNil(t, d.Command.Parameters)
			} else {
				assert.Equal(t, Unparseable, d.Status)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestDecodeLegacyToolCalls(t *testing.T) {
	raw := "```json\n{\"tools-required\":[{\"tool_name\":\"calculator\",\"parameters\":{\"expression\":\"2+2\"}},{\"tool_name\":\"\"},{\"tool_name\":\"get_current_time\"}]}\n```"
	calls, ok := DecodeLegacyToolCalls(raw)
	require.True(t, ok)
	require.Len(t, calls.ToolsRequired, 2)
	assert.Equal(t, "calculator", calls.ToolsRequired[0].ToolName)
	assert.Equal(t, map[string]any{"expression": "2+2"}, calls.ToolsRequired[0].Parameters)
	assert.Equal(t, map[string]any{}, calls.ToolsRequired[1].Parameters)

	_, ok = DecodeLegacyToolCalls("The answer is 4.")
	assert.False(t, ok)

	_, ok = DecodeLegacyToolCalls(`{"tools-required": []}`)
	assert.False(t, ok)
}

func TestInputValidator(t *testing.T) {
	v := NewInputValidator()

	assert.NoError(t, v.Validate("hi"))
	assert.Error(t, v.Validate("   "))
	assert.Error(t, v.Validate(strings.Repeat("a", 8001)))
	assert.Error(t, v.Validate("bad \xff utf8"))

	assert.Equal(t, "a b\nc", v.Sanitize("  a \t b\nc  "))
}
