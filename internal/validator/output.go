package validator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/pkg/models"
)

// codeFence matches a ``` block and captures its language tag and body.
var codeFence = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \\t]*\\n?(.*?)```")

// DecodeStatus tags the outcome of decoding a model reply.
type DecodeStatus int

const (
	Unparseable DecodeStatus = iota
	Parsed
)

// Decoded is the result of DecodeCommand.
type Decoded struct {
	Status  DecodeStatus
	Command *types.StructuredCommand
	Reason  string
}

// OK reports whether a command was decoded.
func (d Decoded) OK() bool { return d.Status == Parsed && d.Command != nil }

// DecodeCommand extracts a single StructuredCommand from a model reply that
// is either raw JSON or JSON inside a code fence. It never fails: anything
// that is not a command is reported as Unparseable.
func DecodeCommand(raw string) Decoded {
	body, ok := ExtractJSON(raw)
	if !ok {
		return Decoded{Status: Unparseable, Reason: "no JSON object in reply"}
	}

	var payload struct {
		ToolName   *string        `json:"tool_name"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Decoded{Status: Unparseable, Reason: "invalid JSON: " + err.Error()}
	}
	if payload.ToolName == nil || strings.TrimSpace(*payload.ToolName) == "" {
		return Decoded{Status: Unparseable, Reason: "missing tool_name"}
	}
	if payload.Parameters == nil {
		return Decoded{Status: Unparseable, Reason: "missing parameters object"}
	}

	return Decoded{
		Status: Parsed,
		Command: &types.StructuredCommand{
			ToolName:   strings.TrimSpace(*payload.ToolName),
			Parameters: payload.Parameters,
		},
	}
}

// DecodeLegacyToolCalls looks for a {"tools-required": [...]} block in a
// legacy model reply. It returns false when the reply is plain text.
func DecodeLegacyToolCalls(raw string) (models.ToolCallsRequired, bool) {
	body, ok := ExtractJSON(raw)
	if !ok || !strings.Contains(body, "tools-required") {
		return models.ToolCallsRequired{}, false
	}

	var calls models.ToolCallsRequired
	if err := json.Unmarshal([]byte(body), &calls); err != nil {
		return models.ToolCallsRequired{}, false
	}

	valid := calls.ToolsRequired[:0]
	for _, c := range calls.ToolsRequired {
		if strings.TrimSpace(c.ToolName) == "" {
			continue
		}
		if c.Parameters == nil {
			c.Parameters = map[string]any{}
		}
		valid = append(valid, c)
	}
	calls.ToolsRequired = valid
	return calls, len(valid) > 0
}

// ExtractJSON returns the first JSON object embedded in raw. Fenced blocks
// are tried first, json-tagged ones before the rest, then the whole reply.
// Text after the object is ignored.
func ExtractJSON(raw string) (string, bool) {
	for _, candidate := range jsonCandidates(raw) {
		if obj, ok := firstObject(candidate); ok {
			return obj, true
		}
	}
	return "", false
}

func jsonCandidates(raw string) []string {
	matches := codeFence.FindAllStringSubmatch(raw, -1)
	candidates := make([]string, 0, len(matches)+1)
	for _, m := range matches {
		if strings.EqualFold(m[1], "json") {
			candidates = append(candidates, m[2])
		}
	}
	for _, m := range matches {
		if !strings.EqualFold(m[1], "json") {
			candidates = append(candidates, m[2])
		}
	}
	return append(candidates, raw)
}

// firstObject decodes one JSON object starting at each '{' in turn and
// returns the first that decodes cleanly.
func firstObject(text string) (string, bool) {
	for offset := 0; offset < len(text); {
		i := strings.IndexByte(text[offset:], '{')
		if i < 0 {
			return "", false
		}
		start := offset + i

		var obj json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err == nil {
			return string(obj), true
		}
		offset = start + 1
	}
	return "", false
}
