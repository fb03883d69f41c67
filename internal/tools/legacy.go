package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/types"
)

// LegacyFunc is the older tool signature: a loosely-shaped map in, a map out.
type LegacyFunc func(params map[string]any, ec *types.ExecutionContext) (map[string]any, error)

// LegacyProvider serves LegacyFunc implementations.
type LegacyProvider struct {
	funcs map[string]LegacyFunc
}

// NewLegacyProvider wraps a set of legacy functions.
func NewLegacyProvider(funcs map[string]LegacyFunc) *LegacyProvider {
	copied := make(map[string]LegacyFunc, len(funcs))
	for k, v := range funcs {
		copied[k] = v
	}
	return &LegacyProvider{funcs: copied}
}

func (p *LegacyProvider) Name() string { return "legacy" }

func (p *LegacyProvider) Lookup(name string) (Tool, bool) {
	fn, ok := p.funcs[name]
	if !ok {
		return nil, false
	}
	return legacyTool{name: name, fn: fn}, true
}

// List returns the legacy tool names, sorted.
func (p *LegacyProvider) List() []string {
	names := make([]string, 0, len(p.funcs))
	for n := range p.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type legacyTool struct {
	name string
	fn   LegacyFunc
}

func (t legacyTool) Name() string { return t.name }

// Execute maps the legacy map result onto Output. A nil map is reported as
// a nil Output so the executor flags an invalid result.
func (t legacyTool) Execute(_ context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	raw, err := t.fn(params, ec)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	out := &Output{Success: true}
	if s, ok := raw["success"].(bool); ok {
		out.Success = s
	}
	if m, ok := raw["message"].(string); ok {
		out.Message = m
	}
	if data, ok := raw["data"].(map[string]any); ok {
		out.Data = data
	} else {
		out.Data = make(map[string]any, len(raw))
		for k, v := range raw {
			if k == "success" || k == "message" {
				continue
			}
			out.Data[k] = v
		}
	}
	return out, nil
}

// DefaultLegacyFuncs returns the legacy implementations kept for old catalogues.
func DefaultLegacyFuncs() map[string]LegacyFunc {
	return map[string]LegacyFunc{
		"get_current_time": legacyCurrentTime,
		"calculator":       legacyCalculator,
	}
}

func legacyCurrentTime(params map[string]any, _ *types.ExecutionContext) (map[string]any, error) {
	loc := time.Local
	if tz := stringParam(params, "timezone"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q", tz)
		}
		loc = l
	}
	now := time.Now().In(loc)
	return map[string]any{
		"message":  "Current time is " + now.Format(time.RFC1123),
		"time":     now.Format(time.RFC3339),
		"timezone": loc.String(),
	}, nil
}

func legacyCalculator(params map[string]any, _ *types.ExecutionContext) (map[string]any, error) {
	expr := stringParam(params, "expression")
	v, err := Evaluate(expr)
	if err != nil {
		return map[string]any{"success": false, "message": err.Error()}, nil
	}
	return map[string]any{"expression": expr, "result": v}, nil
}
