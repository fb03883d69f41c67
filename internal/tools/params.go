package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func stringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// numberParam accepts JSON numbers, Go numerics and numeric strings.
func numberParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func failure(format string, args ...any) *Output {
	return &Output{Success: false, Message: fmt.Sprintf(format, args...)}
}
