package agent

import (
	"testing"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDetectLoop(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		want    []string
		wantHit bool
	}{
		{"too short", []string{"a", "a"}, nil, false},
		{"period one", []string{"a", "a", "a"}, []string{"a"}, true},
		{"period two", []string{"a", "b", "a"}, []string{"a", "b"}, true},
		{"distinct", []string{"a", "b", "c"}, nil, false},
		{"pair then other", []string{"a", "a", "b"}, nil, false},
		{"only the tail counts", []string{"x", "y", "a", "b", "c"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := detectLoop(tt.names, 3)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectLoop_WiderWindow(t *testing.T) {
	_, hit := detectLoop([]string{"a", "b", "a", "b"}, 4)
	assert.True(t, hit)

	_, hit = detectLoop([]string{"a", "b", "a", "c"}, 4)
	assert.False(t, hit)
}

func TestSafetyMonitor_FailureCounterResets(t *testing.T) {
	m := newSafetyMonitor(3, 3)
	ok := types.ToolResult{Success: true}
	bad := types.ToolResult{Success: false, Message: "boom"}

	m.record(command("a", nil), bad)
	m.record(command("b", nil), bad)
	m.record(command("c", nil), ok)
	m.record(command("d", nil), bad)

	trigger, _ := m.check()
	assert.Empty(t, trigger)
	assert.Equal(t, 1, m.consecutiveFailures)

	m.record(command("e", nil), bad)
	m.record(command("f", nil), bad)
	trigger, _ = m.check()
	assert.Equal(t, types.TriggerConsecutiveFailures, trigger)
	assert.Equal(t, []string{"d: boom", "e: boom", "f: boom"}, m.errors())
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, m.tools())
}
