package agent

import (
	"github.com/ashutoshrp06/brainhands/internal/types"
)

// safetyMonitor tracks the signals that end a session early. It belongs to
// a single session and is not safe for concurrent use.
type safetyMonitor struct {
	window    int
	threshold int

	recent              []string
	consecutiveFailures int
	previousErrors      []string
	toolsUsed           []string
	seen                map[string]bool
}

func newSafetyMonitor(window, threshold int) *safetyMonitor {
	return &safetyMonitor{
		window:    window,
		threshold: threshold,
		seen:      make(map[string]bool),
	}
}

// record folds one Brain/Hands round into the counters.
func (m *safetyMonitor) record(cmd *types.StructuredCommand, result types.ToolResult) {
	name := cmd.ToolName
	m.recent = append(m.recent, name)
	if len(m.recent) > m.window {
		m.recent = m.recent[len(m.recent)-m.window:]
	}

	if !m.seen[name] {
		m.seen[name] = true
		m.toolsUsed = append(m.toolsUsed, name)
	}

	if result.Success {
		m.consecutiveFailures = 0
		return
	}
	m.consecutiveFailures++
	m.previousErrors = append(m.previousErrors, name+": "+result.Message)
	if len(m.previousErrors) > m.threshold {
		m.previousErrors = m.previousErrors[len(m.previousErrors)-m.threshold:]
	}
}

// check returns the trigger that fired, if any, and the tool pattern that
// caused an infinite_loop trigger.
func (m *safetyMonitor) check() (string, []string) {
	if pattern, ok := detectLoop(m.recent, m.window); ok {
		return types.TriggerInfiniteLoop, pattern
	}
	if m.consecutiveFailures >= m.threshold {
		return types.TriggerConsecutiveFailures, nil
	}
	return "", nil
}

// detectLoop looks at the last window names for a period-1 (A,A,A) or a
// period-2 (A,B,A) pattern.
func detectLoop(names []string, window int) ([]string, bool) {
	if window < 2 || len(names) < window {
		return nil, false
	}
	last := names[len(names)-window:]

	same := true
	for _, n := range last[1:] {
		if n != last[0] {
			same = false
			break
		}
	}
	if same {
		return []string{last[0]}, true
	}

	if last[0] == last[1] {
		return nil, false
	}
	for i := 2; i < len(last); i++ {
		if last[i] != last[i-2] {
			return nil, false
		}
	}
	return []string{last[0], last[1]}, true
}

func (m *safetyMonitor) errors() []string {
	return append([]string(nil), m.previousErrors...)
}

func (m *safetyMonitor) tools() []string {
	return append([]string(nil), m.toolsUsed...)
}
