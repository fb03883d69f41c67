package agent

import (
	"github.com/ashutoshrp06/brainhands/internal/brain"
	"github.com/ashutoshrp06/brainhands/internal/types"
)

// SessionStats summarizes a conversation history.
type SessionStats struct {
	UserMessages   int      `json:"userMessages"`
	AIDecisions    int      `json:"aiDecisions"`
	ToolExecutions int      `json:"toolExecutions"`
	TotalEntries   int      `json:"totalEntries"`
	UniqueTools    []string `json:"uniqueTools"`
	IsTaskComplete bool     `json:"isTaskComplete"`
}

// UniqueToolCount returns the number of distinct tools the Brain chose.
func (s SessionStats) UniqueToolCount() int { return len(s.UniqueTools) }

// GetSessionStats aggregates history without modifying it.
func (e *Executor) GetSessionStats(history []types.ConversationEntry) SessionStats {
	return Stats(history, e.cfg.CompletionLookback)
}

// Stats aggregates history using the given completion lookback.
func Stats(history []types.ConversationEntry, lookback int) SessionStats {
	stats := SessionStats{UniqueTools: []string{}}
	seen := make(map[string]bool)

	for _, entry := range history {
		switch entry.Role {
		case types.RoleUser:
			stats.UserMessages++
		case types.RoleAI:
			stats.AIDecisions++
			if entry.Command != nil && !seen[entry.Command.ToolName] {
				seen[entry.Command.ToolName] = true
				stats.UniqueTools = append(stats.UniqueTools, entry.Command.ToolName)
			}
		case types.RoleTool:
			stats.ToolExecutions++
		}
	}

	stats.TotalEntries = stats.UserMessages + stats.AIDecisions + stats.ToolExecutions
	stats.IsTaskComplete = brain.IsTaskComplete(history, lookback)
	return stats
}
