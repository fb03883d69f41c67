package agent

import (
	"context"
	"sync"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transcript persists the user-visible side of a conversation.
type Transcript interface {
	Append(ctx context.Context, sessionID string, msgs ...models.LegacyMessage) error
}

// Conversation carries history across turns so each request continues the
// previous one.
type Conversation struct {
	exec       *Executor
	ec         *types.ExecutionContext
	transcript Transcript
	logger     *zap.Logger

	mu      sync.Mutex
	id      string
	history []types.ConversationEntry
}

// NewConversation starts an empty conversation. transcript may be nil.
func NewConversation(exec *Executor, ec *types.ExecutionContext, transcript Transcript) *Conversation {
	return &Conversation{
		exec:       exec,
		ec:         ec,
		transcript: transcript,
		logger:     exec.logger,
		id:         uuid.NewString(),
	}
}

// ID identifies the conversation in the transcript store.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Turn runs one user request on top of the accumulated history. Turns are
// serialized.
func (c *Conversation) Turn(ctx context.Context, input string, observe Observer) types.SessionResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.exec.ExecuteAgentRequest(ctx, Request{
		UserInput:           input,
		ConversationHistory: c.history,
		Context:             c.ec,
		Observer:            observe,
	})
	if res.Metadata.Error != types.ErrorValidationFailed {
		c.history = res.ConversationHistory
	}

	if c.transcript != nil {
		now := types.NowMillis()
		err := c.transcript.Append(ctx, c.id,
			models.LegacyMessage{Role: models.RoleUser, Text: input, Ts: now},
			models.LegacyMessage{Role: models.RoleModel, Text: res.Response, Ts: types.NowMillis(), Error: !res.Success},
		)
		if err != nil {
			c.logger.Warn("Failed to persist transcript", zap.String("conversation", c.id), zap.Error(err))
		}
	}
	return res
}

// History returns a copy of the accumulated entries.
func (c *Conversation) History() []types.ConversationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ConversationEntry, len(c.history))
	copy(out, c.history)
	return out
}

// Stats summarizes the accumulated history.
func (c *Conversation) Stats() SessionStats {
	return c.exec.GetSessionStats(c.History())
}

// Reset drops the history and starts a new transcript session.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	c.id = uuid.NewString()
}
