package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTranscript struct {
	id   string
	msgs []models.LegacyMessage
	err  error
}

func (m *memTranscript) Append(_ context.Context, id string, msgs ...models.LegacyMessage) error {
	m.id = id
	m.msgs = append(m.msgs, msgs...)
	return m.err
}

func TestConversation_CarriesHistory(t *testing.T) {
	b := &scriptedBrain{script: []*types.StructuredCommand{answer("first"), answer("second")}}
	ex := newTestExecutor(t, b, &fakeHands{})
	tr := &memTranscript{}
	conv := NewConversation(ex, testContext(), tr)

	var states []types.AgentState
	res := conv.Turn(context.Background(), "hello", func(ev types.AgentEvent) { states = append(states, ev.State) })
	require.True(t, res.Success)
	assert.Equal(t, "first", res.Response)
	assert.Contains(t, states, types.StateResponding)

	res = conv.Turn(context.Background(), "again", nil)
	require.True(t, res.Success)
	assert.Equal(t, "second", res.Response)

	assert.Len(t, conv.History(), 6)
	assert.Len(t, b.requests[1].History, 4)
	assert.Equal(t, 2, conv.Stats().UserMessages)

	require.Len(t, tr.msgs, 4)
	assert.Equal(t, conv.ID(), tr.id)
	assert.Equal(t, models.RoleUser, tr.msgs[2].Role)
	assert.Equal(t, "second", tr.msgs[3].Text)
}

func TestConversation_ValidationKeepsHistory(t *testing.T) {
	b := &scriptedBrain{script: []*types.StructuredCommand{answer("ok")}}
	ex := newTestExecutor(t, b, &fakeHands{})
	conv := NewConversation(ex, testContext(), nil)

	conv.Turn(context.Background(), "hello", nil)
	res := conv.Turn(context.Background(), "   ", nil)

	assert.False(t, res.Success)
	assert.Equal(t, types.ErrorValidationFailed, res.Metadata.Error)
	assert.Len(t, conv.History(), 3)
}

func TestConversation_ResetAndTranscriptFailure(t *testing.T) {
	b := &scriptedBrain{script: []*types.StructuredCommand{answer("ok")}}
	ex := newTestExecutor(t, b, &fakeHands{})
	conv := NewConversation(ex, testContext(), &memTranscript{err: errors.New("disk full")})

	res := conv.Turn(context.Background(), "hello", nil)
	assert.True(t, res.Success)

	before := conv.ID()
	conv.Reset()
	assert.Empty(t, conv.History())
	assert.NotEqual(t, before, conv.ID())
}
