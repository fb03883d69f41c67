package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendAndRead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.NewSession(ctx, "first chat")
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, id,
		models.LegacyMessage{Role: models.RoleUser, Text: "hi", Ts: 1, CharacterID: "nova"},
		models.LegacyMessage{Role: models.RoleModel, Text: "hello", Ts: 2, CharacterID: "nova"},
	))
	require.NoError(t, s.Append(ctx, id, models.LegacyMessage{Role: models.RoleModel, Text: "boom", Error: true}))

	msgs, err := s.Messages(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, models.LegacyMessage{Role: models.RoleUser, Text: "hi", Ts: 1, CharacterID: "nova"}, msgs[0])
	assert.Equal(t, "hello", msgs[1].Text)
	assert.True(t, msgs[2].Error)
	assert.NotZero(t, msgs[2].Ts)

	tail, err := s.Messages(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "hello", tail[0].Text)
	assert.Equal(t, "boom", tail[1].Text)
}

func TestStore_SessionsAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "implicit", models.LegacyMessage{Role: models.RoleUser, Text: "x"}))
	id, err := s.NewSession(ctx, "named")
	require.NoError(t, err)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	counts := map[string]int{}
	for _, sess := range sessions {
		counts[sess.ID] = sess.Messages
	}
	assert.Equal(t, 1, counts["implicit"])
	assert.Equal(t, 0, counts[id])

	require.NoError(t, s.Clear(ctx, "implicit"))
	msgs, err := s.Messages(ctx, "implicit", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
