package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
)

func setupHistory(t *testing.T) *HistoryRepository {
	t.Helper()

	repo, backend, err := NewMemoryHistory()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func turn(speaker core.SpeakerType, text string) *core.ConversationTurn {
	return &core.ConversationTurn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC().Add(-time.Minute),
	}
}

func TestHistoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := setupHistory(t)

	err := repo.AppendTurns(ctx, "alice",
		turn(core.SpeakerTypeHuman, "Where did Michael work?"),
		turn(core.SpeakerTypeAI, "Michael worked at a robotics startup."),
	)
	require.NoError(t, err)

	turns, err := repo.GetTurns(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, core.SpeakerTypeHuman, turns[0].Speaker)
	assert.Equal(t, "Where did Michael work?", turns[0].Text)
	assert.Equal(t, core.SpeakerTypeAI, turns[1].Speaker)
	assert.Equal(t, "Michael worked at a robotics startup.", turns[1].Text)
}

func TestHistoryRepository_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := setupHistory(t)

	for i := 0; i < 25; i++ {
		err := repo.AppendTurns(ctx, "bob", turn(core.SpeakerTypeHuman, textForIndex(i)))
		require.NoError(t, err)
	}

	turns, err := repo.GetTurns(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, turns, 25)

	for i, tn := range turns {
		assert.Equal(t, textForIndex(i), tn.Text)
	}
}

func TestHistoryRepository_UsersIsolated(t *testing.T) {
	ctx := context.Background()
	repo := setupHistory(t)

	require.NoError(t, repo.AppendTurns(ctx, "alice", turn(core.SpeakerTypeHuman, "hi from alice")))
	require.NoError(t, repo.AppendTurns(ctx, "alicia", turn(core.SpeakerTypeHuman, "hi from alicia")))

	aliceTurns, err := repo.GetTurns(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceTurns, 1)
	assert.Equal(t, "hi from alice", aliceTurns[0].Text)

	aliciaTurns, err := repo.GetTurns(ctx, "alicia")
	require.NoError(t, err)
	require.Len(t, aliciaTurns, 1)
	assert.Equal(t, "hi from alicia", aliciaTurns[0].Text)
}

func TestHistoryRepository_UnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := setupHistory(t)

	turns, err := repo.GetTurns(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestHistoryRepository_EmptyUserID(t *testing.T) {
	ctx := context.Background()
	repo := setupHistory(t)

	err := repo.AppendTurns(ctx, "", turn(core.SpeakerTypeHuman, "hello"))
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = repo.GetTurns(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestHistoryRepository_RejectsInvalidTurn(t *testing.T) {
	ctx := context.Background()
	repo := setupHistory(t)

	err := repo.AppendTurns(ctx, "alice", &core.ConversationTurn{
		Speaker:   core.SpeakerTypeHuman,
		Text:      "",
		Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, core.ErrInvalidTurn)
}

func textForIndex(i int) string {
	return string(rune('a'+i%26)) + "-message"
}
