package bot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/callback-bot/internal/callbackdata"
	"gitlab.com/yelinaung/callback-bot/internal/models"
)

// memoryStore keeps the snapshot as JSON, like the database backends do.
type memoryStore struct {
	raw     []byte
	loadErr error
	saveErr error
	saves   int
}

func (s *memoryStore) Load(context.Context) (callbackdata.Snapshot, error) {
	if s.loadErr != nil {
		return callbackdata.Snapshot{}, s.loadErr
	}
	var snap callbackdata.Snapshot
	if s.raw == nil {
		return snap, nil
	}
	err := json.Unmarshal(s.raw, &snap)
	return snap, err
}

func (s *memoryStore) Save(_ context.Context, snap callbackdata.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.raw = raw
	s.saves++
	return nil
}

type order struct {
	ID int
}

func init() {
	callbackdata.RegisterPayload[order]("bot.testOrder")
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	t.Run("replaces payloads with short tokens", func(t *testing.T) {
		t.Parallel()
		b, mockBot := setupTestBot(t, nil)
		kb := models.NewInlineKeyboard(
			models.Row(models.CallbackButton("Order", order{ID: 1}), models.CallbackButton("Raw", models.Token("raw"))),
			models.Row(models.URLButton("Docs", "https://core.telegram.org")),
		)

		msg, err := b.SendMessage(context.Background(), testChatID, "orders", kb)
		require.NoError(t, err)

		wire := mockBot.LastSentMessage().ReplyMarkup.InlineKeyboard
		require.NotEqual(t, "", wire[0][0].CallbackData)
		require.LessOrEqual(t, len(wire[0][0].CallbackData), callbackdata.MaxCallbackDataLength)
		require.Equal(t, "raw", wire[0][1].CallbackData)
		require.Empty(t, wire[1][0].CallbackData)

		require.Equal(t, order{ID: 1}, msg.ReplyMarkup.Rows[0][0].CallbackData)
		require.Equal(t, 1, b.cache.Len())
		require.Equal(t, order{ID: 1}, kb.Rows[0][0].CallbackData)
	})

	t.Run("without keyboard", func(t *testing.T) {
		t.Parallel()
		b, mockBot := setupTestBot(t, nil)

		msg, err := b.SendMessage(context.Background(), testChatID, "plain", nil)
		require.NoError(t, err)
		require.Equal(t, "plain", msg.Text)
		require.Nil(t, mockBot.LastSentMessage().ReplyMarkup)
		require.Zero(t, b.cache.Len())
	})

	t.Run("send failure", func(t *testing.T) {
		t.Parallel()
		b, mockBot := setupTestBot(t, nil)
		mockBot.SendMessageError = errors.New("chat not found")

		_, err := b.SendMessage(context.Background(), testChatID, "x",
			models.NewInlineKeyboard(models.Row(models.CallbackButton("A", 1))))
		require.ErrorContains(t, err, "chat not found")
	})
}

func TestEditMessage(t *testing.T) {
	t.Parallel()

	t.Run("edit text rewrites keyboard", func(t *testing.T) {
		t.Parallel()
		b, mockBot := setupTestBot(t, nil)

		msg, err := b.EditMessageText(context.Background(), testChatID, 77, "page 2",
			models.NewInlineKeyboard(models.Row(models.CallbackButton("Back", order{ID: 2}))))
		require.NoError(t, err)

		edited := mockBot.LastEditedMessage()
		require.Equal(t, 77, edited.MessageID)
		require.True(t, strings.Contains(edited.ReplyMarkup.InlineKeyboard[0][0].CallbackData, ":"))
		require.Equal(t, order{ID: 2}, msg.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("edit reply markup", func(t *testing.T) {
		t.Parallel()
		b, mockBot := setupTestBot(t, nil)

		msg, err := b.EditMessageReplyMarkup(context.Background(), testChatID, 78,
			models.NewInlineKeyboard(models.Row(models.CallbackButton("Go", []any{"a", 1}))))
		require.NoError(t, err)
		require.Equal(t, 78, mockBot.LastEditedMessage().MessageID)
		require.Equal(t, []any{"a", 1}, msg.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("edit failure", func(t *testing.T) {
		t.Parallel()
		b, mockBot := setupTestBot(t, nil)
		mockBot.EditMessageError = errors.New("message is not modified")

		_, err := b.EditMessageText(context.Background(), testChatID, 1, "x", nil)
		require.Error(t, err)
		_, err = b.EditMessageReplyMarkup(context.Background(), testChatID, 1, nil)
		require.Error(t, err)
	})
}

func TestDrop(t *testing.T) {
	t.Parallel()

	b, mockBot := setupTestBot(t, nil)
	_, err := b.SendMessage(context.Background(), testChatID, "x",
		models.NewInlineKeyboard(models.Row(models.CallbackButton("A", order{ID: 3}))))
	require.NoError(t, err)

	var got *models.CallbackQuery
	b.OnCallback(func(_ context.Context, _ *Bot, q *models.CallbackQuery) { got = q })
	b.handleUpdate(context.Background(), pressUpdate(t, mockBot, "cb-drop", 0, 0))
	require.NotNil(t, got)

	require.NoError(t, b.Drop(got))
	keyboards, queries := b.Stats()
	require.Zero(t, keyboards)
	require.Zero(t, queries)

	require.ErrorIs(t, b.Drop(got), callbackdata.ErrQueryNotFound)
}

func TestClearStale(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	b.cache.Load(callbackdata.Snapshot{Keyboards: []callbackdata.KeyboardRecord{
		{UUID: "old", AccessTime: now.Add(-72 * time.Hour), ButtonData: map[string]any{"0": 1}},
		{UUID: "new", AccessTime: now.Add(-time.Hour), ButtonData: map[string]any{"0": 2}},
	}})

	removed, err := b.ClearStale(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	removed, err = b.ClearStale(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, removed)

	keyboards, _ := b.Stats()
	require.Equal(t, 1, keyboards)
}

func TestFlushRestore(t *testing.T) {
	t.Parallel()

	t.Run("survives a restart", func(t *testing.T) {
		t.Parallel()
		store := &memoryStore{}
		b, mockBot := setupTestBot(t, store)
		_, err := b.SendMessage(context.Background(), testChatID, "x",
			models.NewInlineKeyboard(models.Row(models.CallbackButton("A", order{ID: 7}))))
		require.NoError(t, err)
		require.NoError(t, b.Flush(context.Background()))
		require.Equal(t, 1, store.saves)

		restarted, _ := setupTestBot(t, store)
		require.NoError(t, restarted.Restore(context.Background()))

		var got *models.CallbackQuery
		restarted.OnCallback(func(_ context.Context, _ *Bot, q *models.CallbackQuery) { got = q })
		restarted.handleUpdate(context.Background(), pressUpdate(t, mockBot, "cb-restart", 0, 0))

		require.NotNil(t, got)
		require.Equal(t, order{ID: 7}, got.Data)
	})

	t.Run("no store is a no-op", func(t *testing.T) {
		t.Parallel()
		b, _ := setupTestBot(t, nil)
		require.NoError(t, b.Flush(context.Background()))
		require.NoError(t, b.Restore(context.Background()))
	})

	t.Run("store failures are wrapped", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		b, _ := setupTestBot(t, &memoryStore{loadErr: boom, saveErr: boom})

		require.ErrorIs(t, b.Flush(context.Background()), boom)
		require.ErrorIs(t, b.Restore(context.Background()), boom)
	})
}

func TestStartScheduler(t *testing.T) {
	t.Parallel()

	t.Run("registers enabled jobs", func(t *testing.T) {
		t.Parallel()
		b, _ := setupTestBot(t, &memoryStore{})
		b.cfg.CallbackDataMaxAge = time.Hour

		scheduler, err := b.startScheduler()
		require.NoError(t, err)
		defer scheduler.Stop()
		require.Equal(t, []string{"callback-data-cleanup", "callback-data-flush"}, scheduler.Jobs())
	})

	t.Run("no jobs without store or max age", func(t *testing.T) {
		t.Parallel()
		b, _ := setupTestBot(t, nil)

		scheduler, err := b.startScheduler()
		require.NoError(t, err)
		defer scheduler.Stop()
		require.Empty(t, scheduler.Jobs())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		t.Parallel()
		b, _ := setupTestBot(t, &memoryStore{})
		b.cfg.PersistSchedule = "every minute"

		_, err := b.startScheduler()
		require.Error(t, err)
	})
}
