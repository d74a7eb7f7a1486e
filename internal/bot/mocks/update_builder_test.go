package mocks

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func sampleMarkup() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "A", CallbackData: "abc:0"}, {Text: "B", CallbackData: "abc:1"}},
			{{Text: "Docs", URL: "https://example.com"}},
		},
	}
}

func TestUpdateBuilder_Messages(t *testing.T) {
	t.Parallel()

	t.Run("message", func(t *testing.T) {
		t.Parallel()

		update := NewUpdateBuilder().WithMessage(12345, 67890, "Hello").Build()

		require.NotNil(t, update.Message)
		require.Equal(t, int64(12345), update.Message.Chat.ID)
		require.Equal(t, int64(67890), update.Message.From.ID)
		require.Equal(t, "Hello", update.Message.Text)
		require.NotZero(t, update.Message.Date)
	})

	t.Run("edited message", func(t *testing.T) {
		t.Parallel()

		update := NewUpdateBuilder().WithEditedMessage(1, 2, "edited").Build()

		require.Nil(t, update.Message)
		require.Equal(t, "edited", update.EditedMessage.Text)
	})

	t.Run("reply to a keyboard", func(t *testing.T) {
		t.Parallel()

		update := NewUpdateBuilder().
			WithMessage(1, 2, "reply").
			WithReplyTo(99, 7, sampleMarkup()).
			Build()

		reply := update.Message.ReplyToMessage
		require.NotNil(t, reply)
		require.Equal(t, 7, reply.ID)
		require.Equal(t, int64(99), reply.From.ID)
		require.Equal(t, int64(1), reply.Chat.ID)
		require.Equal(t, "abc:1", reply.ReplyMarkup.InlineKeyboard[0][1].CallbackData)
	})

	t.Run("reply without a message is a no-op", func(t *testing.T) {
		t.Parallel()

		update := NewUpdateBuilder().WithReplyTo(99, 7, nil).Build()
		require.Nil(t, update.Message)
	})
}

func TestUpdateBuilder_WithCallbackQuery(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().
		WithCallbackQuery("callback-123", 100, 200, 50, "abc:0").
		Build()

	q := update.CallbackQuery
	require.NotNil(t, q)
	require.Equal(t, "callback-123", q.ID)
	require.Equal(t, int64(200), q.From.ID)
	require.Equal(t, "abc:0", q.Data)
	require.Equal(t, "test-chat-instance", q.ChatInstance)

	msg := q.Message.Message
	require.NotNil(t, msg)
	require.Equal(t, 50, msg.ID)
	require.Equal(t, int64(100), msg.Chat.ID)
	require.NotZero(t, msg.Date)
}

func TestUpdateBuilder_WithCallbackKeyboard(t *testing.T) {
	t.Parallel()

	t.Run("sets author and keyboard", func(t *testing.T) {
		t.Parallel()

		update := NewUpdateBuilder().
			WithCallbackQuery("cb-1", 1, 2, 3, "abc:0").
			WithCallbackKeyboard(99, sampleMarkup()).
			Build()

		msg := update.CallbackQuery.Message.Message
		require.Equal(t, 3, msg.ID)
		require.Equal(t, int64(99), msg.From.ID)
		require.True(t, msg.From.IsBot)
		require.Equal(t, "abc:0", msg.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("no callback query is a no-op", func(t *testing.T) {
		t.Parallel()

		update := NewUpdateBuilder().WithCallbackKeyboard(99, nil).Build()
		require.Nil(t, update.CallbackQuery)
	})
}

func TestUpdateBuilder_WithInaccessibleCallbackMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().
		WithCallbackQuery("cb-1", 1, 2, 3, "abc:0").
		WithInaccessibleCallbackMessage().
		Build()

	q := update.CallbackQuery
	require.Nil(t, q.Message.Message)
	require.NotNil(t, q.Message.InaccessibleMessage)
	require.Equal(t, 3, q.Message.InaccessibleMessage.MessageID)
	require.Equal(t, int64(1), q.Message.InaccessibleMessage.Chat.ID)
	require.Zero(t, q.Message.InaccessibleMessage.Date)
}

func TestCommandUpdate(t *testing.T) {
	t.Parallel()

	update := CommandUpdate(1, 2, "/menu")

	require.NotNil(t, update.Message)
	require.Equal(t, "/menu", update.Message.Text)
}

func TestCallbackQueryUpdate(t *testing.T) {
	t.Parallel()

	update := CallbackQueryUpdate(100, 200, 50, "abc:1")

	require.NotNil(t, update.CallbackQuery)
	require.Equal(t, "callback-query-id", update.CallbackQuery.ID)
	require.Equal(t, 50, update.CallbackQuery.Message.Message.ID)
	require.Equal(t, "abc:1", update.CallbackQuery.Data)
}

func TestPressUpdate(t *testing.T) {
	t.Parallel()

	update := PressUpdate("q-9", 100, 200, 99, 1000, sampleMarkup(), 0, 1)

	q := update.CallbackQuery
	require.Equal(t, "q-9", q.ID)
	require.Equal(t, "abc:1", q.Data)
	require.Equal(t, int64(99), q.Message.Message.From.ID)
	require.Equal(t, 1000, q.Message.Message.ID)
	require.Len(t, q.Message.Message.ReplyMarkup.InlineKeyboard, 2)
}
