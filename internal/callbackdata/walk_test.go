package callbackdata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/callback-bot/internal/models"
)

const testBotID = int64(42)

// wireKeyboard processes payloads and returns the keyboard as it would come
// back from Telegram: every callback data field a Token.
func wireKeyboard(t *testing.T, c *Cache, payloads ...any) *models.InlineKeyboard {
	t.Helper()
	row := make([]*models.Button, 0, len(payloads))
	for _, p := range payloads {
		row = append(row, models.CallbackButton("btn", p))
	}
	markup, err := c.ProcessKeyboard(models.NewInlineKeyboard(row)).Markup()
	require.NoError(t, err)
	return models.KeyboardFromMarkup(markup)
}

func TestCache_ProcessMessage(t *testing.T) {
	t.Parallel()

	bot := &models.User{ID: testBotID, IsBot: true}
	stranger := &models.User{ID: 1000}

	t.Run("resolves keyboard sent by the bot", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		msg := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "a", 2)}

		c.ProcessMessage(msg)

		require.Equal(t, "a", msg.ReplyMarkup.Rows[0][0].CallbackData)
		require.Equal(t, 2, msg.ReplyMarkup.Rows[0][1].CallbackData)
	})

	t.Run("skips keyboard sent by someone else", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		kb := wireKeyboard(t, c, "a")
		token := kb.Rows[0][0].CallbackData
		msg := &models.Message{From: stranger, ReplyMarkup: kb}

		c.ProcessMessage(msg)

		require.Equal(t, token, msg.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("via bot wins over from", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		msg := &models.Message{From: stranger, ViaBot: bot, ReplyMarkup: wireKeyboard(t, c, "inline")}

		c.ProcessMessage(msg)

		require.Equal(t, "inline", msg.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("foreign via bot is skipped", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		kb := wireKeyboard(t, c, "x")
		msg := &models.Message{From: bot, ViaBot: &models.User{ID: 5, IsBot: true}, ReplyMarkup: kb}

		c.ProcessMessage(msg)

		require.IsType(t, models.Token(""), msg.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("unknown author resolves and marks unknown tokens", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		kb := wireKeyboard(t, c, "known")
		kb.Rows[0] = append(kb.Rows[0], &models.Button{Text: "foreign", CallbackData: models.Token("someone-else")})
		msg := &models.Message{ReplyMarkup: kb}

		c.ProcessMessage(msg)

		require.Equal(t, "known", kb.Rows[0][0].CallbackData)
		require.Equal(t, InvalidData{Raw: "someone-else"}, kb.Rows[0][1].CallbackData)
	})

	t.Run("unknown bot id treats every message as ours", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t)
		msg := &models.Message{From: stranger, ReplyMarkup: wireKeyboard(t, c, "a")}

		c.ProcessMessage(msg)

		require.Equal(t, "a", msg.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("walks reply and pinned messages", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		reply := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "reply")}
		pinned := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "pinned")}
		msg := &models.Message{
			From:           stranger,
			ReplyToMessage: reply,
			PinnedMessage:  models.WrapMessage(pinned),
		}

		c.ProcessMessage(msg)

		require.Equal(t, "reply", reply.ReplyMarkup.Rows[0][0].CallbackData)
		require.Equal(t, "pinned", pinned.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("inaccessible pinned message is a no-op", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		msg := &models.Message{
			From: bot,
			PinnedMessage: &models.MaybeInaccessibleMessage{
				Kind:         models.MessageKindInaccessible,
				Inaccessible: &models.InaccessibleMessage{MessageID: 3},
			},
		}
		require.NotPanics(t, func() { c.ProcessMessage(msg) })

		msg.PinnedMessage = &models.MaybeInaccessibleMessage{}
		require.NotPanics(t, func() { c.ProcessMessage(msg) })
	})

	t.Run("terminates on cycles", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		a := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "a")}
		b := &models.Message{From: bot, ReplyToMessage: a}
		a.ReplyToMessage = b
		a.PinnedMessage = models.WrapMessage(a)

		require.NotPanics(t, func() { c.ProcessMessage(a) })
		require.Equal(t, "a", a.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("depth is bounded", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		deep := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "deep")}
		chain := deep
		for range maxLinkDepth + 1 {
			chain = &models.Message{From: bot, ReplyToMessage: chain}
		}

		c.ProcessMessage(chain)

		require.IsType(t, models.Token(""), deep.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("only direct links are followed", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		grandparent := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "two hops")}
		parent := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "one hop"), ReplyToMessage: grandparent}
		msg := &models.Message{From: stranger, ReplyToMessage: parent}

		c.ProcessMessage(msg)

		require.Equal(t, "one hop", parent.ReplyMarkup.Rows[0][0].CallbackData)
		require.IsType(t, models.Token(""), grandparent.ReplyMarkup.Rows[0][0].CallbackData)
	})

	t.Run("processing twice is a no-op", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(t, WithBotID(testBotID))
		msg := &models.Message{From: bot, ReplyMarkup: wireKeyboard(t, c, "a")}

		c.ProcessMessage(msg)
		c.ProcessMessage(msg)

		require.Equal(t, "a", msg.ReplyMarkup.Rows[0][0].CallbackData)
	})
}
