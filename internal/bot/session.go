package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/callback-bot/internal/callbackdata"
	"gitlab.com/yelinaung/callback-bot/internal/logger"
	"gitlab.com/yelinaung/callback-bot/internal/models"
)

// SendMessage sends text with an optional keyboard whose buttons may carry
// any payload. The returned message has its payloads resolved again.
func (b *Bot) SendMessage(ctx context.Context, chatID any, text string, kb *models.InlineKeyboard) (*models.Message, error) {
	ctx, span := b.tracer.Start(ctx, "bot.SendMessage")
	defer span.End()

	params := &tgbot.SendMessageParams{ChatID: chatID, Text: text}
	markup, err := b.prepareKeyboard(kb)
	if err != nil {
		return nil, failSpan(span, err)
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	sent, err := b.api.SendMessage(ctx, params)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to send message: %w", err))
	}
	return b.resolveSent(sent)
}

// EditMessageText replaces the text and keyboard of a message.
func (b *Bot) EditMessageText(ctx context.Context, chatID any, messageID int, text string, kb *models.InlineKeyboard) (*models.Message, error) {
	ctx, span := b.tracer.Start(ctx, "bot.EditMessageText",
		trace.WithAttributes(attribute.Int("message_id", messageID)))
	defer span.End()

	params := &tgbot.EditMessageTextParams{ChatID: chatID, MessageID: messageID, Text: text}
	markup, err := b.prepareKeyboard(kb)
	if err != nil {
		return nil, failSpan(span, err)
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	edited, err := b.api.EditMessageText(ctx, params)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to edit message text: %w", err))
	}
	return b.resolveSent(edited)
}

// EditMessageReplyMarkup replaces only the keyboard of a message.
func (b *Bot) EditMessageReplyMarkup(ctx context.Context, chatID any, messageID int, kb *models.InlineKeyboard) (*models.Message, error) {
	ctx, span := b.tracer.Start(ctx, "bot.EditMessageReplyMarkup",
		trace.WithAttributes(attribute.Int("message_id", messageID)))
	defer span.End()

	params := &tgbot.EditMessageReplyMarkupParams{ChatID: chatID, MessageID: messageID}
	markup, err := b.prepareKeyboard(kb)
	if err != nil {
		return nil, failSpan(span, err)
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	edited, err := b.api.EditMessageReplyMarkup(ctx, params)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to edit reply markup: %w", err))
	}
	return b.resolveSent(edited)
}

// AnswerCallbackQuery acknowledges a button press.
func (b *Bot) AnswerCallbackQuery(ctx context.Context, q *models.CallbackQuery, text string, showAlert bool) error {
	_, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: q.ID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	if err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

func (b *Bot) prepareKeyboard(kb *models.InlineKeyboard) (*tgmodels.InlineKeyboardMarkup, error) {
	if kb == nil {
		return nil, nil
	}
	b.mu.Lock()
	processed := b.cache.ProcessKeyboard(kb)
	b.mu.Unlock()

	markup, err := processed.Markup()
	if err != nil {
		return nil, fmt.Errorf("failed to build reply markup: %w", err)
	}
	return markup, nil
}

func (b *Bot) resolveSent(sent *tgmodels.Message) (*models.Message, error) {
	msg, err := models.MessageFromTelegram(sent)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	b.mu.Lock()
	b.cache.ProcessMessage(msg)
	b.mu.Unlock()
	return msg, nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ResolveUpdate replaces every token in the update with its payload.
func (b *Bot) ResolveUpdate(u *models.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.ProcessCallbackQuery(u.CallbackQuery)
	if u.Message != nil {
		b.cache.ProcessMessage(u.Message)
	}
	if u.EditedMessage != nil {
		b.cache.ProcessMessage(u.EditedMessage)
	}
}

// Drop forgets the callback data behind a handled query.
func (b *Bot) Drop(q *models.CallbackQuery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cache.Drop(q)
}

// ClearStale removes keyboards not accessed within maxAge.
func (b *Bot) ClearStale(_ context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cache.ClearCallbackData(b.now().Add(-maxAge)), nil
}

// Stats reports how many keyboards and callback queries are cached.
func (b *Bot) Stats() (keyboards, queries int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cache.Len(), b.cache.QueryCount()
}

// Flush saves the cache to the snapshot store, if one is configured.
func (b *Bot) Flush(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	b.mu.Lock()
	snap := b.cache.Snapshot()
	b.mu.Unlock()

	if err := b.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to flush callback data: %w", err)
	}
	logger.Log.Debug().
		Int("keyboards", len(snap.Keyboards)).
		Int("queries", len(snap.Queries)).
		Msg("Flushed callback data")
	return nil
}

// Restore loads the stored snapshot into the cache, if a store is configured.
func (b *Bot) Restore(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	snap, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore callback data: %w", err)
	}

	b.mu.Lock()
	b.cache.Load(snap)
	keyboards, queries := b.cache.Len(), b.cache.QueryCount()
	b.mu.Unlock()

	logger.Log.Info().
		Int("keyboards", keyboards).
		Int("queries", queries).
		Msg("Restored callback data")
	return nil
}

// IsExpired reports whether a resolved payload could not be found.
func IsExpired(q *models.CallbackQuery) bool {
	return callbackdata.IsInvalid(q.Data)
}
