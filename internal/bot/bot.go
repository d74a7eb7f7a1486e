// Package bot runs the Telegram session: outbound keyboards are rewritten
// through the callback data cache and inbound updates are resolved before
// any handler sees them.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/callback-bot/internal/callbackdata"
	"gitlab.com/yelinaung/callback-bot/internal/config"
	"gitlab.com/yelinaung/callback-bot/internal/cron"
	"gitlab.com/yelinaung/callback-bot/internal/logger"
	"gitlab.com/yelinaung/callback-bot/internal/models"
)

const (
	tracerName   = "gitlab.com/yelinaung/callback-bot/internal/bot"
	pollTimeout  = time.Minute
	flushTimeout = 10 * time.Second
)

// SnapshotStore persists the callback data cache between restarts.
type SnapshotStore interface {
	Load(ctx context.Context) (callbackdata.Snapshot, error)
	Save(ctx context.Context, snap callbackdata.Snapshot) error
}

// CallbackHandler handles a resolved callback query. q.Data holds the
// original payload or a callbackdata.InvalidData.
type CallbackHandler func(ctx context.Context, b *Bot, q *models.CallbackQuery)

// MessageHandler handles a resolved message.
type MessageHandler func(ctx context.Context, b *Bot, msg *models.Message)

// Bot wraps the Telegram bot with the callback data cache.
type Bot struct {
	bot    *tgbot.Bot
	api    TelegramAPI
	cfg    *config.Config
	store  SnapshotStore
	tracer trace.Tracer
	now    func() time.Time

	// mu serializes every cache call; go-telegram runs handlers concurrently.
	mu    sync.Mutex
	cache *callbackdata.Cache

	commands        map[string]MessageHandler
	messageHandler  MessageHandler
	callbackHandler CallbackHandler
}

var (
	_ cron.StaleClearer = (*Bot)(nil)
	_ cron.Flusher      = (*Bot)(nil)
)

// New creates a new Bot instance. store may be nil to disable persistence.
func New(cfg *config.Config, store SnapshotStore) (*Bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	b, err := newBot(cfg, nil, store)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   pollTimeout + 10*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(b.defaultHandler),
		tgbot.WithHTTPClient(pollTimeout, httpClient),
	}

	telegramBot, err := tgbot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.api = telegramBot
	return b, nil
}

// newBot wires everything except the go-telegram client, so tests can pass
// a mock API.
func newBot(cfg *config.Config, api TelegramAPI, store SnapshotStore) (*Bot, error) {
	maxSize := cfg.CacheMaxSize
	if maxSize == 0 {
		maxSize = callbackdata.DefaultMaxSize
	}
	cache, err := callbackdata.New(callbackdata.WithMaxSize(maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create callback data cache: %w", err)
	}

	b := &Bot{
		api:      api,
		cfg:      cfg,
		store:    store,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		cache:    cache,
		commands: make(map[string]MessageHandler),
	}
	b.registerHandlers()
	return b, nil
}

// RegisterCommand routes messages starting with command to h.
func (b *Bot) RegisterCommand(command string, h MessageHandler) {
	b.commands[command] = h
}

// OnMessage sets the handler for messages that match no command.
func (b *Bot) OnMessage(h MessageHandler) { b.messageHandler = h }

// OnCallback sets the handler for callback queries.
func (b *Bot) OnCallback(h CallbackHandler) { b.callbackHandler = h }

// Start identifies the bot, restores persisted callback data and polls for
// updates until ctx is done. Callback data is flushed on the way out.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.Identify(ctx); err != nil {
		return err
	}
	if err := b.Restore(ctx); err != nil {
		return err
	}

	scheduler, err := b.startScheduler()
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := b.Flush(flushCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to flush callback data on shutdown")
	}
	return nil
}

// Identify asks Telegram who the bot is, so keyboards on other bots'
// messages are left alone.
func (b *Bot) Identify(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot identity: %w", err)
	}

	b.mu.Lock()
	b.cache.SetBotID(me.ID)
	b.mu.Unlock()

	logger.Log.Info().
		Int64("bot_id", me.ID).
		Str("username", me.Username).
		Msg("Bot identified")
	return nil
}

func (b *Bot) startScheduler() (*cron.Scheduler, error) {
	scheduler := cron.NewScheduler()
	if b.cfg.CleanupEnabled() {
		if err := scheduler.RegisterJob(&cron.CleanupJob{
			Clearer:      b,
			MaxAge:       b.cfg.CallbackDataMaxAge,
			ScheduleExpr: b.cfg.CleanupSchedule,
		}); err != nil {
			return nil, err
		}
	}
	if b.store != nil {
		if err := scheduler.RegisterJob(&cron.FlushJob{
			Flusher:      b,
			ScheduleExpr: b.cfg.PersistSchedule,
		}); err != nil {
			return nil, err
		}
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return scheduler, nil
}

// defaultHandler receives every update go-telegram does not route elsewhere.
func (b *Bot) defaultHandler(ctx context.Context, _ *tgbot.Bot, update *tgmodels.Update) {
	b.handleUpdate(ctx, update)
}

// handleUpdate is the testable implementation of defaultHandler.
func (b *Bot) handleUpdate(ctx context.Context, update *tgmodels.Update) {
	u, err := models.UpdateFromTelegram(update)
	if err != nil {
		logger.Log.Error().Err(err).Int64("update_id", update.ID).Msg("Failed to convert update")
		return
	}

	b.ResolveUpdate(u)
	logUpdate(u)

	switch {
	case u.CallbackQuery != nil:
		if b.callbackHandler != nil {
			b.callbackHandler(ctx, b, u.CallbackQuery)
		}
	case u.Message != nil:
		b.dispatchMessage(ctx, u.Message)
	case u.EditedMessage != nil:
		logger.Log.Debug().Int("message_id", u.EditedMessage.ID).Msg("Ignoring edited message")
	}
}

func (b *Bot) dispatchMessage(ctx context.Context, msg *models.Message) {
	if command := commandOf(msg.Text); command != "" {
		if h, ok := b.commands[command]; ok {
			h(ctx, b, msg)
			return
		}
	}
	if b.messageHandler != nil {
		b.messageHandler(ctx, b, msg)
	}
}

// commandOf returns the leading /command of a message, without any
// @botname suffix.
func commandOf(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	command, _, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")
	return command
}

// logUpdate logs the user's input.
func logUpdate(u *models.Update) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(q.From.ID)).
			Str("payload", logger.DescribePayload(q.Data)).
			Bool("invalid", callbackdata.IsInvalid(q.Data)).
			Msg("Callback query")
	case u.Message != nil:
		event := logger.Log.Info().Str("chat_hash", logger.HashChatID(u.Message.Chat.ID))
		if from := u.Message.From; from != nil {
			event = event.Str("user_hash", logger.HashUserID(from.ID))
		}
		event.Int("text_len", len(u.Message.Text)).Msg("User input")
	}
}
