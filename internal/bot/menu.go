package bot

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/callback-bot/internal/callbackdata"
	"gitlab.com/yelinaung/callback-bot/internal/logger"
	"gitlab.com/yelinaung/callback-bot/internal/models"
)

const (
	menuCommand  = "/menu"
	menuPageSize = 3

	actionPage = "page"
	actionPick = "pick"

	expiredText = "This button has expired. Send /menu for a fresh one."
)

var menuItems = []string{
	"Apples", "Bananas", "Cherries", "Dates",
	"Elderberries", "Figs", "Grapes", "Honeydew",
}

// menuAction is the payload behind every demo menu button. It never leaves
// the bot: Telegram only sees a short token.
type menuAction struct {
	Kind string `json:"kind"`
	Page int    `json:"page"`
	Item string `json:"item,omitempty"`
}

func init() {
	callbackdata.RegisterPayload[menuAction]("bot.menuAction")
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	b.RegisterCommand("/start", handleStart)
	b.RegisterCommand("/help", handleStart)
	b.RegisterCommand(menuCommand, handleMenu)
	b.OnMessage(handleUnknown)
	b.OnCallback(handleMenuCallback)
}

func handleStart(ctx context.Context, b *Bot, msg *models.Message) {
	text := "Send /menu to open a paginated keyboard. Its buttons carry structured payloads kept on the bot side."
	if _, err := b.SendMessage(ctx, msg.Chat.ID, text, nil); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /start response")
	}
}

func handleUnknown(ctx context.Context, b *Bot, msg *models.Message) {
	if _, err := b.SendMessage(ctx, msg.Chat.ID, "I didn't understand that. Use /menu to try the demo keyboard.", nil); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}

func handleMenu(ctx context.Context, b *Bot, msg *models.Message) {
	if _, err := b.SendMessage(ctx, msg.Chat.ID, menuText(0), menuKeyboard(0)); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send menu")
	}
}

// handleMenuCallback answers a menu press. Paging edits the message to the
// next page and drops the keyboard the press came from.
func handleMenuCallback(ctx context.Context, b *Bot, q *models.CallbackQuery) {
	if IsExpired(q) {
		if err := b.AnswerCallbackQuery(ctx, q, expiredText, true); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to answer expired callback")
		}
		return
	}

	action, ok := asMenuAction(q.Data)
	if !ok {
		logger.Log.Warn().Str("payload", logger.DescribePayload(q.Data)).Msg("Unexpected callback payload")
		if err := b.AnswerCallbackQuery(ctx, q, "Unknown button.", false); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to answer callback")
		}
		return
	}

	switch action.Kind {
	case actionPick:
		if err := b.AnswerCallbackQuery(ctx, q, "You picked "+action.Item, false); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to answer callback")
		}
	case actionPage:
		if err := b.AnswerCallbackQuery(ctx, q, "", false); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to answer callback")
		}
		msg := q.AttachedMessage()
		if msg == nil {
			return
		}
		if _, err := b.EditMessageText(ctx, msg.Chat.ID, msg.ID, menuText(action.Page), menuKeyboard(action.Page)); err != nil {
			logger.Log.Error().Err(err).Int("message_id", msg.ID).Msg("Failed to edit menu")
			return
		}
		if err := b.Drop(q); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to drop callback data")
		}
	}
}

func asMenuAction(data any) (menuAction, bool) {
	action, ok := data.(menuAction)
	if !ok || action.Kind == "" {
		return menuAction{}, false
	}
	return action, true
}

func pageCount() int {
	return (len(menuItems) + menuPageSize - 1) / menuPageSize
}

func clampPage(page int) int {
	return max(0, min(page, pageCount()-1))
}

func pageItems(page int) []string {
	start := clampPage(page) * menuPageSize
	end := min(start+menuPageSize, len(menuItems))
	return menuItems[start:end]
}

func menuText(page int) string {
	page = clampPage(page)
	return fmt.Sprintf("Pick something (page %d of %d):\n%s",
		page+1, pageCount(), strings.Join(pageItems(page), ", "))
}

func menuKeyboard(page int) *models.InlineKeyboard {
	page = clampPage(page)
	kb := models.NewInlineKeyboard()
	for _, item := range pageItems(page) {
		kb.Rows = append(kb.Rows, models.Row(
			models.CallbackButton(item, menuAction{Kind: actionPick, Page: page, Item: item}),
		))
	}

	var nav []*models.Button
	if page > 0 {
		nav = append(nav, models.CallbackButton("« Prev", menuAction{Kind: actionPage, Page: page - 1}))
	}
	if page < pageCount()-1 {
		nav = append(nav, models.CallbackButton("Next »", menuAction{Kind: actionPage, Page: page + 1}))
	}
	if len(nav) > 0 {
		kb.Rows = append(kb.Rows, nav)
	}
	kb.Rows = append(kb.Rows, models.Row(models.URLButton("About inline keyboards", "https://core.telegram.org/bots/features#inline-keyboards")))
	return kb
}
