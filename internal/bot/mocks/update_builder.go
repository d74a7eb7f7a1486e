package mocks

import (
	"github.com/go-telegram/bot/models"
)

// testDate is a fixed send time. Telegram marks inaccessible messages with
// date 0, so accessible test messages need a real one.
const testDate = 1767225600

// UpdateBuilder assembles updates the way Telegram delivers them, with
// keyboards that come back carrying tokens instead of payloads.
type UpdateBuilder struct {
	update *models.Update
}

// NewUpdateBuilder creates a new UpdateBuilder.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{
		update: &models.Update{ID: 1},
	}
}

// WithMessage sets a user message on the update.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	b.update.Message = userMessage(1, chatID, userID, text)
	return b
}

// WithEditedMessage sets an edited user message on the update.
func (b *UpdateBuilder) WithEditedMessage(chatID, userID int64, text string) *UpdateBuilder {
	b.update.EditedMessage = userMessage(1, chatID, userID, text)
	return b
}

// WithReplyTo makes the message a reply to one the given author sent with
// markup attached.
func (b *UpdateBuilder) WithReplyTo(authorID int64, messageID int, markup *models.InlineKeyboardMarkup) *UpdateBuilder {
	if b.update.Message == nil {
		return b
	}
	b.update.Message.ReplyToMessage = authoredMessage(messageID, b.update.Message.Chat.ID, authorID, markup)
	return b
}

// WithCallbackQuery sets a callback query whose attached message has no
// keyboard yet. data is the raw callback_data string.
func (b *UpdateBuilder) WithCallbackQuery(queryID string, chatID, userID int64, messageID int, data string) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:   queryID,
		From: *tgUser(userID),
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{
				ID:   messageID,
				Date: testDate,
				Chat: privateChat(chatID),
			},
		},
		ChatInstance: "test-chat-instance",
		Data:         data,
	}
	return b
}

// WithCallbackKeyboard sets the author and keyboard of the message the
// callback query is attached to.
func (b *UpdateBuilder) WithCallbackKeyboard(authorID int64, markup *models.InlineKeyboardMarkup) *UpdateBuilder {
	q := b.update.CallbackQuery
	if q == nil || q.Message.Message == nil {
		return b
	}
	attached := q.Message.Message
	q.Message.Message = authoredMessage(attached.ID, attached.Chat.ID, authorID, markup)
	return b
}

// WithInaccessibleCallbackMessage replaces the attached message with one the
// bot can no longer read.
func (b *UpdateBuilder) WithInaccessibleCallbackMessage() *UpdateBuilder {
	q := b.update.CallbackQuery
	if q == nil || q.Message.Message == nil {
		return b
	}
	attached := q.Message.Message
	q.Message = models.MaybeInaccessibleMessage{
		InaccessibleMessage: &models.InaccessibleMessage{
			Chat:      attached.Chat,
			MessageID: attached.ID,
		},
	}
	return b
}

// Build returns the constructed Update.
func (b *UpdateBuilder) Build() *models.Update {
	return b.update
}

func tgUser(userID int64) *models.User {
	return &models.User{
		ID:        userID,
		FirstName: "Test",
		LastName:  "User",
		Username:  "testuser",
	}
}

func privateChat(chatID int64) models.Chat {
	return models.Chat{ID: chatID, Type: "private"}
}

func userMessage(messageID int, chatID, userID int64, text string) *models.Message {
	return &models.Message{
		ID:   messageID,
		Date: testDate,
		Chat: privateChat(chatID),
		From: tgUser(userID),
		Text: text,
	}
}

func authoredMessage(messageID int, chatID, authorID int64, markup *models.InlineKeyboardMarkup) *models.Message {
	msg := &models.Message{
		ID:   messageID,
		Date: testDate,
		Chat: privateChat(chatID),
		From: &models.User{ID: authorID, IsBot: true, FirstName: "Test Bot"},
	}
	if markup != nil {
		rm := *markup
		msg.ReplyMarkup = &rm
	}
	return msg
}

// MessageUpdate creates a simple message update.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().
		WithMessage(chatID, userID, text).
		Build()
}

// CommandUpdate creates a command message update.
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return MessageUpdate(chatID, userID, command)
}

// CallbackQueryUpdate creates a callback query update.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().
		WithCallbackQuery("callback-query-id", chatID, userID, messageID, data).
		Build()
}

// PressUpdate is the update Telegram sends when userID presses the button at
// row, col of a keyboard authorID sent as messageID.
func PressUpdate(queryID string, chatID, userID, authorID int64, messageID int, markup *models.InlineKeyboardMarkup, row, col int) *models.Update {
	return NewUpdateBuilder().
		WithCallbackQuery(queryID, chatID, userID, messageID, markup.InlineKeyboard[row][col].CallbackData).
		WithCallbackKeyboard(authorID, markup).
		Build()
}
