package models

import (
	"encoding/json"
	"fmt"
)

// User represents a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// Message is the subset of a Telegram message the callback data cache works
// with: authorship, the inline keyboard, and the linked reply/pinned messages.
type Message struct {
	ID             int                       `json:"message_id"`
	Date           int64                     `json:"date"`
	Chat           Chat                      `json:"chat"`
	From           *User                     `json:"from,omitempty"`
	ViaBot         *User                     `json:"via_bot,omitempty"`
	Text           string                    `json:"text,omitempty"`
	ReplyMarkup    *InlineKeyboard           `json:"reply_markup,omitempty"`
	ReplyToMessage *Message                  `json:"reply_to_message,omitempty"`
	PinnedMessage  *MaybeInaccessibleMessage `json:"pinned_message,omitempty"`
}

// Sender returns the user the message should be attributed to. A via_bot
// marker wins over from, nil means the author is unknown.
func (m *Message) Sender() *User {
	if m.ViaBot != nil {
		return m.ViaBot
	}
	return m.From
}

// InaccessibleMessage is a message the bot can no longer read.
type InaccessibleMessage struct {
	Chat      Chat  `json:"chat"`
	MessageID int   `json:"message_id"`
	Date      int64 `json:"date"`
}

// MessageKind discriminates the MaybeInaccessibleMessage variants.
type MessageKind int

const (
	// MessageKindNone means no variant is set.
	MessageKindNone MessageKind = iota
	// MessageKindMessage carries an accessible Message.
	MessageKindMessage
	// MessageKindInaccessible carries an InaccessibleMessage.
	MessageKindInaccessible
)

func (k MessageKind) String() string {
	switch k {
	case MessageKindMessage:
		return "message"
	case MessageKindInaccessible:
		return "inaccessible"
	default:
		return "none"
	}
}

// MaybeInaccessibleMessage is a tagged union: Kind selects which pointer is set.
type MaybeInaccessibleMessage struct {
	Kind         MessageKind
	Message      *Message
	Inaccessible *InaccessibleMessage
}

// Accessible returns the wrapped Message, or nil for any other variant.
func (m *MaybeInaccessibleMessage) Accessible() *Message {
	if m == nil || m.Kind != MessageKindMessage {
		return nil
	}
	return m.Message
}

// WrapMessage wraps an accessible message.
func WrapMessage(msg *Message) *MaybeInaccessibleMessage {
	return &MaybeInaccessibleMessage{Kind: MessageKindMessage, Message: msg}
}

// UnmarshalJSON resolves the variant through the probe table in decode.go.
func (m *MaybeInaccessibleMessage) UnmarshalJSON(data []byte) error {
	return decodeMaybeInaccessible(data, m)
}

// MarshalJSON emits the Bot API shape of the active variant.
func (m *MaybeInaccessibleMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MessageKindMessage:
		return json.Marshal(m.Message)
	case MessageKindInaccessible:
		return json.Marshal(m.Inaccessible)
	default:
		return []byte("null"), nil
	}
}

// CallbackQuery is an incoming button press. Data holds a Token as received,
// and the original payload (or an invalid-data marker) once resolved.
type CallbackQuery struct {
	ID              string
	From            User
	Message         *MaybeInaccessibleMessage
	InlineMessageID string
	ChatInstance    string
	Data            any
}

type wireCallbackQuery struct {
	ID              string                    `json:"id"`
	From            User                      `json:"from"`
	Message         *MaybeInaccessibleMessage `json:"message,omitempty"`
	InlineMessageID string                    `json:"inline_message_id,omitempty"`
	ChatInstance    string                    `json:"chat_instance,omitempty"`
	Data            string                    `json:"data,omitempty"`
}

// UnmarshalJSON decodes the Bot API shape; data arrives as a Token.
func (q *CallbackQuery) UnmarshalJSON(data []byte) error {
	var wire wireCallbackQuery
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to decode callback query: %w", err)
	}
	*q = CallbackQuery{
		ID:              wire.ID,
		From:            wire.From,
		Message:         wire.Message,
		InlineMessageID: wire.InlineMessageID,
		ChatInstance:    wire.ChatInstance,
	}
	if wire.Data != "" {
		q.Data = Token(wire.Data)
	}
	return nil
}

// AttachedMessage returns the accessible message the query originated from.
func (q *CallbackQuery) AttachedMessage() *Message {
	return q.Message.Accessible()
}

// Update is one incoming Telegram update.
type Update struct {
	ID            int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}
