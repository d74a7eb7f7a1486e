package models

import (
	"encoding/json"
	"errors"
	"fmt"

	tgmodels "github.com/go-telegram/bot/models"
)

// ErrUnprocessedCallbackData is returned when a keyboard still carries a
// callback payload that has not been replaced by a wire token.
var ErrUnprocessedCallbackData = errors.New("callback data has not been processed into a token")

// Token is callback data in its wire form, exactly as Telegram delivers it.
// Payloads typed as Token are transmitted verbatim and are the only values
// the callback data cache tries to resolve.
type Token string

// Button is one inline keyboard button. CallbackData holds either a Token
// (wire form) or any application payload before the keyboard is processed.
type Button struct {
	Text         string
	URL          string
	CallbackData any
}

// InlineKeyboard is an ordered set of button rows.
// Rows hold pointers so untouched buttons keep their identity across
// keyboard processing.
type InlineKeyboard struct {
	Rows [][]*Button
}

// NewInlineKeyboard builds a keyboard from rows.
func NewInlineKeyboard(rows ...[]*Button) *InlineKeyboard {
	return &InlineKeyboard{Rows: rows}
}

// Row groups buttons into one keyboard row.
func Row(buttons ...*Button) []*Button {
	return buttons
}

// CallbackButton creates a button carrying an application payload.
func CallbackButton(text string, data any) *Button {
	return &Button{Text: text, CallbackData: data}
}

// URLButton creates a button that opens a link.
func URLButton(text, url string) *Button {
	return &Button{Text: text, URL: url}
}

// HasCallbackData reports whether the button carries any callback data.
func (b *Button) HasCallbackData() bool {
	if b.CallbackData == nil {
		return false
	}
	if tok, ok := b.CallbackData.(Token); ok {
		return tok != ""
	}
	return true
}

// WithCallbackData returns a copy of the button with different callback data.
func (b *Button) WithCallbackData(data any) *Button {
	clone := *b
	clone.CallbackData = data
	return &clone
}

// Markup converts the keyboard into the go-telegram wire type.
// Every callback payload must already be a Token.
func (k *InlineKeyboard) Markup() (*tgmodels.InlineKeyboardMarkup, error) {
	rows := make([][]tgmodels.InlineKeyboardButton, 0, len(k.Rows))
	for i, row := range k.Rows {
		out := make([]tgmodels.InlineKeyboardButton, 0, len(row))
		for j, btn := range row {
			wire := tgmodels.InlineKeyboardButton{Text: btn.Text, URL: btn.URL}
			switch v := btn.CallbackData.(type) {
			case nil:
			case Token:
				wire.CallbackData = string(v)
			default:
				return nil, fmt.Errorf("button [%d][%d] %q: %w", i, j, btn.Text, ErrUnprocessedCallbackData)
			}
			out = append(out, wire)
		}
		rows = append(rows, out)
	}
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

// KeyboardFromMarkup converts a go-telegram keyboard into the domain type.
// Callback data becomes Tokens.
func KeyboardFromMarkup(markup *tgmodels.InlineKeyboardMarkup) *InlineKeyboard {
	if markup == nil {
		return nil
	}
	k := &InlineKeyboard{Rows: make([][]*Button, 0, len(markup.InlineKeyboard))}
	for _, row := range markup.InlineKeyboard {
		out := make([]*Button, 0, len(row))
		for _, wire := range row {
			btn := &Button{Text: wire.Text, URL: wire.URL}
			if wire.CallbackData != "" {
				btn.CallbackData = Token(wire.CallbackData)
			}
			out = append(out, btn)
		}
		k.Rows = append(k.Rows, out)
	}
	return k
}

type wireButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type wireKeyboard struct {
	InlineKeyboard [][]wireButton `json:"inline_keyboard"`
}

// UnmarshalJSON decodes the Bot API reply_markup shape.
func (k *InlineKeyboard) UnmarshalJSON(data []byte) error {
	var wire wireKeyboard
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to decode inline keyboard: %w", err)
	}
	k.Rows = make([][]*Button, 0, len(wire.InlineKeyboard))
	for _, row := range wire.InlineKeyboard {
		out := make([]*Button, 0, len(row))
		for _, w := range row {
			btn := &Button{Text: w.Text, URL: w.URL}
			if w.CallbackData != "" {
				btn.CallbackData = Token(w.CallbackData)
			}
			out = append(out, btn)
		}
		k.Rows = append(k.Rows, out)
	}
	return nil
}

// MarshalJSON encodes the keyboard in the Bot API shape. It fails when a
// payload has not been turned into a Token.
func (k *InlineKeyboard) MarshalJSON() ([]byte, error) {
	wire := wireKeyboard{InlineKeyboard: make([][]wireButton, 0, len(k.Rows))}
	for _, row := range k.Rows {
		out := make([]wireButton, 0, len(row))
		for _, btn := range row {
			w := wireButton{Text: btn.Text, URL: btn.URL}
			switch v := btn.CallbackData.(type) {
			case nil:
			case Token:
				w.CallbackData = string(v)
			default:
				return nil, fmt.Errorf("button %q: %w", btn.Text, ErrUnprocessedCallbackData)
			}
			out = append(out, w)
		}
		wire.InlineKeyboard = append(wire.InlineKeyboard, out)
	}
	return json.Marshal(wire)
}
