package models

import (
	"encoding/json"
	"fmt"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/tidwall/gjson"
)

// variantProbe matches one encoding of a MaybeInaccessibleMessage and names
// the variant it carries plus the JSON path holding its body ("" for the
// whole document).
type variantProbe struct {
	kind  MessageKind
	path  string
	match func(doc gjson.Result) bool
}

// variantProbes is checked in order. The first two cover the Bot API wire
// shape (date == 0 marks an inaccessible message), the last two cover the
// struct shape go-telegram produces when its union is marshalled field by field.
var variantProbes = []variantProbe{
	{
		kind: MessageKindInaccessible,
		match: func(doc gjson.Result) bool {
			date := doc.Get("date")
			return doc.Get("message_id").Exists() && date.Exists() && date.Int() == 0
		},
	},
	{
		kind: MessageKindMessage,
		match: func(doc gjson.Result) bool {
			return doc.Get("message_id").Exists()
		},
	},
	{
		kind: MessageKindMessage,
		path: "Message",
		match: func(doc gjson.Result) bool {
			return doc.Get("Message").IsObject()
		},
	},
	{
		kind: MessageKindInaccessible,
		path: "InaccessibleMessage",
		match: func(doc gjson.Result) bool {
			return doc.Get("InaccessibleMessage").IsObject()
		},
	},
}

// variantDecoders builds the concrete value for each variant.
var variantDecoders = map[MessageKind]func(raw []byte, out *MaybeInaccessibleMessage) error{
	MessageKindMessage: func(raw []byte, out *MaybeInaccessibleMessage) error {
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		out.Message = &msg
		return nil
	},
	MessageKindInaccessible: func(raw []byte, out *MaybeInaccessibleMessage) error {
		var msg InaccessibleMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		out.Inaccessible = &msg
		return nil
	},
}

func decodeMaybeInaccessible(data []byte, out *MaybeInaccessibleMessage) error {
	*out = MaybeInaccessibleMessage{}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("failed to decode message: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil
	}

	for _, probe := range variantProbes {
		if !probe.match(doc) {
			continue
		}
		raw := data
		if probe.path != "" {
			raw = []byte(doc.Get(probe.path).Raw)
		}
		if err := variantDecoders[probe.kind](raw, out); err != nil {
			return fmt.Errorf("failed to decode %s message: %w", probe.kind, err)
		}
		out.Kind = probe.kind
		return nil
	}

	// Unknown shape: keep an empty union so walkers treat it as a no-op.
	return nil
}

// UpdateFromTelegram converts a go-telegram update into the domain graph.
// The conversion goes through JSON so every Bot API field keeps its wire name.
func UpdateFromTelegram(update *tgmodels.Update) (*Update, error) {
	raw, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}
	var out Update
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode update: %w", err)
	}
	return &out, nil
}

// MessageFromTelegram converts a go-telegram message into the domain graph.
func MessageFromTelegram(msg *tgmodels.Message) (*Message, error) {
	if msg == nil {
		return nil, nil
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	var out Message
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return &out, nil
}
