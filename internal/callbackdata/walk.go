package callbackdata

import "gitlab.com/yelinaung/callback-bot/internal/models"

// maxLinkDepth bounds how many reply/pinned hops are followed from the
// message a walk starts at.
const maxLinkDepth = 1

// ProcessMessage resolves the tokens on msg's inline keyboard, and on the
// keyboards of its reply_to_message and pinned_message, back to payloads.
// Keyboards on messages another sender wrote are left untouched.
func (c *Cache) ProcessMessage(msg *models.Message) {
	c.walk(msg, 0, make(map[*models.Message]struct{}))
}

func (c *Cache) walk(msg *models.Message, depth int, seen map[*models.Message]struct{}) {
	if msg == nil {
		return
	}
	if _, ok := seen[msg]; ok {
		return
	}
	seen[msg] = struct{}{}

	if c.sentByBot(msg) {
		c.resolveKeyboard(msg.ReplyMarkup)
	}

	if depth >= maxLinkDepth {
		return
	}
	c.walk(msg.ReplyToMessage, depth+1, seen)
	c.walk(msg.PinnedMessage.Accessible(), depth+1, seen)
}

// sentByBot reports whether a message's keyboard can hold our tokens.
// A message with no author signal, or a cache that does not know its bot ID
// yet, is treated as ours: unknown tokens then surface as InvalidData.
func (c *Cache) sentByBot(msg *models.Message) bool {
	sender := msg.Sender()
	if sender == nil || c.botID == 0 {
		return true
	}
	return sender.ID == c.botID
}

func (c *Cache) resolveKeyboard(k *models.InlineKeyboard) {
	if k == nil {
		return
	}
	for _, row := range k.Rows {
		for _, btn := range row {
			if btn == nil {
				continue
			}
			tok, ok := btn.CallbackData.(models.Token)
			if !ok || tok == "" {
				continue
			}
			_, payload, _ := c.resolve(string(tok))
			btn.CallbackData = payload
		}
	}
}
