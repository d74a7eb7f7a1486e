// Package callbackdata keeps arbitrary inline keyboard payloads on the bot
// side and sends short opaque tokens to Telegram in their place.
//
// A Cache is not safe for concurrent use. The bot session serializes access.
package callbackdata

import (
	"errors"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/callback-bot/internal/logger"
	"gitlab.com/yelinaung/callback-bot/internal/models"
)

// DefaultMaxSize bounds both stores when no size is configured.
const DefaultMaxSize = 1024

var (
	// ErrQueryNotFound is returned when dropping a callback query the cache
	// never recorded.
	ErrQueryNotFound = errors.New("callback query was not found in cache")
	// ErrInvalidMaxSize is returned for a non-positive cache size.
	ErrInvalidMaxSize = errors.New("max size must be positive")
)

// Cache maps keyboard UUIDs to KeyboardEntry values and callback query IDs to
// keyboard UUIDs. Both stores are kept in recency order, least recently used
// first, and evict from the front once they exceed maxSize.
type Cache struct {
	maxSize int
	botID   int64
	now     func() time.Time
	newUUID func() string
	meter   metric.Meter
	metrics *cacheMetrics

	keyboards *orderedmap.OrderedMap[string, *KeyboardEntry]
	queries   *orderedmap.OrderedMap[string, string]
	// refs counts recorded queries per keyboard UUID.
	refs map[string]int

	preload *Snapshot
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSize sets how many keyboards and callback queries are retained.
func WithMaxSize(n int) Option {
	return func(c *Cache) { c.maxSize = n }
}

// WithBotID sets the bot's own user ID, used to skip keyboards on messages
// that other bots or users sent.
func WithBotID(id int64) Option {
	return func(c *Cache) { c.botID = id }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMeter records cache counters on the given meter instead of the global one.
func WithMeter(meter metric.Meter) Option {
	return func(c *Cache) { c.meter = meter }
}

// WithSnapshot pre-populates the cache from persisted state.
func WithSnapshot(s Snapshot) Option {
	return func(c *Cache) { c.preload = &s }
}

// New creates an empty cache, or one restored from WithSnapshot.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		maxSize:   DefaultMaxSize,
		now:       time.Now,
		newUUID:   newKeyboardUUID,
		keyboards: orderedmap.New[string, *KeyboardEntry](),
		queries:   orderedmap.New[string, string](),
		refs:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxSize <= 0 {
		return nil, fmt.Errorf("callback data cache size %d: %w", c.maxSize, ErrInvalidMaxSize)
	}
	c.metrics = newCacheMetrics(c.meter)

	if c.preload != nil {
		c.Load(*c.preload)
		c.preload = nil
	}
	return c, nil
}

// MaxSize returns the configured bound.
func (c *Cache) MaxSize() int { return c.maxSize }

// BotID returns the bot user ID used for authorship checks, 0 if unknown.
func (c *Cache) BotID() int64 { return c.botID }

// SetBotID sets the bot user ID once it is known (usually after getMe).
func (c *Cache) SetBotID(id int64) { c.botID = id }

// Len returns the number of cached keyboards.
func (c *Cache) Len() int { return c.keyboards.Len() }

// QueryCount returns the number of recorded callback queries.
func (c *Cache) QueryCount() int { return c.queries.Len() }

// Keyboard returns a copy of the cached entry for a keyboard UUID.
func (c *Cache) Keyboard(keyboardUUID string) (KeyboardRecord, bool) {
	entry, ok := c.keyboards.Get(keyboardUUID)
	if !ok {
		return KeyboardRecord{}, false
	}
	return entry.record(), true
}

// KeyboardForQuery returns the keyboard UUID a callback query resolved to.
func (c *Cache) KeyboardForQuery(queryID string) (string, bool) {
	return c.queries.Get(queryID)
}

// ProcessKeyboard replaces every cacheable payload in the keyboard with a
// composed token and records the mapping. Buttons without callback data, or
// whose data already is a models.Token, are reused as is. When nothing needs
// replacing the input keyboard itself is returned.
func (c *Cache) ProcessKeyboard(k *models.InlineKeyboard) *models.InlineKeyboard {
	if k == nil {
		return nil
	}

	var entry *KeyboardEntry
	rows := make([][]*models.Button, len(k.Rows))
	for i, row := range k.Rows {
		out := make([]*models.Button, len(row))
		for j, btn := range row {
			if btn == nil || !needsReplacement(btn.CallbackData) {
				out[j] = btn
				continue
			}
			if entry == nil {
				entry = newKeyboardEntry(c.freshUUID(), c.now())
			}
			key := buttonKey(len(entry.ButtonData))
			entry.ButtonData[key] = btn.CallbackData
			out[j] = btn.WithCallbackData(models.Token(composeKey(entry.KeyboardUUID, key)))
		}
		rows[i] = out
	}

	if entry == nil {
		return k
	}
	c.storeKeyboard(entry)
	return &models.InlineKeyboard{Rows: rows}
}

// ProcessCallbackQuery resolves the query's token to the original payload,
// or to InvalidData when it cannot. A successful resolution records the
// query so it can be dropped later. Keyboards on the attached message graph
// are resolved as well. Queries that were already resolved are left alone.
func (c *Cache) ProcessCallbackQuery(q *models.CallbackQuery) {
	if q == nil {
		return
	}

	if tok, ok := q.Data.(models.Token); ok && tok != "" {
		keyboardUUID, payload, found := c.resolve(string(tok))
		q.Data = payload
		if found {
			c.recordQuery(q.ID, keyboardUUID)
		}
	}

	if msg := q.AttachedMessage(); msg != nil {
		c.ProcessMessage(msg)
	}
}

// Drop forgets a resolved callback query. Its keyboard is removed too, unless
// another recorded query still points at it.
func (c *Cache) Drop(q *models.CallbackQuery) error {
	if q == nil {
		return fmt.Errorf("drop nil query: %w", ErrQueryNotFound)
	}
	keyboardUUID, ok := c.queries.Delete(q.ID)
	if !ok {
		return fmt.Errorf("drop %q: %w", q.ID, ErrQueryNotFound)
	}
	if c.unref(keyboardUUID) == 0 {
		c.keyboards.Delete(keyboardUUID)
	}
	return nil
}

// ClearCallbackData removes cached keyboards. A zero cutoff removes all of
// them, otherwise only entries last accessed before cutoff go. It returns the
// number of entries removed. Recorded callback queries are not touched.
func (c *Cache) ClearCallbackData(cutoff time.Time) int {
	if cutoff.IsZero() {
		n := c.keyboards.Len()
		c.keyboards = orderedmap.New[string, *KeyboardEntry]()
		return n
	}

	var stale []string
	for pair := c.keyboards.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.AccessTime.Before(cutoff) {
			stale = append(stale, pair.Key)
		}
	}
	for _, key := range stale {
		c.keyboards.Delete(key)
	}
	return len(stale)
}

// ClearCallbackQueries empties the recorded callback queries only.
func (c *Cache) ClearCallbackQueries() int {
	n := c.queries.Len()
	c.queries = orderedmap.New[string, string]()
	c.refs = make(map[string]int)
	return n
}

func needsReplacement(data any) bool {
	switch data.(type) {
	case nil, models.Token:
		return false
	default:
		return true
	}
}

func (c *Cache) freshUUID() string {
	for {
		id := c.newUUID()
		if _, taken := c.keyboards.Get(id); !taken {
			return id
		}
	}
}

func (c *Cache) storeKeyboard(entry *KeyboardEntry) {
	c.keyboards.Set(entry.KeyboardUUID, entry)
	_ = c.keyboards.MoveToBack(entry.KeyboardUUID)
	c.metrics.keyboardStored()

	for c.keyboards.Len() > c.maxSize {
		oldest := c.keyboards.Oldest()
		c.keyboards.Delete(oldest.Key)
		c.metrics.evicted("keyboard")
		logger.Log.Debug().
			Str("keyboard_uuid", oldest.Key).
			Time("access_time", oldest.Value.AccessTime).
			Msg("Evicted callback keyboard")
	}
}

func (c *Cache) recordQuery(queryID, keyboardUUID string) {
	if queryID == "" {
		return
	}
	if prev, ok := c.queries.Get(queryID); ok {
		c.unref(prev)
	}
	c.queries.Set(queryID, keyboardUUID)
	_ = c.queries.MoveToBack(queryID)
	c.refs[keyboardUUID]++

	for c.queries.Len() > c.maxSize {
		oldest := c.queries.Oldest()
		c.queries.Delete(oldest.Key)
		c.unref(oldest.Value)
		c.metrics.evicted("query")
	}
}

// unref drops one reference to a keyboard and returns how many remain.
func (c *Cache) unref(keyboardUUID string) int {
	n := c.refs[keyboardUUID] - 1
	if n <= 0 {
		delete(c.refs, keyboardUUID)
		return 0
	}
	c.refs[keyboardUUID] = n
	return n
}

// resolve looks up a composed token. The entry's access time is refreshed
// only when both the keyboard and the button key are known.
func (c *Cache) resolve(data string) (string, any, bool) {
	keyboardUUID, key, ok := splitKey(data)
	if !ok {
		return c.miss(data, "malformed")
	}
	entry, ok := c.keyboards.Get(keyboardUUID)
	if !ok {
		return c.miss(data, "unknown_keyboard")
	}
	payload, ok := entry.ButtonData[key]
	if !ok {
		return c.miss(data, "unknown_button")
	}

	entry.touch(c.now())
	_ = c.keyboards.MoveToBack(keyboardUUID)
	c.metrics.lookup("hit")
	return keyboardUUID, payload, true
}

func (c *Cache) miss(data, reason string) (string, any, bool) {
	c.metrics.lookup(reason)
	logger.Log.Debug().
		Str("reason", reason).
		Int("data_len", len(data)).
		Msg("Unresolvable callback data")
	return "", InvalidData{Raw: data}, false
}
