package callbackdata

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// KeyboardRecord is the persisted form of a KeyboardEntry.
type KeyboardRecord struct {
	UUID       string
	AccessTime time.Time
	ButtonData map[string]any
}

// keyboardRecordJSON keeps each payload next to its registered type name.
// ButtonData is the untyped layout of older snapshots and is only read.
type keyboardRecordJSON struct {
	UUID       string                   `json:"uuid"`
	AccessTime time.Time                `json:"access_time"`
	Payloads   map[string]storedPayload `json:"payloads,omitempty"`
	ButtonData map[string]any           `json:"button_data,omitempty"`
}

// MarshalJSON encodes payloads with their type, see RegisterPayload.
func (r KeyboardRecord) MarshalJSON() ([]byte, error) {
	out := keyboardRecordJSON{
		UUID:       r.UUID,
		AccessTime: r.AccessTime,
		Payloads:   make(map[string]storedPayload, len(r.ButtonData)),
	}
	for key, payload := range r.ButtonData {
		stored, err := encodePayload(payload)
		if err != nil {
			return nil, fmt.Errorf("keyboard %s button %s: %w", r.UUID, key, err)
		}
		out.Payloads[key] = stored
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores registered payload types.
func (r *KeyboardRecord) UnmarshalJSON(data []byte) error {
	var in keyboardRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = KeyboardRecord{
		UUID:       in.UUID,
		AccessTime: in.AccessTime,
		ButtonData: make(map[string]any, len(in.Payloads)+len(in.ButtonData)),
	}
	for key, payload := range in.ButtonData {
		r.ButtonData[key] = payload
	}
	for key, stored := range in.Payloads {
		payload, err := decodePayload(stored)
		if err != nil {
			return fmt.Errorf("keyboard %s button %s: %w", in.UUID, key, err)
		}
		r.ButtonData[key] = payload
	}
	return nil
}

// Snapshot is the cache state handed to and restored from a persistence
// backend: every keyboard, least recently used first, and the query ID to
// keyboard UUID mapping.
type Snapshot struct {
	Keyboards []KeyboardRecord  `json:"keyboards"`
	Queries   map[string]string `json:"queries"`
}

// IsEmpty reports whether the snapshot holds no state at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Keyboards) == 0 && len(s.Queries) == 0
}

// Snapshot exports a deep copy of the cache state.
func (c *Cache) Snapshot() Snapshot {
	s := Snapshot{
		Keyboards: make([]KeyboardRecord, 0, c.keyboards.Len()),
		Queries:   make(map[string]string, c.queries.Len()),
	}
	for pair := c.keyboards.Oldest(); pair != nil; pair = pair.Next() {
		s.Keyboards = append(s.Keyboards, pair.Value.record())
	}
	for pair := c.queries.Oldest(); pair != nil; pair = pair.Next() {
		s.Queries[pair.Key] = pair.Value
	}
	return s
}

// Load merges persisted state into the cache.
//
// Keyboards from s and those already cached are ordered together by access
// time, so a stale record never outlives a fresher live entry. When both
// know a UUID the more recently accessed copy wins. Restored queries carry
// no timestamp and are placed behind the live ones, oldest first. The size
// bound is then applied to both stores.
func (c *Cache) Load(s Snapshot) {
	c.mergeKeyboards(s.Keyboards)
	c.mergeQueries(s.Queries)
}

func (c *Cache) mergeKeyboards(records []KeyboardRecord) {
	incoming := make(map[string]*KeyboardEntry, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.UUID == "" {
			continue
		}
		if prev, ok := incoming[rec.UUID]; ok {
			if rec.AccessTime.After(prev.AccessTime) {
				incoming[rec.UUID] = entryFromRecord(rec)
			}
			continue
		}
		if live, ok := c.keyboards.Get(rec.UUID); ok && !rec.AccessTime.After(live.AccessTime) {
			continue
		}
		incoming[rec.UUID] = entryFromRecord(rec)
		order = append(order, rec.UUID)
	}
	if len(incoming) == 0 {
		return
	}

	merged := make([]*KeyboardEntry, 0, c.keyboards.Len()+len(incoming))
	for pair := c.keyboards.Oldest(); pair != nil; pair = pair.Next() {
		if _, replaced := incoming[pair.Key]; !replaced {
			merged = append(merged, pair.Value)
		}
	}
	for _, id := range order {
		merged = append(merged, incoming[id])
	}
	// Stable, so ties keep live entries ahead of restored ones.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].AccessTime.Before(merged[j].AccessTime)
	})

	keyboards := orderedmap.New[string, *KeyboardEntry]()
	for _, entry := range merged {
		keyboards.Set(entry.KeyboardUUID, entry)
	}
	for keyboards.Len() > c.maxSize {
		keyboards.Delete(keyboards.Oldest().Key)
	}
	c.keyboards = keyboards
}

func (c *Cache) mergeQueries(restored map[string]string) {
	if len(restored) == 0 {
		return
	}
	ids := make([]string, 0, len(restored))
	for id := range restored {
		if _, live := c.queries.Get(id); !live && id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	queries := orderedmap.New[string, string]()
	for _, id := range ids {
		queries.Set(id, restored[id])
	}
	for pair := c.queries.Oldest(); pair != nil; pair = pair.Next() {
		queries.Set(pair.Key, pair.Value)
	}
	for queries.Len() > c.maxSize {
		queries.Delete(queries.Oldest().Key)
	}

	c.queries = queries
	c.refs = make(map[string]int, queries.Len())
	for pair := queries.Oldest(); pair != nil; pair = pair.Next() {
		c.refs[pair.Value]++
	}
}

func entryFromRecord(rec KeyboardRecord) *KeyboardEntry {
	entry := &KeyboardEntry{
		KeyboardUUID: rec.UUID,
		AccessTime:   rec.AccessTime,
		ButtonData:   make(map[string]any, len(rec.ButtonData)),
	}
	for key, payload := range rec.ButtonData {
		entry.ButtonData[key] = clonePayload(payload)
	}
	return entry
}
