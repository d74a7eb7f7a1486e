package callbackdata

import "time"

// KeyboardEntry is the cached state of one outbound keyboard: when it was
// last used and which payload hides behind each button key.
type KeyboardEntry struct {
	KeyboardUUID string
	AccessTime   time.Time
	ButtonData   map[string]any
}

func newKeyboardEntry(keyboardUUID string, now time.Time) *KeyboardEntry {
	return &KeyboardEntry{
		KeyboardUUID: keyboardUUID,
		AccessTime:   now,
		ButtonData:   make(map[string]any),
	}
}

// touch refreshes the access time. It never moves backwards.
func (e *KeyboardEntry) touch(now time.Time) {
	if now.After(e.AccessTime) {
		e.AccessTime = now
	}
}

func (e *KeyboardEntry) record() KeyboardRecord {
	data := make(map[string]any, len(e.ButtonData))
	for key, payload := range e.ButtonData {
		data[key] = clonePayload(payload)
	}
	return KeyboardRecord{
		UUID:       e.KeyboardUUID,
		AccessTime: e.AccessTime,
		ButtonData: data,
	}
}

// clonePayload copies the JSON-shaped containers of a payload so callers of
// Snapshot cannot reach into cached state. Other values are returned as is.
func clonePayload(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = clonePayload(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = clonePayload(x)
		}
		return out
	default:
		return v
	}
}
