package callbackdata

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"gitlab.com/yelinaung/callback-bot/internal/logger"
)

var (
	payloadMu    sync.RWMutex
	payloadTypes = map[string]reflect.Type{}
	payloadNames = map[reflect.Type]string{}
)

func init() {
	RegisterPayload[string]("string")
	RegisterPayload[bool]("bool")
	RegisterPayload[int]("int")
	RegisterPayload[int32]("int32")
	RegisterPayload[int64]("int64")
	RegisterPayload[uint]("uint")
	RegisterPayload[uint64]("uint64")
	RegisterPayload[float32]("float32")
	RegisterPayload[float64]("float64")
	RegisterPayload[[]string]("[]string")
	RegisterPayload[map[string]any]("object")
	RegisterPayload[[]any]("array")
}

// RegisterPayload makes payloads of type T survive persistence with their Go
// type intact. Snapshots record name next to each payload, so a name must
// stay stable across releases. Registering one name for two types panics.
//
// Payloads of unregistered types are persisted in their JSON shape and come
// back as map[string]any, []any, float64 and so on. Values nested inside
// map[string]any and []any always come back in JSON shape.
func RegisterPayload[T any](name string) {
	typ := reflect.TypeFor[T]()

	payloadMu.Lock()
	defer payloadMu.Unlock()

	if existing, ok := payloadTypes[name]; ok && existing != typ {
		panic(fmt.Sprintf("callbackdata: payload name %q already registered for %s", name, existing))
	}
	payloadTypes[name] = typ
	payloadNames[typ] = name
}

// storedPayload is the persisted form of one button payload.
type storedPayload struct {
	Type  string          `json:"type,omitempty"`
	Value json.RawMessage `json:"value"`
}

func encodePayload(v any) (storedPayload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return storedPayload{}, fmt.Errorf("failed to encode %T payload: %w", v, err)
	}
	if v == nil {
		return storedPayload{Value: raw}, nil
	}

	payloadMu.RLock()
	name, ok := payloadNames[reflect.TypeOf(v)]
	payloadMu.RUnlock()
	if !ok {
		logger.Log.Warn().
			Str("payload_type", fmt.Sprintf("%T", v)).
			Msg("Persisting unregistered callback payload type in JSON shape")
	}
	return storedPayload{Type: name, Value: raw}, nil
}

func decodePayload(p storedPayload) (any, error) {
	if p.Type == "" {
		return decodeJSONShape(p.Value)
	}

	payloadMu.RLock()
	typ, ok := payloadTypes[p.Type]
	payloadMu.RUnlock()
	if !ok {
		logger.Log.Warn().
			Str("payload_type", p.Type).
			Msg("Restoring callback payload of unknown type in JSON shape")
		return decodeJSONShape(p.Value)
	}

	ptr := reflect.New(typ)
	if err := json.Unmarshal(p.Value, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", p.Type, err)
	}
	return ptr.Elem().Interface(), nil
}

func decodeJSONShape(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return v, nil
}
