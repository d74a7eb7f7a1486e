package callbackdata

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// keySeparator joins the keyboard UUID and the button key. Neither part can
// contain it: UUIDs are hex and button keys are base 36.
const keySeparator = ":"

// MaxCallbackDataLength is Telegram's limit on callback_data in bytes.
const MaxCallbackDataLength = 64

func newKeyboardUUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

func buttonKey(index int) string {
	return strconv.FormatInt(int64(index), 36)
}

func composeKey(keyboardUUID, key string) string {
	return keyboardUUID + keySeparator + key
}

// splitKey reverses composeKey. Both parts must be non-empty and the data
// must contain exactly one separator.
func splitKey(data string) (keyboardUUID, key string, ok bool) {
	if len(data) > MaxCallbackDataLength {
		return "", "", false
	}
	keyboardUUID, key, found := strings.Cut(data, keySeparator)
	if !found || keyboardUUID == "" || key == "" || strings.Contains(key, keySeparator) {
		return "", "", false
	}
	return keyboardUUID, key, true
}
