package callbackdata

import "fmt"

// InvalidData stands in for callback data that could not be resolved: the
// keyboard was evicted or cleared, the button key is unknown, or the data
// was never produced by this cache. Raw holds the data as received.
type InvalidData struct {
	Raw string
}

func (d InvalidData) String() string {
	return fmt.Sprintf("invalid callback data (%d bytes)", len(d.Raw))
}

// IsInvalid reports whether a resolved payload is an InvalidData marker.
func IsInvalid(payload any) bool {
	_, ok := payload.(InvalidData)
	return ok
}
