// Package codec centralizes cache payload encoding.
//
// Codec selection is a persistence-compatibility boundary: snapshot blobs
// record the codec name in their header, and a blob written by an unknown
// codec will not decode.
package codec

import "fmt"

// Codec encodes/decodes cache values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Snapshot blobs are self-describing; on load, the codec is selected by the
// name stored in the blob header.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
