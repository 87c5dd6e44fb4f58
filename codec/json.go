package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option: no extra dependency, and the output format
// is stable across Go releases. Arbitrary user payloads work as long as they
// round-trip through encoding/json (funcs, channels and complex numbers do
// not).
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
//
// This affects newly-written snapshots only. Existing blobs are
// self-describing (they store the codec name in their header) and are decoded
// by selecting the appropriate codec by name.
var Default Codec = GoJSON{}
