// Package snapshot implements the persisted blob format for cache snapshots.
//
// A snapshot blob is self-describing: the header records the codec and
// compression used to produce the body, and a CRC32 checksum guards against
// storage corruption. Loading selects the codec/compression by name from the
// header, so blobs written under an older configuration still decode.
//
// Layout (little-endian):
//
//	magic    uint32  "TGS1"
//	version  uint32
//	codec    uint16-prefixed string
//	compress uint16-prefixed string
//	checksum uint32  CRC32 (IEEE) of the body
//	bodyLen  uint32
//	body     compressed codec-encoded []Entry
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/tagstash/tagstash/codec"
)

const (
	// Magic identifies tagstash snapshot blobs (ASCII "TGS1").
	Magic = 0x54475331

	// Version is the current blob format version.
	Version = 1
)

var (
	// ErrCorrupt is the umbrella error for any blob that cannot be decoded.
	// All decode failures satisfy errors.Is(err, ErrCorrupt).
	ErrCorrupt = errors.New("snapshot: corrupt blob")

	// ErrUnknownCodec is returned when the header names a codec this build
	// does not ship.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")

	// ErrUnknownCompression is returned when the header names an unsupported
	// compression scheme.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
)

// ChecksumMismatchError is returned when the stored checksum does not match
// the body. It unwraps to ErrCorrupt.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupt }

// Entry is one persisted cache entry.
//
// Data holds the payload already encoded by the cache's codec; the snapshot
// layer never interprets it. Times are Unix nanoseconds so the format does
// not depend on Go's time serialization.
type Entry struct {
	Key          string   `json:"key"`
	Data         []byte   `json:"data"`
	Tags         []string `json:"tags,omitempty"`
	Timestamp    int64    `json:"ts"`
	TTL          int64    `json:"ttl"`
	AccessCount  uint64   `json:"hits"`
	LastAccessed int64    `json:"last"`
}

// Encode serializes entries into a blob using the given codec and
// compression. A nil codec falls back to codec.Default; empty compression
// falls back to Zstd.
func Encode(c codec.Codec, comp Compression, entries []Entry) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	if comp == "" {
		comp = Zstd
	}

	raw, err := c.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode entries: %w", err)
	}

	body, err := compress(comp, raw)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)) > math.MaxUint32 {
		return nil, fmt.Errorf("snapshot: body too large: %d bytes", len(body))
	}

	buf := make([]byte, 0, 24+len(c.Name())+len(comp)+len(body))
	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = binary.LittleEndian.AppendUint32(buf, Version)
	buf = appendString(buf, c.Name())
	buf = appendString(buf, string(comp))
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(body))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, body...)
	return buf, nil
}

// Decode parses a blob produced by Encode.
//
// Every failure mode (bad magic, unknown codec, checksum mismatch, truncated
// body, undecodable payload) satisfies errors.Is(err, ErrCorrupt), so callers
// can treat them uniformly as "discard and start empty".
func Decode(blob []byte) ([]Entry, error) {
	r := reader{buf: blob}

	magic, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrCorrupt, magic)
	}

	version, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}

	codecName, err := r.string()
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q (%w)", ErrUnknownCodec, codecName, ErrCorrupt)
	}

	compName, err := r.string()
	if err != nil {
		return nil, err
	}
	comp := Compression(compName)

	sum, err := r.uint32()
	if err != nil {
		return nil, err
	}
	bodyLen, err := r.uint32()
	if err != nil {
		return nil, err
	}
	body, err := r.bytes(int(bodyLen))
	if err != nil {
		return nil, err
	}

	if actual := crc32.ChecksumIEEE(body); actual != sum {
		return nil, &ChecksumMismatchError{Expected: sum, Actual: actual}
	}

	raw, err := decompress(comp, body)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := c.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode entries: %w", ErrCorrupt, err)
	}
	return entries, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// reader is a bounds-checked cursor over the blob. Any overrun reports
// truncation as corruption.
type reader struct {
	buf []byte
	off int
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrCorrupt, r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) string() (string, error) {
	b, err := r.bytes(2)
	if err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint16(b))
	s, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	return string(s), nil
}
