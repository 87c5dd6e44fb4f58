package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how the snapshot body is compressed.
type Compression string

const (
	// None stores the body uncompressed.
	None Compression = "none"

	// Zstd compresses with zstd (default). Best ratio for the JSON-heavy
	// bodies a cache snapshot produces.
	Zstd Compression = "zstd"

	// LZ4 compresses with the lz4 frame format. Lower ratio than zstd but
	// cheaper to encode, for callers snapshotting very frequently.
	LZ4 Compression = "lz4"
)

// zstd encoder/decoder instances are stateless in EncodeAll/DecodeAll mode
// and safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func compress(comp Compression, raw []byte) ([]byte, error) {
	switch comp {
	case None:
		return raw, nil
	case Zstd:
		return zstdEncoder.EncodeAll(raw, nil), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("snapshot: lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("snapshot: lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, comp)
	}
}

func decompress(comp Compression, body []byte) ([]byte, error) {
	switch comp {
	case None:
		return body, nil
	case Zstd:
		raw, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		return raw, nil
	case LZ4:
		raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %q (%w)", ErrUnknownCompression, comp, ErrCorrupt)
	}
}
