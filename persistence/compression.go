package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the per-section payload codec.
type Compression uint8

const (
	// CompressionNone stores sections raw.
	CompressionNone Compression = 0
	// CompressionLZ4 favors write speed; useful on fast local disks.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favors ratio; the default for artifacts that ship.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress returns the stored payload and the codec actually used. Payloads
// that do not shrink below 90% stay raw; BWT runs compress very well, sampled
// coordinate pairs often do not.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("persistence: lz4 compress: %w", err)
		}
		if n == 0 { // incompressible
			return data, CompressionNone, nil
		}
		out = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("persistence: unknown compression %d", c)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

// decompress restores a stored payload. The result never aliases stored:
// raw sections come straight out of the reader's memory mapping, and the
// caller's copy must stay valid after the mapping is gone.
func decompress(stored []byte, uncompressed uint64, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		out := make([]byte, len(stored))
		copy(out, stored)
		return out, nil
	case CompressionLZ4:
		out := make([]byte, uncompressed)
		n, err := lz4.UncompressBlock(stored, out)
		if err != nil {
			return nil, fmt.Errorf("persistence: lz4 decompress: %w", err)
		}
		return out[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(stored, make([]byte, 0, uncompressed))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("persistence: zstd decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("persistence: unknown compression %d", c)
	}
}
