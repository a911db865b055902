package gridgo

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the snapshot payload compression.
type CompressionType uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZstd uses zstd block compression (better ratio).
	CompressionZstd CompressionType = 2
)

// String returns the string representation of a CompressionType.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Encoder/decoder pools so repeated snapshots reuse zstd state.
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

// compressPayload compresses data per the requested type. It returns
// the compressed bytes and the type actually used: an incompressible
// payload falls back to CompressionNone rather than growing.
func compressPayload(data []byte, compression CompressionType) ([]byte, CompressionType, error) {
	if compression == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	switch compression {
	case CompressionLZ4:
		var c lz4.Compressor
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := c.CompressBlock(data, dst)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return data, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil

	case CompressionZstd:
		enc := getZstdEncoder()
		dst := enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
		if len(dst) >= len(data) {
			return data, CompressionNone, nil
		}
		return dst, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}
}

// decompressPayload reverses compressPayload. uncompressedSize comes
// from the snapshot header.
func decompressPayload(data []byte, compression CompressionType, uncompressedSize int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return dst[:n], nil

	case CompressionZstd:
		dec := getZstdDecoder()
		dst, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}
}
