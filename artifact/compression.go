package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec applied to matrix blobs.
type Compression uint8

const (
	// CompressionNone stores matrices as is.
	CompressionNone Compression = 0
	// CompressionLZ4 favours speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favours ratio.
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
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

const (
	// MagicNumber identifies matrix blobs ("SSM1").
	MagicNumber uint32 = 0x53534D31
	// Version is the matrix blob format version.
	Version uint16 = 1
	// HeaderSize is the fixed header length.
	HeaderSize = 24
)

// ErrInvalidFormat is returned for corrupt or foreign matrix blobs.
var ErrInvalidFormat = errors.New("invalid artifact format")

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

// encodeBlob frames raw as
//
//	[magic u32][version u16][compression u8][reserved u8][raw u64][stored u64][payload]
//
// The payload falls back to CompressionNone when compression saves less
// than 10%.
func encodeBlob(raw []byte, c Compression) ([]byte, error) {
	payload := raw
	used := CompressionNone

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			payload, used = buf[:n], CompressionLZ4
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload, used = enc.EncodeAll(raw, nil), CompressionZSTD
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}

	if used != CompressionNone && (len(payload) == 0 || float64(len(payload)) > float64(len(raw))*0.9) {
		payload, used = raw, CompressionNone
	}

	out := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:], MagicNumber)
	binary.LittleEndian.PutUint16(out[4:], Version)
	out[6] = byte(used)
	binary.LittleEndian.PutUint64(out[8:], uint64(len(raw)))
	binary.LittleEndian.PutUint64(out[16:], uint64(len(payload)))
	copy(out[HeaderSize:], payload)
	return out, nil
}

func decodeBlob(data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: blob too small for header", ErrInvalidFormat)
	}
	if binary.LittleEndian.Uint32(data[0:]) != MagicNumber {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, v)
	}
	c := Compression(data[6])
	rawSize := binary.LittleEndian.Uint64(data[8:])
	storedSize := binary.LittleEndian.Uint64(data[16:])
	if uint64(len(data)-HeaderSize) != storedSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrInvalidFormat, len(data)-HeaderSize, storedSize)
	}
	payload := data[HeaderSize:]

	switch c {
	case CompressionNone:
		if storedSize != rawSize {
			return nil, fmt.Errorf("%w: size mismatch", ErrInvalidFormat)
		}
		return payload, nil
	case CompressionLZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		if uint64(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrInvalidFormat)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		if uint64(len(out)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrInvalidFormat)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidFormat, c)
	}
}
