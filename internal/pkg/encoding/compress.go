package encoding

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func initZstd() {
	zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if zstdErr != nil {
		return
	}
	zstdDec, zstdErr = zstd.NewReader(nil)
}

// Compress zstd-compresses src.
func Compress(src []byte) ([]byte, error) {
	zstdOnce.Do(initZstd)
	if zstdErr != nil {
		return nil, fmt.Errorf("encoding: zstd init: %w", zstdErr)
	}
	return zstdEnc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

// Decompress reverses Compress.
func Decompress(src []byte) ([]byte, error) {
	zstdOnce.Do(initZstd)
	if zstdErr != nil {
		return nil, fmt.Errorf("encoding: zstd init: %w", zstdErr)
	}
	out, err := zstdDec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("encoding: zstd decode: %w", err)
	}
	return out, nil
}
