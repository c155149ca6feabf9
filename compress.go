package logcol

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic(err)
	}
	zstdEncoder = enc

	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	zstdDecoder = dec
}

// compressBlock compresses src with the given codec and appends a single
// codec indicator byte. Blocks that do not shrink by at least a quarter are
// stored raw.
func compressBlock(c Compression, src []byte) []byte {
	var enc []byte
	var indicator byte

	switch c {
	case ZstdCompression:
		enc = zstdEncoder.EncodeAll(src, nil)
		indicator = blockZstdCompression
	case SnappyCompression:
		enc = snappy.Encode(nil, src)
		indicator = blockSnappyCompression
	}

	if enc != nil && len(enc) < len(src)-len(src)/4 {
		return append(enc, indicator)
	}

	block := make([]byte, 0, len(src)+1)
	block = append(block, src...)
	return append(block, blockNoCompression)
}

// decompressBlock reverses compressBlock.
func decompressBlock(block []byte) ([]byte, error) {
	if len(block) == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrCompression)
	}

	body := block[:len(block)-1]
	switch block[len(block)-1] {
	case blockNoCompression:
		return body, nil
	case blockZstdCompression:
		plain, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompression, err)
		}
		return plain, nil
	case blockSnappyCompression:
		plain, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompression, err)
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec indicator %d", ErrCompression, block[len(block)-1])
	}
}
