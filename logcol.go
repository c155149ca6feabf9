package logcol

import "errors"

// magic identifies a logcol segment. The first four bytes are a UTF-8
// squirrel, the remainder names the format version.
var magic = []byte{0xf0, 0x9f, 0x90, 0xbf, 'l', 'o', 'g', 'c', 'o', 'l', '0', '1'}

// keyDelim joins nested object keys into flattened column names.
const keyDelim = '.'

// Header flag bits, stored in the byte following the record count.
const (
	flagPermuted    = 1 << 0 // a permutation block follows
	flagPatternized = 1 << 1 // values were split into templates + variables
)

// varPrefix marks columns holding extracted pattern variables.
const varPrefix = "var_"

// maxRecordCount is the largest record count a segment may declare. The
// decoder validates the header count against it before sizing any allocation.
const maxRecordCount = 1 << 32

var (
	// ErrUnsupportedValue is returned by the encoder when a leaf is not a
	// non-empty string (arrays, numbers, booleans and nulls are not supported).
	ErrUnsupportedValue = errors.New("logcol: unsupported value")
	// ErrMalformedKey is returned when an object key is empty, contains the
	// path delimiter, or when a flattened path is both a leaf and a prefix.
	ErrMalformedKey = errors.New("logcol: malformed key")
	// ErrFormat is returned by the decoder when the magic header does not
	// match or a structural field is truncated or invalid.
	ErrFormat = errors.New("logcol: invalid segment format")
	// ErrCorruptDictionary is returned when a column references a dictionary
	// node that does not exist.
	ErrCorruptDictionary = errors.New("logcol: corrupt dictionary")
	// ErrColumnMismatch is returned when the run lengths of a column do not
	// add up to the segment record count.
	ErrColumnMismatch = errors.New("logcol: column length mismatch")
	// ErrUnknownIndex is returned by Trie.Value for unassigned indices.
	ErrUnknownIndex = errors.New("logcol: unknown dictionary index")
	// ErrCompression is returned when a compressed block cannot be decoded.
	ErrCompression = errors.New("logcol: bad compressed block")

	errClosed = errors.New("logcol: is closed")
)

// Compression is the block compression codec.
type Compression byte

func (c Compression) isValid() bool {
	return c >= ZstdCompression && c < unknownCompression
}

// Supported compression codecs.
const (
	ZstdCompression Compression = iota
	SnappyCompression
	NoCompression
	unknownCompression
)

// Block indicator bytes. Incompressible blocks are stored raw regardless of
// the configured codec, so the indicator is recorded per block.
const (
	blockNoCompression     = 0
	blockZstdCompression   = 1
	blockSnappyCompression = 2
)
