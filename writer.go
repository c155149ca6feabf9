package logcol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// The compression codec for trie, column and permutation blocks.
	// Default: ZstdCompression.
	Compression Compression

	// Patternize splits leaf values into message templates plus extracted
	// variable columns before dictionary encoding. Keys starting with "var_"
	// are reserved for those columns and rejected while this is on, and exact
	// round trips are only guaranteed for inputs that contain no literal
	// "{var_" text.
	// Default: false.
	Patternize bool

	// NoReorder keeps records in insertion order instead of sorting them by
	// ascending-cardinality column values. Compresses worse, encodes faster.
	// Default: false.
	NoReorder bool
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}
	if !oo.Compression.isValid() {
		oo.Compression = ZstdCompression
	}
	return &oo
}

// Encode converts a batch of JSON objects into a segment.
func Encode(records []map[string]any, o *WriterOptions) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf, o)
	for _, obj := range records {
		if err := w.Append(obj); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --------------------------------------------------------------------

// fieldColumn is the per-column build state: the value dictionary, one cell
// per ingested record (0 = absent) and a cardinality sketch.
type fieldColumn struct {
	trie  *Trie
	cells []uint32
	card  *estimator
}

// Writer accumulates records and writes the encoded segment on Close. The
// full batch is held in memory until then.
type Writer struct {
	w io.Writer
	o *WriterOptions

	fields map[string]*fieldColumn
	count  uint64
	closed bool
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	return &Writer{
		w:      w,
		o:      o.norm(),
		fields: make(map[string]*fieldColumn),
	}
}

// Append ingests a single JSON object. The object is flattened and each leaf
// value inserted into its column's dictionary; columns the record does not
// populate receive an absent cell. Records are immutable once appended.
func (w *Writer) Append(obj map[string]any) error {
	if w.closed {
		return errClosed
	}
	if w.count == maxRecordCount {
		return fmt.Errorf("%w: segment already holds %d records", ErrFormat, w.count)
	}

	flat, err := Flatten(obj)
	if err != nil {
		return err
	}
	if w.o.Patternize {
		for key := range flat {
			if strings.HasPrefix(key, varPrefix) {
				return fmt.Errorf("%w: %q is reserved while patternizing", ErrMalformedKey, key)
			}
		}
		flat = patternize(flat)
	}

	// Validate the whole record before touching any column state, so a bad
	// leaf cannot leave columns half-appended.
	for key, value := range flat {
		if strings.IndexByte(key, 0) >= 0 {
			return fmt.Errorf("%w: %q contains a NUL byte", ErrMalformedKey, key)
		}
		if value == "" {
			return fmt.Errorf("%w: field %q holds an empty string", ErrUnsupportedValue, key)
		}
		if strings.IndexByte(value, 0) >= 0 {
			return fmt.Errorf("%w: field %q contains a NUL byte", ErrUnsupportedValue, key)
		}
	}

	for key, value := range flat {
		fc := w.field(key)
		fc.cells = append(fc.cells, fc.trie.Insert(value))
		fc.card.Add(value)
	}
	w.count++

	for _, fc := range w.fields {
		if uint64(len(fc.cells)) < w.count {
			fc.cells = append(fc.cells, 0)
		}
	}
	return nil
}

func (w *Writer) field(key string) *fieldColumn {
	fc := w.fields[key]
	if fc == nil {
		fc = &fieldColumn{trie: new(Trie), card: newEstimator()}
		if w.count > 0 {
			fc.cells = make([]uint32, w.count) // absent in all prior records
		}
		w.fields[key] = fc
	}
	return fc
}

// Close reorders, serializes and writes the segment, then invalidates the
// writer.
func (w *Writer) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true

	names := fieldOrder(w.fields)
	columns := make([][]uint32, len(names))
	for i, name := range names {
		columns[i] = w.fields[name].cells
	}

	var perm []uint64
	if !w.o.NoReorder && w.count > 1 {
		perm = sortRecords(columns, int(w.count))
	}

	type fieldBlock struct {
		trieBlock []byte
		colBlock  []byte
		idWidth   byte
		lenWidth  byte
	}
	blocks := make([]fieldBlock, len(names))

	// Columns are independent of each other until the final write, so each
	// field is serialized and compressed on its own goroutine.
	g := new(errgroup.Group)
	for i, name := range names {
		i, fc := i, w.fields[name]
		g.Go(func() error {
			stream, remap, err := fc.trie.appendNodes(nil)
			if err != nil {
				return err
			}

			mapped := make([]uint32, len(fc.cells))
			for j, id := range fc.cells {
				mapped[j] = remap[id]
			}
			runs := rleEncode(mapped)
			iw, lw := columnWidths(runs)
			payload := appendRuns(make([]byte, 0, len(runs)*(iw+lw)), runs, iw, lw)

			blocks[i] = fieldBlock{
				trieBlock: compressBlock(w.o.Compression, stream),
				colBlock:  compressBlock(w.o.Compression, payload),
				idWidth:   byte(iw),
				lenWidth:  byte(lw),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	buf := make([]byte, 0, 1<<10)
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint64(buf, w.count)

	var flags byte
	if perm != nil {
		flags |= flagPermuted
	}
	if w.o.Patternize {
		flags |= flagPatternized
	}
	buf = append(buf, flags)

	if perm != nil {
		width := byteLen(w.count - 1)
		payload := make([]byte, 0, len(perm)*width)
		for _, p := range perm {
			payload = appendUintN(payload, p, width)
		}
		block := compressBlock(w.o.Compression, payload)
		buf = append(buf, byte(width))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(block)))
		buf = append(buf, block...)
	}

	for i, name := range names {
		buf = append(buf, name...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(blocks[i].trieBlock)))
		buf = append(buf, blocks[i].trieBlock...)
	}
	buf = append(buf, 0) // end of dictionary section

	for i := range names {
		b := &blocks[i]
		buf = append(buf, b.idWidth, b.lenWidth)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.colBlock)))
		buf = append(buf, b.colBlock...)
	}

	_, err := w.w.Write(buf)
	return err
}
