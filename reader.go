package logcol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Decode reconstructs the original JSON objects from an encoded segment,
// in their original order.
func Decode(data []byte) ([]map[string]any, error) {
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return r.Records()
}

// Reader parses an encoded segment. The whole segment is read, validated and
// column-decoded up front; Records then zips the columns back into objects.
type Reader struct {
	count       uint64
	perm        []uint64 // encoded position -> original position, nil if unchanged
	patternized bool

	names []string
	dicts []*dict
	cells [][]uint32
}

// NewReader reads and parses a segment.
func NewReader(src io.Reader) (*Reader, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return parseSegment(data)
}

// RecordCount returns the number of records in the segment.
func (r *Reader) RecordCount() uint64 { return r.count }

// Fields returns the column names in their stored (ascending cardinality)
// order.
func (r *Reader) Fields() []string { return r.names }

// Records reconstructs the records: for every encoded position the non-zero
// cells are resolved through their dictionaries, the flattened mapping is
// unflattened, and the stored permutation (if any) restores original order.
// Any failure aborts the whole decode; no partial records are returned.
func (r *Reader) Records() ([]map[string]any, error) {
	out := make([]map[string]any, r.count)

	for i := uint64(0); i < r.count; i++ {
		var vars map[string]string
		if r.patternized {
			vars = make(map[string]string)
			for j, name := range r.names {
				if !strings.HasPrefix(name, varPrefix) {
					continue
				}
				if id := r.cells[j][i]; id != 0 {
					v, err := r.dicts[j].value(id)
					if err != nil {
						return nil, fmt.Errorf("field %q, record %d: %w", name, i, ErrCorruptDictionary)
					}
					vars[name] = v
				}
			}
		}

		flat := make(map[string]string, len(r.names))
		for j, name := range r.names {
			if r.patternized && strings.HasPrefix(name, varPrefix) {
				continue
			}
			id := r.cells[j][i]
			if id == 0 {
				continue
			}
			v, err := r.dicts[j].value(id)
			if err != nil {
				return nil, fmt.Errorf("field %q, record %d: %w", name, i, ErrCorruptDictionary)
			}
			if r.patternized {
				v = rehydrate(v, vars)
			}
			flat[name] = v
		}

		obj, err := Unflatten(flat)
		if err != nil {
			return nil, err
		}

		slot := i
		if r.perm != nil {
			slot = r.perm[i]
		}
		out[slot] = obj
	}
	return out, nil
}

// --------------------------------------------------------------------

func parseSegment(data []byte) (*Reader, error) {
	if len(data) < len(magic)+9 {
		return nil, fmt.Errorf("%w: truncated header", ErrFormat)
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad magic header", ErrFormat)
	}
	pos := len(magic)

	r := new(Reader)
	r.count = binary.LittleEndian.Uint64(data[pos:])
	pos += 8
	if r.count > maxRecordCount {
		return nil, fmt.Errorf("%w: record count %d", ErrFormat, r.count)
	}

	flags := data[pos]
	pos++
	if flags&^(flagPermuted|flagPatternized) != 0 {
		return nil, fmt.Errorf("%w: unknown flags 0x%02x", ErrFormat, flags)
	}
	r.patternized = flags&flagPatternized != 0

	if flags&flagPermuted != 0 {
		var err error
		if pos, err = r.parsePermutation(data, pos); err != nil {
			return nil, err
		}
	}

	// Dictionary section: 0-terminated key name plus trie block per field,
	// terminated by a single zero byte.
	var trieBlocks [][]byte
	for {
		if pos >= len(data) {
			return nil, fmt.Errorf("%w: truncated dictionary section", ErrFormat)
		}
		nul := bytes.IndexByte(data[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: unterminated key name at offset %d", ErrFormat, pos)
		}
		name := string(data[pos : pos+nul])
		pos += nul + 1
		if name == "" {
			break
		}

		block, next, err := readBlock(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next

		r.names = append(r.names, name)
		trieBlocks = append(trieBlocks, block)
	}

	// Column section, same field order: two width bytes plus a column block.
	type colInfo struct {
		idWidth  int
		lenWidth int
		block    []byte
	}
	cols := make([]colInfo, len(r.names))
	for i, name := range r.names {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated column header for field %q", ErrFormat, name)
		}
		iw, lw := int(data[pos]), int(data[pos+1])
		pos += 2
		if iw < 1 || iw > 8 || lw < 1 || lw > 8 {
			return nil, fmt.Errorf("%w: field %q declares widths %d/%d", ErrFormat, name, iw, lw)
		}

		block, next, err := readBlock(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		cols[i] = colInfo{idWidth: iw, lenWidth: lw, block: block}
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(data)-pos)
	}

	// Fields decode independently: dictionary parse, column expansion and
	// cross-validation run per field on their own goroutines.
	r.dicts = make([]*dict, len(r.names))
	r.cells = make([][]uint32, len(r.names))

	g := new(errgroup.Group)
	for i := range r.names {
		i := i
		g.Go(func() error {
			name := r.names[i]

			stream, err := decompressBlock(trieBlocks[i])
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			d, err := parseTrieNodes(stream)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}

			payload, err := decompressBlock(cols[i].block)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			cells, err := expandRuns(payload, cols[i].idWidth, cols[i].lenWidth, r.count)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			for _, id := range cells {
				if int(id) > len(d.values) {
					return fmt.Errorf("field %q: %w: node id %d of %d", name, ErrCorruptDictionary, id, len(d.values))
				}
			}

			r.dicts[i] = d
			r.cells[i] = cells
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) parsePermutation(data []byte, pos int) (int, error) {
	if pos >= len(data) {
		return 0, fmt.Errorf("%w: truncated permutation header", ErrFormat)
	}
	width := int(data[pos])
	pos++
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("%w: permutation width %d", ErrFormat, width)
	}

	block, next, err := readBlock(data, pos)
	if err != nil {
		return 0, err
	}
	pos = next

	payload, err := decompressBlock(block)
	if err != nil {
		return 0, err
	}
	if uint64(len(payload))/uint64(width) != r.count || uint64(len(payload))%uint64(width) != 0 {
		return 0, fmt.Errorf("%w: permutation block holds %d bytes for %d records", ErrFormat, len(payload), r.count)
	}

	perm := make([]uint64, r.count)
	seen := make([]bool, r.count)
	for i := range perm {
		p := uintN(payload[i*width:], width)
		if p >= r.count || seen[p] {
			return 0, fmt.Errorf("%w: permutation is not a bijection", ErrFormat)
		}
		seen[p] = true
		perm[i] = p
	}
	r.perm = perm
	return pos, nil
}

// readBlock reads a 4-byte length-prefixed block, validating the length
// against the remaining input before touching the payload.
func readBlock(data []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated block length at offset %d", ErrFormat, pos)
	}
	n := binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	if uint64(pos)+uint64(n) > uint64(len(data)) {
		return nil, 0, fmt.Errorf("%w: block length %d exceeds remaining %d bytes", ErrFormat, n, len(data)-pos)
	}
	return data[pos : pos+int(n)], pos + int(n), nil
}
