package logcol

import (
	"fmt"
	"math/bits"
)

// A run is one RLE pair: a dictionary node id and the number of consecutive
// records carrying it. Id 0 is a run of absent values.
type run struct {
	id     uint32
	length uint64
}

// rleEncode collapses maximal runs of identical adjacent ids.
func rleEncode(cells []uint32) []run {
	if len(cells) == 0 {
		return nil
	}

	runs := make([]run, 0, 16)
	cur := run{id: cells[0], length: 1}
	for _, id := range cells[1:] {
		if id == cur.id {
			cur.length++
			continue
		}
		runs = append(runs, cur)
		cur = run{id: id, length: 1}
	}
	return append(runs, cur)
}

// columnWidths returns the number of bytes needed for the largest id and the
// largest run length, each with a floor of one byte.
func columnWidths(runs []run) (idWidth, lenWidth int) {
	var maxID uint32
	var maxLen uint64
	for _, r := range runs {
		if r.id > maxID {
			maxID = r.id
		}
		if r.length > maxLen {
			maxLen = r.length
		}
	}
	return byteLen(uint64(maxID)), byteLen(maxLen)
}

// appendRuns serializes runs as (id, length) pairs using the given
// little-endian byte widths.
func appendRuns(dst []byte, runs []run, idWidth, lenWidth int) []byte {
	for _, r := range runs {
		dst = appendUintN(dst, uint64(r.id), idWidth)
		dst = appendUintN(dst, r.length, lenWidth)
	}
	return dst
}

// expandRuns parses a serialized run stream and re-expands it into one id per
// record. It fails with ErrColumnMismatch unless the run lengths add up to
// exactly count with no bytes left over.
func expandRuns(data []byte, idWidth, lenWidth int, count uint64) ([]uint32, error) {
	size := count
	if max := uint64(1 << 20); size > max {
		size = max // grow on demand beyond this, count is untrusted
	}
	cells := make([]uint32, 0, size)
	pair := idWidth + lenWidth

	for pos := 0; pos < len(data); pos += pair {
		if pos+pair > len(data) {
			return nil, fmt.Errorf("%w: truncated run at offset %d", ErrColumnMismatch, pos)
		}
		id := uint32(uintN(data[pos:], idWidth))
		length := uintN(data[pos+idWidth:], lenWidth)

		if length == 0 || uint64(len(cells))+length > count {
			return nil, fmt.Errorf("%w: run lengths exceed %d records", ErrColumnMismatch, count)
		}
		for ; length > 0; length-- {
			cells = append(cells, id)
		}
	}

	if uint64(len(cells)) != count {
		return nil, fmt.Errorf("%w: got %d of %d records", ErrColumnMismatch, len(cells), count)
	}
	return cells, nil
}

// byteLen returns the minimal number of bytes representing v, at least 1.
func byteLen(v uint64) int {
	if n := (bits.Len64(v) + 7) / 8; n > 1 {
		return n
	}
	return 1
}

func appendUintN(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v))
		v >>= 8
	}
	return dst
}

func uintN(src []byte, width int) uint64 {
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(src[i])
	}
	return v
}
