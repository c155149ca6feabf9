package logcol

import "sort"

// fieldOrder returns column names sorted ascending by estimated cardinality,
// tie-broken lexicographically. Low-cardinality columns lead so that record
// sorting clusters their repeats into long runs.
func fieldOrder(fields map[string]*fieldColumn) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := fields[names[i]].card.Estimate(), fields[names[j]].card.Estimate()
		if ci != cj {
			return ci < cj
		}
		return names[i] < names[j]
	})
	return names
}

// sortRecords stably sorts record positions by the column values in field
// priority order and permutes every column accordingly. The returned
// permutation maps encoded position to original position; nil means the
// order did not change.
func sortRecords(columns [][]uint32, count int) []uint64 {
	perm := make([]uint64, count)
	for i := range perm {
		perm[i] = uint64(i)
	}

	sort.SliceStable(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		for _, col := range columns {
			if col[i] != col[j] {
				return col[i] < col[j]
			}
		}
		return false
	})

	identity := true
	for i, p := range perm {
		if p != uint64(i) {
			identity = false
			break
		}
	}
	if identity {
		return nil
	}

	tmp := make([]uint32, count)
	for _, col := range columns {
		for i, p := range perm {
			tmp[i] = col[p]
		}
		copy(col, tmp)
	}
	return perm
}
