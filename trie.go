package logcol

import (
	"bytes"
	"fmt"
	"sort"
)

// Trie is a radix tree over the distinct string values of one column. Each
// distinct value owns a terminal node carrying a positive dictionary index;
// index 0 is reserved to mean "no value". Indices are assigned in
// first-encounter order with no gaps.
//
// Children are kept ordered by their first prefix byte, so serialization is
// reproducible given the same insertion sequence.
type Trie struct {
	root trieNode
	size uint32
}

type trieNode struct {
	prefix   string
	index    uint32 // dictionary index, 0 for non-terminal nodes
	children []*trieNode
}

// Insert adds a value to the trie, splitting existing nodes when the value
// shares a proper prefix with them, and returns its dictionary index. Values
// already present keep their original index.
func (t *Trie) Insert(value string) uint32 {
	node := &t.root
	rest := value

	for {
		if rest == "" {
			if node.index == 0 {
				t.size++
				node.index = t.size
			}
			return node.index
		}

		child, pos := node.find(rest[0])
		if child == nil {
			t.size++
			leaf := &trieNode{prefix: rest, index: t.size}
			node.children = append(node.children, nil)
			copy(node.children[pos+1:], node.children[pos:])
			node.children[pos] = leaf
			return leaf.index
		}

		n := commonPrefixLen(child.prefix, rest)
		if n == len(child.prefix) {
			node, rest = child, rest[n:]
			continue
		}

		// Split the child: the shared prefix becomes an inner node, the
		// remainder of the original child moves below it.
		lower := &trieNode{prefix: child.prefix[n:], index: child.index, children: child.children}
		child.prefix = child.prefix[:n]
		child.index = 0
		child.children = []*trieNode{lower}

		if n == len(rest) {
			t.size++
			child.index = t.size
			return child.index
		}

		t.size++
		leaf := &trieNode{prefix: rest[n:], index: t.size}
		if leaf.prefix[0] < lower.prefix[0] {
			child.children = []*trieNode{leaf, lower}
		} else {
			child.children = []*trieNode{lower, leaf}
		}
		return leaf.index
	}
}

// Len returns the number of distinct values in the trie.
func (t *Trie) Len() int { return int(t.size) }

// Value reconstructs the value stored under a dictionary index by walking the
// tree and accumulating prefixes. It returns ErrUnknownIndex when no terminal
// node carries the index.
func (t *Trie) Value(index uint32) (string, error) {
	if index == 0 || index > t.size {
		return "", fmt.Errorf("%w: %d", ErrUnknownIndex, index)
	}
	if t.root.index == index {
		return "", nil // the root is the terminal for the empty value
	}

	type frame struct {
		node   *trieNode
		parent string
	}
	stack := make([]frame, 0, 8)
	for i := len(t.root.children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: t.root.children[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		acc := f.parent + f.node.prefix
		if f.node.index == index {
			return acc, nil
		}
		for i := len(f.node.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.children[i], parent: acc})
		}
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownIndex, index)
}

// appendNodes serializes the trie depth-first: per node a 0-terminated prefix
// string and a 1-byte child count, terminated by a single sentinel zero byte
// once the root's children are exhausted. Node ids are implicit, counting up
// from 1 in visitation order; the returned remap translates dictionary
// indices into node ids for use in the column.
func (t *Trie) appendNodes(dst []byte) ([]byte, []uint32, error) {
	if t.root.index != 0 {
		// A terminal root holds the empty value, which has no node in the
		// stream: its zero-length prefix would read as the sentinel.
		return nil, nil, fmt.Errorf("%w: empty value has no node representation", ErrFormat)
	}
	remap := make([]uint32, t.size+1)

	type frame struct {
		node *trieNode
		next int
	}
	stack := []frame{{node: &t.root}}
	var id uint32

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next == len(f.node.children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := f.node.children[f.next]
		f.next++

		if len(child.children) > 255 {
			return nil, nil, fmt.Errorf("%w: trie node with %d children", ErrFormat, len(child.children))
		}

		id++
		if child.index != 0 {
			remap[child.index] = id
		}
		dst = append(dst, child.prefix...)
		dst = append(dst, 0, byte(len(child.children)))
		stack = append(stack, frame{node: child})
	}
	return append(dst, 0), remap, nil
}

func (n *trieNode) find(b byte) (*trieNode, int) {
	pos := sort.Search(len(n.children), func(i int) bool {
		return n.children[i].prefix[0] >= b
	})
	if pos < len(n.children) && n.children[pos].prefix[0] == b {
		return n.children[pos], pos
	}
	return nil, pos
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// --------------------------------------------------------------------

// dict is the decode-side counterpart of a Trie: node id to value, with ids
// assigned in the depth-first order of the serialized stream.
type dict struct {
	values []string
}

// parseTrieNodes rebuilds the dictionary from a decompressed trie stream.
func parseTrieNodes(data []byte) (*dict, error) {
	type frame struct {
		prefix    string
		remaining int
	}

	d := new(dict)
	var stack []frame
	pos := 0

	for {
		for len(stack) > 0 && stack[len(stack)-1].remaining == 0 {
			stack = stack[:len(stack)-1]
		}

		nul := bytes.IndexByte(data[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: unterminated node prefix", ErrCorruptDictionary)
		}
		prefix := string(data[pos : pos+nul])
		pos += nul + 1

		if prefix == "" {
			if len(stack) > 0 {
				return nil, fmt.Errorf("%w: zero-length node prefix", ErrCorruptDictionary)
			}
			break // sentinel
		}
		if pos >= len(data) {
			return nil, fmt.Errorf("%w: missing child count", ErrCorruptDictionary)
		}
		count := int(data[pos])
		pos++

		full := prefix
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			full = top.prefix + prefix
			top.remaining--
		}
		d.values = append(d.values, full)

		if count > 0 {
			stack = append(stack, frame{prefix: full, remaining: count})
		}
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after sentinel", ErrCorruptDictionary, len(data)-pos)
	}
	return d, nil
}

func (d *dict) value(id uint32) (string, error) {
	if id == 0 || int(id) > len(d.values) {
		return "", fmt.Errorf("%w: %d", ErrUnknownIndex, id)
	}
	return d.values[id-1], nil
}
