/*
Package logcol implements a columnar storage codec for batches of JSON log
records. Records may nest arbitrarily deep but every leaf must be a string;
nested keys are flattened into dot-joined column names. Each column stores its
distinct values once, in a prefix-compressed dictionary trie, and the records
become run-length encoded sequences of dictionary references. Columns are
ordered by estimated cardinality and records are sorted along that order
before encoding, which maximises run lengths; the applied permutation is
stored so decoding restores the original record order exactly.

# Data Structure Documentation

# Segment

A segment is one self-contained encoded batch: a fixed header, an optional
permutation block, a dictionary section and a column section.

	Segment layout:
	+------------------+------------------------+----------------+-----------------------------+--------------------+----------------+
	| magic (12 bytes) | record count (8 bytes) | flags (1 byte) | permutation block, optional | dictionary section | column section |
	+------------------+------------------------+----------------+-----------------------------+--------------------+----------------+

All integers are little-endian. Flag bit 0 indicates a permutation block,
bit 1 indicates patternized values.

	Permutation block:
	+------------------------+------------------------+----------------------------------------------------+
	| position width (1 byte)| block length (4 bytes) | block: one original position per record, fixed width|
	+------------------------+------------------------+----------------------------------------------------+

# Dictionary section

One entry per column, in ascending order of estimated cardinality
(lexicographic on ties), terminated by a single zero byte.

	+--------------------------+------------------------+------------+-------+------------------+
	| key name (0-terminated)  | block length (4 bytes) | trie block |  ...  | 0x00 terminator  |
	+--------------------------+------------------------+------------+-------+------------------+

A trie block is the depth-first node stream of the column's value dictionary:
per node a 0-terminated prefix string and a 1-byte child count, with a single
sentinel zero byte after the root's children are exhausted. Node ids are
implicit, counting up from 1 in stream order; the column references values by
node id, with 0 meaning the record has no value for this column.

	Trie stream:
	+---------------------+----------------------+----------+-------+---------------------+
	| prefix 1 (0-term.)  | child count (1 byte) | children |  ...  | sentinel (1 byte)   |
	+---------------------+----------------------+----------+-------+---------------------+

# Column section

One entry per column, same order as the dictionary section.

	+----------------------+-----------------------+------------------------+--------------+
	| id width (1 byte)    | run width (1 byte)    | block length (4 bytes) | column block |
	+----------------------+-----------------------+------------------------+--------------+

A column block is a sequence of (node id, run length) pairs using the two
declared byte widths; run lengths add up to the record count.

# Blocks

Every block (permutation, trie, column) is stored compressed with a single
trailing codec indicator byte (0 raw, 1 zstd, 2 snappy). Writers fall back to
the raw payload when compression does not pay; the 4-byte block length always
covers payload plus indicator.
*/
package logcol
