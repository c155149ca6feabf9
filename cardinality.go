package logcol

import (
	"math"
	"math/bits"

	"github.com/dchest/siphash"
)

// HyperLogLog parameters: 2^12 registers keep the standard error around 1.6%,
// which is plenty for ordering columns by cardinality.
const (
	hllBits = 12
	hllSize = 1 << hllBits
)

// Fixed siphash keys; the estimate only has to be stable, not keyed.
const (
	hllKey0 = 0x6c6f67636f6c3031
	hllKey1 = 0x736e74626c2d6a64
)

// estimator approximates the number of distinct values observed in a stream
// using constant memory.
type estimator struct {
	regs [hllSize]uint8
}

func newEstimator() *estimator { return new(estimator) }

// Add observes a single value.
func (e *estimator) Add(value string) {
	h := siphash.Hash(hllKey0, hllKey1, []byte(value))
	slot := h >> (64 - hllBits)

	rank := uint8(bits.LeadingZeros64(h<<hllBits)) + 1
	if max := uint8(64 - hllBits + 1); rank > max {
		rank = max
	}
	if rank > e.regs[slot] {
		e.regs[slot] = rank
	}
}

// Estimate returns the approximate distinct count.
func (e *estimator) Estimate() uint64 {
	const alpha = 0.7213 / (1 + 1.079/float64(hllSize))

	var sum float64
	var zeros int
	for _, r := range e.regs {
		sum += 1 / float64(uint64(1)<<r)
		if r == 0 {
			zeros++
		}
	}

	est := alpha * hllSize * hllSize / sum
	if est <= 2.5*hllSize && zeros > 0 {
		est = hllSize * math.Log(float64(hllSize)/float64(zeros))
	}
	return uint64(est + 0.5)
}
