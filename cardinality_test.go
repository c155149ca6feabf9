package logcol

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("estimator", func() {
	It("should approximate large distinct counts", func() {
		subject := newEstimator()
		for i := 0; i < 10000; i++ {
			subject.Add(fmt.Sprintf("value-%d", i))
		}
		Expect(subject.Estimate()).To(BeNumerically("~", 10000, 600))
	})

	It("should not count duplicates", func() {
		subject := newEstimator()
		for i := 0; i < 1000; i++ {
			subject.Add("a")
			subject.Add("b")
			subject.Add("c")
		}
		Expect(subject.Estimate()).To(BeNumerically("~", 3, 1))
	})

	It("should report zero for empty streams", func() {
		Expect(newEstimator().Estimate()).To(Equal(uint64(0)))
	})

	It("should be order-independent", func() {
		fwd, rev := newEstimator(), newEstimator()
		for i := 0; i < 100; i++ {
			fwd.Add(fmt.Sprintf("v%d", i))
			rev.Add(fmt.Sprintf("v%d", 99-i))
		}
		Expect(fwd.Estimate()).To(Equal(rev.Estimate()))
	})
})
