package logcol_test

import (
	"strings"

	"github.com/bsm/logcol"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Flatten", func() {
	It("should flatten nested objects", func() {
		flat, err := logcol.Flatten(map[string]any{
			"a": "1",
			"b": map[string]any{
				"c": "2",
				"d": map[string]any{"e": "3"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(flat).To(Equal(map[string]string{
			"a":     "1",
			"b.c":   "2",
			"b.d.e": "3",
		}))
	})

	It("should flatten empty objects", func() {
		Expect(logcol.Flatten(map[string]any{})).To(BeEmpty())
	})

	It("should reject non-string leaves", func() {
		_, err := logcol.Flatten(map[string]any{"a": 42.0})
		Expect(err).To(MatchError(logcol.ErrUnsupportedValue))

		_, err = logcol.Flatten(map[string]any{"a": map[string]any{"b": true}})
		Expect(err).To(MatchError(logcol.ErrUnsupportedValue))

		_, err = logcol.Flatten(map[string]any{"a": nil})
		Expect(err).To(MatchError(logcol.ErrUnsupportedValue))
	})

	It("should reject arrays", func() {
		_, err := logcol.Flatten(map[string]any{"a": []any{"x", "y"}})
		Expect(err).To(MatchError(logcol.ErrUnsupportedValue))
	})

	It("should reject keys containing the delimiter", func() {
		_, err := logcol.Flatten(map[string]any{"a.b": "x"})
		Expect(err).To(MatchError(logcol.ErrMalformedKey))
	})

	It("should reject empty keys", func() {
		_, err := logcol.Flatten(map[string]any{"": "x"})
		Expect(err).To(MatchError(logcol.ErrMalformedKey))
	})

	It("should handle very deep nesting", func() {
		obj := map[string]any{"leaf": "v"}
		for i := 0; i < 10000; i++ {
			obj = map[string]any{"n": obj}
		}

		flat, err := logcol.Flatten(obj)
		Expect(err).NotTo(HaveOccurred())
		Expect(flat).To(HaveLen(1))

		key := strings.Repeat("n.", 10000) + "leaf"
		Expect(flat).To(HaveKeyWithValue(key, "v"))

		restored, err := logcol.Unflatten(flat)
		Expect(err).NotTo(HaveOccurred())
		Expect(restored).To(Equal(obj))
	})
})

var _ = Describe("Unflatten", func() {
	It("should invert Flatten", func() {
		obj := map[string]any{
			"a": "1",
			"b": map[string]any{
				"c": "2",
				"d": map[string]any{"e": "3"},
			},
		}
		flat, err := logcol.Flatten(obj)
		Expect(err).NotTo(HaveOccurred())
		Expect(logcol.Unflatten(flat)).To(Equal(obj))
	})

	It("should reject paths conflicting with leaves", func() {
		_, err := logcol.Unflatten(map[string]string{
			"a":   "x",
			"a.b": "y",
		})
		Expect(err).To(MatchError(logcol.ErrMalformedKey))
	})
})
