package logcol_test

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bsm/logcol"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	It("should round trip simple logs", func() {
		records := []map[string]any{
			{"timestamp": "2024-10-19T14:00:00", "level": "INFO", "message": "Log message 1"},
			{"timestamp": "2024-10-19T14:01:00", "level": "ERROR", "message": "Log message 2"},
			{"timestamp": "2024-10-19T14:02:00", "level": "INFO", "message": "Log message 3"},
		}
		Expect(roundTrip(records, nil)).To(Equal(records))
	})

	It("should round trip nested objects", func() {
		records := []map[string]any{
			{"level": "INFO", "meta": map[string]any{"source": "app1", "id": "123"}},
			{"level": "ERROR", "meta": map[string]any{"source": "app2", "id": "124"}},
			{"level": "INFO", "meta": map[string]any{"source": "app3", "id": "125"}},
		}
		Expect(roundTrip(records, nil)).To(Equal(records))
	})

	It("should round trip records with missing fields", func() {
		records := []map[string]any{
			{"timestamp": "2024-10-19T14:00:00", "level": "INFO"},
			{"timestamp": "2024-10-19T14:01:00", "message": "Log message 2"},
			{},
			{"timestamp": "2024-10-19T14:02:00", "level": "ERROR", "message": "Log message 3"},
		}
		Expect(roundTrip(records, nil)).To(Equal(records))
	})

	It("should round trip values extending dictionary entries", func() {
		records := []map[string]any{{"mykey": "abc"}, {"mykey": "abcd"}}
		Expect(roundTrip(records, nil)).To(Equal(records))

		records = []map[string]any{{"mykey": "0"}, {"mykey": "1"}, {"mykey": "2"}, {"mykey": "10"}}
		Expect(roundTrip(records, nil)).To(Equal(records))
	})

	It("should round trip large batches", func() {
		records := seedLogs(1000)
		Expect(roundTrip(records, nil)).To(Equal(records))
	})

	It("should restore original order after reordering", func() {
		records := []map[string]any{
			{"a": "x", "b": "p"},
			{"a": "y"},
			{"a": "x", "b": "p"},
		}
		Expect(roundTrip(records, nil)).To(Equal(records))
	})

	It("should decode the single-run scenario", func() {
		// a: column [1,1,0], b: column [0,0,1]
		records := []map[string]any{{"a": "x"}, {"a": "x"}, {"b": "y"}}
		Expect(roundTrip(records, nil)).To(Equal(records))

		data, err := logcol.Encode(records, nil)
		Expect(err).NotTo(HaveOccurred())

		r, err := logcol.NewReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.RecordCount()).To(Equal(uint64(3)))
		Expect(r.Fields()).To(Equal([]string{"a", "b"}))
	})

	It("should round trip every compression codec", func() {
		records := seedLogs(50)
		for _, c := range []logcol.Compression{logcol.ZstdCompression, logcol.SnappyCompression, logcol.NoCompression} {
			Expect(roundTrip(records, &logcol.WriterOptions{Compression: c})).To(Equal(records), "codec %d", c)
		}
	})

	It("should round trip without reordering", func() {
		records := seedLogs(50)
		Expect(roundTrip(records, &logcol.WriterOptions{NoReorder: true})).To(Equal(records))
	})

	It("should round trip patternized segments", func() {
		records := []map[string]any{
			{"level": "INFO", "message": "Connection from host 42 took 13s", "at": "2024-10-14T13:07:37.906Z"},
			{"level": "WARN", "message": "Connection from host 97 took 2s", "at": "2024-10-14T15:07:37.906Z"},
			{"level": "INFO", "message": "cache flushed"},
		}
		Expect(roundTrip(records, &logcol.WriterOptions{Patternize: true})).To(Equal(records))
	})

	It("should fail fast on bad magic", func() {
		_, err := logcol.Decode([]byte("definitely not a segment"))
		Expect(err).To(MatchError(logcol.ErrFormat))

		_, err = logcol.Decode(nil)
		Expect(err).To(MatchError(logcol.ErrFormat))
	})

	It("should fail on any truncation", func() {
		data, err := logcol.Encode(seedLogs(10), nil)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < len(data); i++ {
			_, err := logcol.Decode(data[:i])
			Expect(err).To(HaveOccurred(), "prefix of %d bytes", i)
		}
	})

	It("should reject implausible record counts", func() {
		data, err := logcol.Encode(nil, nil)
		Expect(err).NotTo(HaveOccurred())

		binary.LittleEndian.PutUint64(data[12:], 1<<62)
		_, err = logcol.Decode(data)
		Expect(err).To(MatchError(logcol.ErrFormat))
	})

	It("should reject tampered record counts", func() {
		records := []map[string]any{{"a": "x"}, {"a": "x"}, {"a": "x"}}
		data, err := logcol.Encode(records, nil)
		Expect(err).NotTo(HaveOccurred())

		binary.LittleEndian.PutUint64(data[12:], 4)
		_, err = logcol.Decode(data)
		Expect(err).To(MatchError(logcol.ErrColumnMismatch))
	})

	It("should reject unknown header flags", func() {
		data, err := logcol.Encode(nil, nil)
		Expect(err).NotTo(HaveOccurred())

		data[20] |= 0x80
		_, err = logcol.Decode(data)
		Expect(err).To(MatchError(logcol.ErrFormat))
	})

	It("should reject trailing garbage", func() {
		data, err := logcol.Encode(nil, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = logcol.Decode(append(data, 1, 2, 3))
		Expect(err).To(MatchError(logcol.ErrFormat))
	})

	It("should round trip single-value columns", func() {
		records := make([]map[string]any, 100)
		for i := range records {
			records[i] = map[string]any{"region": "eu-west-1", "seq": fmt.Sprintf("%04d", i)}
		}
		Expect(roundTrip(records, nil)).To(Equal(records))
	})
})
