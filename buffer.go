package linereader

import "bytes"

// lineBuffer holds decoded text that has not been returned as part of a
// line yet. Consumed bytes are skipped through off instead of being cut
// from the slice, and scan remembers how far the separator search got so
// appending to a long partial line does not rescan it.
type lineBuffer struct {
	data []byte
	off  int
	scan int
}

func (b *lineBuffer) Len() int {
	return len(b.data) - b.off
}

func (b *lineBuffer) writeString(s string) {
	b.compact()
	b.data = append(b.data, s...)
}

// compact reclaims the consumed prefix once it makes up at least half of
// the slice.
func (b *lineBuffer) compact() {
	if b.off == 0 {
		return
	}
	if b.off == len(b.data) {
		b.data = b.data[:0]
		b.off, b.scan = 0, 0
		return
	}
	if b.off < len(b.data)/2 {
		return
	}
	n := copy(b.data, b.data[b.off:])
	b.data = b.data[:n]
	b.scan -= b.off
	b.off = 0
}

// next removes the earliest complete line and its separator from the
// front of the buffer.
func (b *lineBuffer) next(sep []byte) (string, bool) {
	from := max(b.scan, b.off)
	i := bytes.Index(b.data[from:], sep)
	if i < 0 {
		// The tail may hold the first bytes of a separator that the next
		// write completes.
		b.scan = max(b.off, len(b.data)-len(sep)+1)
		return "", false
	}
	end := from + i
	line := string(b.data[b.off:end])
	b.off = end + len(sep)
	b.scan = b.off
	return line, true
}

// drain returns everything left and empties the buffer.
func (b *lineBuffer) drain() string {
	rest := string(b.data[b.off:])
	b.reset()
	return rest
}

func (b *lineBuffer) reset() {
	b.data = b.data[:0]
	b.off, b.scan = 0, 0
}
