package linereader

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used for byte chunks when Config.Encoding is empty.
const DefaultEncoding = "utf-8"

const initialDecodeSize = 4096

var errInvalidChunk = errors.New("chunk is neither text nor bytes")

// decoder turns byte chunks into UTF-8. Incomplete trailing sequences are
// carried into the next chunk.
type decoder struct {
	name   string
	t      transform.Transformer
	carry  []byte
	dst    []byte
	offset int64
}

func newDecoder(name string, replaceInvalid bool) (*decoder, error) {
	canonical := strings.ToLower(strings.TrimSpace(name))
	if canonical == "" {
		canonical = DefaultEncoding
	}

	var t transform.Transformer
	switch canonical {
	case "utf-8", "utf8":
		canonical = "utf-8"
		if replaceInvalid {
			t = unicode.UTF8.NewDecoder()
		} else {
			t = encoding.UTF8Validator
		}
	case "utf-16le", "utf16le", "ucs-2", "ucs2":
		t = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case "utf-16be", "utf16be":
		t = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case "utf-16", "utf16":
		t = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	default:
		enc, err := htmlindex.Get(canonical)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
		}
		t = enc.NewDecoder()
	}
	t.Reset()

	return &decoder{
		name: canonical,
		t:    t,
		dst:  make([]byte, initialDecodeSize),
	}, nil
}

// appendDecoded decodes p and appends the text to out. With atEOF set any
// carried bytes must form a complete sequence.
func (d *decoder) appendDecoded(out, p []byte, atEOF bool) ([]byte, error) {
	src := p
	if len(d.carry) > 0 {
		src = append(d.carry, p...)
		d.carry = nil
	}
	start := d.offset
	d.offset += int64(len(p))

	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out = append(out, d.dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return out, nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case errors.Is(err, transform.ErrShortSrc) && !atEOF:
			d.carry = append([]byte(nil), src...)
			return out, nil
		default:
			return out, &DecodingError{Encoding: d.name, Offset: start, Err: err}
		}
	}
}

func (d *decoder) invalidChunk() error {
	return &DecodingError{Encoding: d.name, Offset: d.offset, Err: errInvalidChunk}
}
