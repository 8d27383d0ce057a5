package linereader

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func decodeChunks(t *testing.T, d *decoder, chunks ...[]byte) (string, error) {
	t.Helper()
	var out []byte
	var err error
	for _, c := range chunks {
		out, err = d.appendDecoded(out, c, false)
		if err != nil {
			return string(out), err
		}
	}
	out, err = d.appendDecoded(out, nil, true)
	return string(out), err
}

func TestDecoder_UTF8SplitRune(t *testing.T) {
	d, err := newDecoder("", false)
	require.NoError(t, err)
	require.Equal(t, "utf-8", d.name)

	b := []byte("grüß")
	got, err := decodeChunks(t, d, b[:3], b[3:5], b[5:])
	require.NoError(t, err)
	require.Equal(t, "grüß", got)
}

func TestDecoder_UTF8Invalid(t *testing.T) {
	d, err := newDecoder("UTF-8", false)
	require.NoError(t, err)

	_, err = decodeChunks(t, d, []byte("ok "), []byte{0xff, 'x'})
	var decErr *DecodingError
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, "utf-8", decErr.Encoding)
	require.EqualValues(t, 3, decErr.Offset)
}

func TestDecoder_UTF8TruncatedAtEnd(t *testing.T) {
	d, err := newDecoder("utf8", false)
	require.NoError(t, err)

	b := []byte("é")
	_, err = decodeChunks(t, d, []byte("a"), b[:1])
	var decErr *DecodingError
	require.ErrorAs(t, err, &decErr)
}

func TestDecoder_UTF8Replace(t *testing.T) {
	d, err := newDecoder("utf-8", true)
	require.NoError(t, err)

	got, err := decodeChunks(t, d, []byte{'a', 0xff, 'b'})
	require.NoError(t, err)
	require.Equal(t, "a�b", got)
}

func TestDecoder_UTF16LEOddSplit(t *testing.T) {
	d, err := newDecoder("ucs-2", false)
	require.NoError(t, err)

	// "hé" in UTF-16LE, split inside the second code unit
	b := []byte{'h', 0, 0xe9, 0}
	got, err := decodeChunks(t, d, b[:3], b[3:])
	require.NoError(t, err)
	require.Equal(t, "hé", got)
}

func TestDecoder_Latin1(t *testing.T) {
	d, err := newDecoder("latin1", false)
	require.NoError(t, err)

	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte("café"))
	require.NoError(t, err)

	got, err := decodeChunks(t, d, b)
	require.NoError(t, err)
	require.Equal(t, "café", got)
}

func TestDecoder_LargeChunk(t *testing.T) {
	d, err := newDecoder("utf-16le", false)
	require.NoError(t, err)

	b := make([]byte, 0, 3*initialDecodeSize)
	for range 3 * initialDecodeSize / 2 {
		b = append(b, 0xfc, 0) // ü, two bytes in UTF-8 as well
	}
	got, err := decodeChunks(t, d, b)
	require.NoError(t, err)
	require.Len(t, got, 3*initialDecodeSize)
}

func TestDecoder_Unknown(t *testing.T) {
	_, err := newDecoder("klingon", false)
	require.ErrorIs(t, err, ErrUnknownEncoding)
}
