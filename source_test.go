package linereader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReaderSource_Lines(t *testing.T) {
	src := FromReader(iotest.OneByteReader(strings.NewReader("one\ntwo\n\nthree")), 0)
	r, err := New(src, Config{})
	require.NoError(t, err)

	require.Equal(t, []string{"one", "two", "", "three"}, readAll(t, r))
}

func TestReaderSource_SmallChunks(t *testing.T) {
	src := FromReader(strings.NewReader("Hello testOOOAuthory"), 3)
	r, err := New(src, Config{Separator: "OOO"})
	require.NoError(t, err)

	require.Equal(t, []string{"Hello test", "Authory"}, readAll(t, r))
}

func TestReaderSource_Error(t *testing.T) {
	boom := errors.New("disk on fire")
	src := FromReader(iotest.ErrReader(boom), 0)
	r, err := New(src, Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = r.ReadLine(ctx)
	require.ErrorIs(t, err, boom)
}

func TestReaderSource_ErrorAfterPartialLine(t *testing.T) {
	src := FromReader(iotest.TimeoutReader(strings.NewReader("abc")), 0)
	r, err := New(src, Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// The first read delivers "abc", the second one times out before a
	// separator arrived.
	_, err = r.ReadLine(ctx)
	require.ErrorIs(t, err, iotest.ErrTimeout)
}
