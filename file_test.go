package linereader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_ReadOnce(t *testing.T) {
	path := writeTempFile(t, "line1\nline2\nline3")

	src, err := OpenFile(FileConfig{Path: path, ChunkSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	r, err := New(src, Config{})
	require.NoError(t, err)

	require.Equal(t, []string{"line1", "line2", "line3"}, readAll(t, r))
}

func TestFileSource_Missing(t *testing.T) {
	_, err := OpenFile(FileConfig{Path: filepath.Join(t.TempDir(), "nope")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSource_Follow(t *testing.T) {
	path := writeTempFile(t, "existing\n")

	src, err := OpenFile(FileConfig{Path: path, Follow: true})
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	r, err := New(src, Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	line, err := r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "existing", line)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("appended")
	require.NoError(t, err)
	_, err = f.WriteString(" later\n")
	require.NoError(t, err)

	line, err = r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "appended later", line)

	_, err = f.WriteString("unterminated")
	require.NoError(t, err)

	result := make(chan []string, 1)
	go func() {
		var lines []string
		for {
			line, err := r.ReadLine(ctx)
			if err != nil {
				result <- lines
				return
			}
			lines = append(lines, line)
		}
	}()

	// Close reads whatever was appended before ending the stream.
	require.NoError(t, src.Close())

	select {
	case lines := <-result:
		require.Equal(t, []string{"unterminated"}, lines)
	case <-ctx.Done():
		t.Fatal("timeout waiting for the reader to end after Close")
	}

	_, err = r.ReadLine(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func followFile(t *testing.T, path string) *Reader {
	t.Helper()
	src, err := OpenFile(FileConfig{Path: path, Follow: true})
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	r, err := New(src, Config{})
	require.NoError(t, err)
	return r
}

func TestFileSource_FollowEndsOnRemove(t *testing.T) {
	path := writeTempFile(t, "a\nrest")
	r := followFile(t, path)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	line, err := r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", line)

	require.NoError(t, os.Remove(path))

	line, err = r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "rest", line)

	_, err = r.ReadLine(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestFileSource_FollowEndsOnRename(t *testing.T) {
	path := writeTempFile(t, "a\n")
	r := followFile(t, path)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	line, err := r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", line)

	require.NoError(t, os.Rename(path, path+".1"))

	_, err = r.ReadLine(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestFileSource_FollowRewindsAfterTruncate(t *testing.T) {
	path := writeTempFile(t, "a long first line\n")
	r := followFile(t, path)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	line, err := r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "a long first line", line)

	// Shorter than the offset already read, so the source must start over.
	require.NoError(t, os.WriteFile(path, []byte("new\n"), 0o644))

	line, err = r.ReadLine(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", line)
}
