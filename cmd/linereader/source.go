package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	linereader "github.com/luhtfiimanal/go-linereader"
	"go.uber.org/zap"
)

// unescape interprets Go escape sequences such as \r\n in a flag value.
func unescape(s string) (string, error) {
	out, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return "", fmt.Errorf("invalid separator %q: %w", s, err)
	}
	if out == "" {
		return "", fmt.Errorf("separator must not be empty")
	}
	return out, nil
}

// interrupted reports whether err only says that ctx was cancelled, which
// is how a SIGINT or SIGTERM shows up.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// openReader builds the configured source and a reader on top of it. The
// returned context is cancelled on SIGINT or SIGTERM, which also closes
// the source.
func openReader(ctx context.Context, c Config) (context.Context, *linereader.Reader, func(), error) {
	sep, err := unescape(c.Separator)
	if err != nil {
		return nil, nil, nil, err
	}

	src, closer, err := openSource(c)
	if err != nil {
		return nil, nil, nil, err
	}

	r, err := linereader.New(src, linereader.Config{
		Separator:      sep,
		Encoding:       c.Encoding,
		ReplaceInvalid: c.ReplaceInvalid,
		Logger:         logger,
	})
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	cleanup := func() {
		stop()
		if err := closer.Close(); err != nil {
			logger.Debug("closing source", zap.Error(err))
		}
	}
	return ctx, r, cleanup, nil
}

func openSource(c Config) (linereader.Source, io.Closer, error) {
	switch {
	case c.Device != "" && c.File != "":
		return nil, nil, fmt.Errorf("--file and --device are mutually exclusive")
	case c.Device != "":
		logger.Debug("reading serial device", zap.String("device", c.Device), zap.Int("baud", c.Baud))
		return openSerial(c)
	case c.File != "":
		logger.Debug("reading file", zap.String("path", c.File), zap.Bool("follow", c.Follow))
		src, err := linereader.OpenFile(linereader.FileConfig{
			Path:      c.File,
			Follow:    c.Follow,
			ChunkSize: c.ChunkSize,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil
	default:
		return linereader.FromReader(os.Stdin, c.ChunkSize), io.NopCloser(nil), nil
	}
}
