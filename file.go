package linereader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileConfig holds the options of a FileSource.
type FileConfig struct {
	Path      string
	Follow    bool // keep watching for appended data, like tail -f
	ChunkSize int  // read size, default DefaultChunkSize
	Logger    *zap.Logger
}

// FileSource delivers the contents of a file. In follow mode it keeps
// delivering appended bytes until Close is called or the file is removed
// or renamed.
type FileSource struct {
	cfg       FileConfig
	file      *os.File
	watcher   *fsnotify.Watcher
	log       *zap.Logger
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	startOnce sync.Once
	started   atomic.Bool
}

// OpenFile opens cfg.Path and, in follow mode, starts watching it.
func OpenFile(cfg FileConfig) (*FileSource, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	file, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	s := &FileSource{
		cfg:    cfg,
		file:   file,
		log:    cfg.Logger.With(zap.String("path", cfg.Path)),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	if cfg.Follow {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		if err := watcher.Add(cfg.Path); err != nil {
			watcher.Close()
			file.Close()
			return nil, fmt.Errorf("watch file: %w", err)
		}
		s.watcher = watcher
	}

	return s, nil
}

// Attach starts delivering data. Only the first call has an effect.
func (s *FileSource) Attach(h Handler) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run(h)
	})
}

func (s *FileSource) run(h Handler) {
	defer close(s.exited)

	buf := make([]byte, s.cfg.ChunkSize)
	if err := s.drain(h, buf); err != nil {
		h.OnError(err)
		return
	}
	if s.watcher == nil {
		h.OnEnd()
		return
	}

	for {
		select {
		case <-s.done:
			if err := s.drain(h, buf); err != nil {
				h.OnError(err)
				return
			}
			h.OnEnd()
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				h.OnEnd()
				return
			}
			if event.Has(fsnotify.Write) {
				if err := s.rewindIfTruncated(); err != nil {
					h.OnError(err)
					return
				}
			}
			if err := s.drain(h, buf); err != nil {
				h.OnError(err)
				return
			}
			// Unlinking a file that is still open only changes its link
			// count, which is reported as Chmod.
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) ||
				(event.Has(fsnotify.Chmod) && s.unlinked()) {
				s.log.Debug("followed file went away", zap.Stringer("op", event.Op))
				h.OnEnd()
				return
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				h.OnEnd()
				return
			}
			h.OnError(fmt.Errorf("watch file: %w", err))
			return
		}
	}
}

// drain reads until the current end of the file.
func (s *FileSource) drain(h Handler, buf []byte) error {
	for {
		n, err := s.file.Read(buf)
		if n > 0 {
			h.OnData(Bytes(buf[:n]))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// unlinked reports whether cfg.Path no longer names the open file.
func (s *FileSource) unlinked() bool {
	cur, err := os.Stat(s.cfg.Path)
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	open, err := s.file.Stat()
	if err != nil {
		return false
	}
	return !os.SameFile(cur, open)
}

// rewindIfTruncated starts over when the file shrank below the read offset.
func (s *FileSource) rewindIfTruncated() error {
	pos, err := s.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < pos {
		s.log.Debug("file truncated, reading from start",
			zap.Int64("offset", pos), zap.Int64("size", info.Size()))
		_, err = s.file.Seek(0, io.SeekStart)
	}
	return err
}

// Close stops following, ends the stream and closes the file.
func (s *FileSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.started.Load() {
			<-s.exited
		}
		if s.watcher != nil {
			s.watcher.Close()
		}
		err = s.file.Close()
	})
	return err
}
