package linereader

import (
	"context"
	"io"
	"iter"
	"sync"

	"go.uber.org/zap"
)

// DefaultSeparator is used when Config.Separator is empty.
const DefaultSeparator = "\n"

// Config holds the options of a Reader.
type Config struct {
	Separator      string // default "\n"
	Encoding       string // default "utf-8", applies to byte chunks only
	ReplaceInvalid bool   // substitute U+FFFD for invalid UTF-8 instead of failing
	Logger         *zap.Logger
}

type result struct {
	line string
	err  error
}

// Reader extracts separator-delimited lines from a Source that delivers
// data in arbitrary chunks. It serves one outstanding ReadLine at a time;
// Source events and ReadLine calls may come from different goroutines.
type Reader struct {
	mu      sync.Mutex
	sep     []byte
	dec     *decoder
	buf     lineBuffer
	ended   bool
	failed  bool
	latched error
	pending chan result
	log     *zap.Logger
}

// New creates a Reader and attaches it to src. A nil src is allowed, in
// which case events are fed through the Handler methods of the Reader.
func New(src Source, cfg Config) (*Reader, error) {
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	dec, err := newDecoder(cfg.Encoding, cfg.ReplaceInvalid)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		sep: []byte(cfg.Separator),
		dec: dec,
		log: cfg.Logger,
	}
	if src != nil {
		src.Attach(r)
	}
	return r, nil
}

// ReadLine returns the next line without its separator. It blocks until
// a line is available, the stream ends or the stream fails.
//
// At the end of the stream ReadLine returns io.EOF. A stream error is
// returned once, as reported by the Source; later calls return io.EOF.
// Calling ReadLine while another call is blocked returns ErrRequestPending.
// If ctx is done while waiting, the request is withdrawn and ctx.Err() is
// returned.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.pending != nil {
		r.mu.Unlock()
		return "", ErrRequestPending
	}
	if res, ok := r.resolveLocked(); ok {
		r.mu.Unlock()
		return res.line, res.err
	}
	ch := make(chan result, 1)
	r.pending = ch
	r.mu.Unlock()

	r.log.Debug("waiting for next line")

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		r.mu.Lock()
		if r.pending == ch {
			r.pending = nil
		}
		r.mu.Unlock()
		// An event may have completed the request before it was withdrawn.
		select {
		case res := <-ch:
			return res.line, res.err
		default:
			return "", ctx.Err()
		}
	}
}

// ReadLinesLoop reads lines until the stream ends, invoking onLine for each
// line. If reading fails, onError is called and the loop exits.
func (r *Reader) ReadLinesLoop(ctx context.Context, onLine func(string), onError func(error)) {
	for {
		line, err := r.ReadLine(ctx)
		if err == io.EOF {
			return
		}
		if err != nil {
			onError(err)
			return
		}
		onLine(line)
	}
}

// Lines ranges over the remaining lines. A failure is yielded once as a
// non-nil error and ends the iteration.
func (r *Reader) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := r.ReadLine(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// OnData appends a chunk to the buffer and completes a waiting request
// if the chunk finished a line.
func (r *Reader) OnData(c Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.terminatedLocked() {
		r.log.Debug("ignoring data after end of stream", zap.Int("bytes", c.Len()))
		return
	}

	switch c.kind {
	case TextChunk:
		r.buf.writeString(c.text)
	case ByteChunk:
		r.buf.compact()
		data, err := r.dec.appendDecoded(r.buf.data, c.raw, false)
		r.buf.data = data
		if err != nil {
			r.log.Debug("decoding failed", zap.Error(err))
			r.failLocked(err)
			return
		}
	default:
		r.failLocked(r.dec.invalidChunk())
		return
	}

	r.notifyLocked()
}

// OnEnd marks the stream as ended. A waiting request receives the last
// partial line, if any, or io.EOF.
func (r *Reader) OnEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.terminatedLocked() {
		r.log.Debug("ignoring repeated end of stream")
		return
	}

	data, err := r.dec.appendDecoded(r.buf.data, nil, true)
	r.buf.data = data
	if err != nil {
		r.log.Debug("decoding failed at end of stream", zap.Error(err))
		r.failLocked(err)
		return
	}

	r.ended = true
	r.notifyLocked()
}

// OnError fails a waiting request with err, or keeps err for the next
// ReadLine call. A nil err is treated as the end of the stream.
func (r *Reader) OnError(err error) {
	if err == nil {
		r.OnEnd()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.terminatedLocked() {
		r.log.Debug("ignoring error after end of stream", zap.Error(err))
		return
	}
	r.failLocked(err)
}

func (r *Reader) terminatedLocked() bool {
	return r.ended || r.failed || r.latched != nil
}

// resolveLocked computes the answer to a request if one is available now.
func (r *Reader) resolveLocked() (result, bool) {
	if r.latched != nil {
		err := r.latched
		r.latched = nil
		r.failed = true
		return result{err: err}, true
	}
	if r.failed {
		return result{err: io.EOF}, true
	}
	if line, ok := r.buf.next(r.sep); ok {
		return result{line: line}, true
	}
	if r.ended {
		if r.buf.Len() > 0 {
			return result{line: r.buf.drain()}, true
		}
		return result{err: io.EOF}, true
	}
	return result{}, false
}

func (r *Reader) notifyLocked() {
	if r.pending == nil {
		return
	}
	if res, ok := r.resolveLocked(); ok {
		r.pending <- res
		r.pending = nil
	}
}

func (r *Reader) failLocked(err error) {
	r.buf.reset()
	if r.pending != nil {
		r.failed = true
		r.pending <- result{err: err}
		r.pending = nil
		return
	}
	r.latched = err
}
