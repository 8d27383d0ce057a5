package linereader

import "sync"

// Pipe is a Source fed by explicit calls, much like an in-memory
// pass-through stream. Events are delivered synchronously, in call order.
type Pipe struct {
	mu     sync.Mutex
	h      Handler
	closed bool
}

// NewPipe returns a Pipe that must be handed to New before it is written.
func NewPipe() *Pipe {
	return &Pipe{}
}

// Attach implements Source.
func (p *Pipe) Attach(h Handler) {
	p.mu.Lock()
	p.h = h
	p.mu.Unlock()
}

// Write delivers b as a byte chunk. b is not retained.
func (p *Pipe) Write(b []byte) (int, error) {
	err := p.emit(false, func(h Handler) { h.OnData(Bytes(b)) })
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// WriteString delivers s as a text chunk.
func (p *Pipe) WriteString(s string) (int, error) {
	err := p.emit(false, func(h Handler) { h.OnData(Text(s)) })
	if err != nil {
		return 0, err
	}
	return len(s), nil
}

// Close ends the stream.
func (p *Pipe) Close() error {
	return p.emit(true, func(h Handler) { h.OnEnd() })
}

// CloseWithError fails the stream with err. A nil err ends it.
func (p *Pipe) CloseWithError(err error) error {
	return p.emit(true, func(h Handler) { h.OnError(err) })
}

func (p *Pipe) emit(terminal bool, fn func(Handler)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.h == nil:
		return ErrNotAttached
	case p.closed:
		return ErrClosedPipe
	}
	p.closed = terminal
	fn(p.h)
	return nil
}
