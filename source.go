package linereader

import "io"

// DefaultChunkSize is the read size used by sources when none is configured.
const DefaultChunkSize = 4096

// Handler receives the events of a stream. *Reader implements it.
//
// A well-behaved Source calls OnData zero or more times followed by exactly
// one OnEnd or OnError, and nothing after that.
type Handler interface {
	OnData(c Chunk)
	OnEnd()
	OnError(err error)
}

// Source is the producing side of a stream.
type Source interface {
	// Attach registers h as the receiver of all events. It is called once,
	// by New.
	Attach(h Handler)
}

// ReaderSource delivers the contents of an io.Reader as byte chunks from
// its own goroutine.
type ReaderSource struct {
	r         io.Reader
	chunkSize int
}

// FromReader wraps r. A chunkSize of zero or less selects DefaultChunkSize.
func FromReader(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderSource{r: r, chunkSize: chunkSize}
}

// Attach starts reading. io.EOF ends the stream; any other read error
// fails it.
func (s *ReaderSource) Attach(h Handler) {
	go s.pump(h)
}

func (s *ReaderSource) pump(h Handler) {
	buf := make([]byte, s.chunkSize)
	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			h.OnData(Bytes(buf[:n]))
		}
		if err == io.EOF {
			h.OnEnd()
			return
		}
		if err != nil {
			h.OnError(err)
			return
		}
	}
}
