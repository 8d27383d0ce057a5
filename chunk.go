package linereader

// ChunkKind tells how the payload of a Chunk must be interpreted.
type ChunkKind uint8

const (
	invalidChunk ChunkKind = iota
	// TextChunk carries text that is already UTF-8 and bypasses decoding.
	TextChunk
	// ByteChunk carries raw bytes in the configured encoding.
	ByteChunk
)

func (k ChunkKind) String() string {
	switch k {
	case TextChunk:
		return "text"
	case ByteChunk:
		return "bytes"
	default:
		return "invalid"
	}
}

// Chunk is one unit of data delivered by a Source. The kind is fixed when
// the chunk is built, so the Reader never inspects payloads at runtime.
type Chunk struct {
	kind ChunkKind
	text string
	raw  []byte
}

// Text builds a chunk of already decoded text.
func Text(s string) Chunk {
	return Chunk{kind: TextChunk, text: s}
}

// Bytes builds a chunk of raw bytes. The Reader does not retain p after
// OnData returns.
func Bytes(p []byte) Chunk {
	return Chunk{kind: ByteChunk, raw: p}
}

// Kind reports the chunk kind. The zero Chunk is invalid.
func (c Chunk) Kind() ChunkKind {
	return c.kind
}

// Len is the payload size in bytes.
func (c Chunk) Len() int {
	if c.kind == TextChunk {
		return len(c.text)
	}
	return len(c.raw)
}
