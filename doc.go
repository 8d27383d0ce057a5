// Package linereader extracts delimiter-separated lines from a stream that
// delivers data in arbitrarily sized chunks over time.
//
// A Reader is bound to one Source. The Source pushes data chunks, then
// either an end or an error event. The consumer calls ReadLine, which
// returns the next line, io.EOF once the stream is drained, or the error
// reported by the Source. Chunk boundaries do not need to line up with
// line boundaries, and a multi-byte separator may be split across chunks.
//
// Features:
//   - Custom separator (default: \n) and byte encodings via golang.org/x/text
//     (utf-8, utf-16le/ucs-2, latin1, ...)
//   - One outstanding ReadLine at a time; a second concurrent call fails
//     with ErrRequestPending instead of being queued
//   - A stream error is delivered exactly once
//   - Sources for in-memory pipes, any io.Reader, files (with tail -f style
//     follow mode) and Linux serial ports
//
// Example usage:
//
//	src, err := linereader.OpenSerial(linereader.SerialConfig{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	r, err := linereader.New(src, linereader.Config{Separator: "\r\n"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for line, err := range r.Lines(ctx) {
//	    if err != nil {
//	        log.Println("Read error:", err)
//	        break
//	    }
//	    fmt.Println("Received:", line)
//	}
//
// To stop reading from a serial port or a followed file, call Close on the
// source from another goroutine; the reader then reports io.EOF.
package linereader
