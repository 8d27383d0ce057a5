//go:build linux

package linereader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// SerialConfig holds configuration parameters for opening a serial port.
type SerialConfig struct {
	Device    string
	BaudRate  int
	ChunkSize int // read size, default DefaultChunkSize
}

// SerialSource delivers raw bytes from a Linux serial port with low
// latency. Close unblocks the read loop and ends the stream.
type SerialSource struct {
	fd        int
	file      *os.File
	cfg       SerialConfig
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	startOnce sync.Once
	started   atomic.Bool
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

// OpenSerial opens a serial port configured for raw, non-buffered operation.
func OpenSerial(cfg SerialConfig) (*SerialSource, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	if err := setRaw(fd, cfg.BaudRate); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	// Turn back into blocking mode now that config is done
	if err := syscall.SetNonblock(fd, false); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set blocking: %w", err)
	}

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &SerialSource{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), cfg.Device),
		cfg:    cfg,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
	}, nil
}

func setRaw(fd, baudRate int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baudToUnix(baudRate)

	// VMIN=1, VTIME=0: a read returns as soon as one byte is there
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

// Attach starts the read loop. Only the first call has an effect.
func (s *SerialSource) Attach(h Handler) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.readLoop(h)
	})
}

// WriteLine writes a line followed by newline to the serial port.
func (s *SerialSource) WriteLine(line string, newline string) error {
	_, err := s.file.WriteString(line + newline)
	return err
}

func (s *SerialSource) readLoop(h Handler) {
	defer close(s.exited)

	buf := make([]byte, s.cfg.ChunkSize)
	for {
		// Wait for data or the kill signal
		pfd := []unix.PollFd{
			{Fd: int32(s.fd), Events: unix.POLLIN},
			{Fd: int32(s.pipeR), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(pfd, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			h.OnError(fmt.Errorf("poll: %w", err))
			return
		}

		select {
		case <-s.done:
			h.OnEnd()
			return
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			h.OnEnd()
			return
		}
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			n, err := s.file.Read(buf)
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
}

// Close stops the read loop, ends the stream and releases the port.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *SerialSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		// Wake up poll using self-pipe
		unix.Write(s.pipeW, []byte{1})
		if s.started.Load() {
			<-s.exited
		}
		err = s.file.Close()
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
	})
	return err
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B115200 // fallback
	}
}
