//go:build unix

package control

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultFIFOMode restricts the control channel to the owning user.
const DefaultFIFOMode = 0o700

var (
	ErrNotFIFO = errors.New("path exists and is not a named pipe")
	ErrClosed  = errors.New("control channel is not open")
)

// FIFO is the named pipe external processes write commands into. Reads never
// block: an empty pipe with a writer attached reads as zero bytes, and a pipe
// whose writers have all gone away reads as io.EOF.
type FIFO struct {
	path string
	fd   int
}

// CreateFIFO makes the named pipe at path. An existing pipe is reused.
func CreateFIFO(path string, mode uint32) (*FIFO, error) {
	err := unix.Mkfifo(path, mode)
	if err != nil && !errors.Is(err, unix.EEXIST) {
		return nil, fmt.Errorf("create fifo %s: %w", path, err)
	}
	if err != nil {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, fmt.Errorf("stat fifo %s: %w", path, statErr)
		}
		if info.Mode()&os.ModeNamedPipe == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFIFO)
		}
	}
	return &FIFO{path: path, fd: -1}, nil
}

func (f *FIFO) Path() string {
	return f.path
}

// Open opens the pipe read-only and non-blocking.
func (f *FIFO) Open() error {
	if f.fd >= 0 {
		return nil
	}
	fd, err := unix.Open(f.path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open fifo %s: %w", f.path, err)
	}
	f.fd = fd
	return nil
}

// Read returns whatever bytes are currently buffered in the pipe. It returns
// 0, nil when a writer is attached but idle, and 0, io.EOF when no writer is.
func (f *FIFO) Read(p []byte) (int, error) {
	if f.fd < 0 {
		return 0, ErrClosed
	}
	n, err := unix.Read(f.fd, p)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("read fifo %s: %w", f.path, err)
	}
	if n <= 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (f *FIFO) Close() error {
	if f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	if err != nil {
		return fmt.Errorf("close fifo %s: %w", f.path, err)
	}
	return nil
}

// Remove unlinks the pipe from the filesystem. A missing path is not an error.
func (f *FIFO) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove fifo %s: %w", f.path, err)
	}
	return nil
}
