package control

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptedSource replays chunks one read at a time. A nil chunk reads as
// io.EOF, the way the pipe reports a writer closing.
type scriptedSource struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	reads  int
}

func (s *scriptedSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return 0, s.err
	}
	if len(s.chunks) == 0 {
		return 0, nil
	}
	if s.chunks[0] == nil {
		s.chunks = s.chunks[1:]
		return 0, io.EOF
	}
	n := copy(p, s.chunks[0])
	if n < len(s.chunks[0]) {
		s.chunks[0] = s.chunks[0][n:]
	} else {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func (s *scriptedSource) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type recordingHandler struct {
	mu    sync.Mutex
	calls []string
}

func (h *recordingHandler) LoadImage(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "load "+path)
}

func (h *recordingHandler) ToggleFullscreen() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "fullscreen")
}

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// eof marks a writer closing inside chunks.
const eof = "\x00eof"

func chunks(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		if p == eof {
			continue
		}
		out[i] = []byte(p)
	}
	return out
}

func TestPollNoInputHasNoEffect(t *testing.T) {
	src := &scriptedSource{}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	for i := 0; i < 10; i++ {
		assert.Zero(t, p.Poll())
	}
	assert.Empty(t, h.snapshot())
}

func TestPollDispatchesLoad(t *testing.T) {
	src := &scriptedSource{chunks: chunks("load /tmp/cat.png\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	assert.Equal(t, 1, p.Poll())
	assert.Equal(t, []string{"load /tmp/cat.png"}, h.snapshot())
}

func TestPollDispatchesAllCommandsInOrder(t *testing.T) {
	src := &scriptedSource{chunks: chunks("load /a.png\nbogus\nfullscreen\nload /b.png\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	assert.Equal(t, 3, p.Poll())
	assert.Equal(t, []string{"load /a.png", "fullscreen", "load /b.png"}, h.snapshot())
}

func TestPollIgnoresUnrecognizedInput(t *testing.T) {
	src := &scriptedSource{chunks: chunks("hello\nfullscreen please\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	assert.Zero(t, p.Poll())
	assert.Empty(t, h.snapshot())
}

func TestPollWaitsForTerminator(t *testing.T) {
	src := &scriptedSource{chunks: chunks("fullsc", "reen\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	assert.Zero(t, p.Poll())
	assert.Empty(t, h.snapshot())
	assert.Equal(t, 1, p.Poll())
	assert.Equal(t, []string{"fullscreen"}, h.snapshot())
}

func TestPollReadErrorIsNotFatal(t *testing.T) {
	src := &scriptedSource{err: errors.New("bad fd")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	assert.Zero(t, p.Poll())
	assert.Empty(t, h.snapshot())
}

func TestPollUsesDispatcher(t *testing.T) {
	src := &scriptedSource{chunks: chunks("fullscreen\nfullscreen\n")}
	h := &recordingHandler{}
	batches := 0
	p := NewPoller(src, h, time.Millisecond, nil, WithDispatcher(func(fn func()) {
		batches++
		fn()
	}))

	assert.Equal(t, 2, p.Poll())
	assert.Equal(t, 1, batches)
	assert.Len(t, h.snapshot(), 2)
}

func TestPollBufferSizeBoundsLines(t *testing.T) {
	src := &scriptedSource{chunks: chunks("load /a/rather/long/path.png\n", "fullscreen\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil, WithBufferSize(12))

	for i := 0; i < 5; i++ {
		p.Poll()
	}
	assert.Equal(t, []string{"fullscreen"}, h.snapshot())
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &scriptedSource{chunks: chunks("load /tmp/cat.png\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return len(h.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.GreaterOrEqual(t, src.readCount(), 1)
}

func TestNewPollerDefaults(t *testing.T) {
	p := NewPoller(&scriptedSource{}, &recordingHandler{}, 0, nil)
	assert.Equal(t, DefaultPollInterval, p.interval)
	assert.Len(t, p.buf, DefaultBufferSize)
}

func TestPollDropsUnterminatedLineAtEOF(t *testing.T) {
	src := &scriptedSource{chunks: chunks("load /tmp/a.png", eof, "fullscreen\n")}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	for i := 0; i < 4; i++ {
		p.Poll()
	}
	assert.Equal(t, []string{"fullscreen"}, h.snapshot())
}

func TestPollEOFIsNotAnError(t *testing.T) {
	src := &scriptedSource{chunks: chunks(eof, eof, "load /tmp/b.png\n", eof)}
	h := &recordingHandler{}
	p := NewPoller(src, h, time.Millisecond, nil)

	for i := 0; i < 5; i++ {
		p.Poll()
	}
	assert.Equal(t, []string{"load /tmp/b.png"}, h.snapshot())
}
