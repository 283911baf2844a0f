package control

import (
	"context"
	"errors"
	"io"
	"time"

	"pipeview/internal/logger"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultBufferSize   = 2048
)

// Source is a non-blocking byte source. A read with nothing available returns
// 0 and a nil error; io.EOF means the writer went away.
type Source interface {
	Read(p []byte) (int, error)
}

// Handler receives parsed commands.
type Handler interface {
	LoadImage(path string)
	ToggleFullscreen()
}

// Dispatcher runs fn on the thread that owns the handler's state.
type Dispatcher func(fn func())

func runInline(fn func()) { fn() }

type Poller struct {
	source   Source
	handler  Handler
	interval time.Duration
	dispatch Dispatcher
	framer   *LineReader
	buf      []byte
	logger   logger.Logger
}

type Option func(*Poller)

func WithDispatcher(d Dispatcher) Option {
	return func(p *Poller) {
		if d != nil {
			p.dispatch = d
		}
	}
}

// WithBufferSize bounds both a single read and the longest accepted line.
func WithBufferSize(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.buf = make([]byte, n)
			p.framer = NewLineReader(n)
		}
	}
}

func NewPoller(source Source, handler Handler, interval time.Duration, log logger.Logger, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.NoOp{}
	}
	p := &Poller{
		source:   source,
		handler:  handler,
		interval: interval,
		dispatch: runInline,
		framer:   NewLineReader(DefaultBufferSize),
		buf:      make([]byte, DefaultBufferSize),
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Debug("Poller", "started", map[string]interface{}{
		"interval": p.interval.String(),
	})

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Poller", "stopped", nil)
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll performs one read and dispatches every complete command it yields.
// It returns the number of commands dispatched.
func (p *Poller) Poll() int {
	n, err := p.source.Read(p.buf)
	if errors.Is(err, io.EOF) {
		p.endOfStream()
		return 0
	}
	if err != nil {
		p.logger.Error("Poller", err, nil)
		return 0
	}
	if n == 0 {
		return 0
	}

	lines, dropped := p.framer.Feed(p.buf[:n])
	if dropped {
		p.logger.Warning("Poller", "discarded oversized command line", map[string]interface{}{
			"limit": len(p.buf),
		})
	}

	commands := make([]Command, 0, len(lines))
	for _, line := range lines {
		cmd, ok := ParseCommand(line)
		if !ok {
			p.logger.Debug("Poller", "ignoring unrecognized input", map[string]interface{}{
				"line": line,
			})
			continue
		}
		commands = append(commands, cmd)
	}
	if len(commands) == 0 {
		return 0
	}

	p.dispatch(func() {
		for _, cmd := range commands {
			p.apply(cmd)
		}
	})
	return len(commands)
}

// endOfStream discards a line its writer never finished, so it cannot be
// joined onto the next writer's first command.
func (p *Poller) endOfStream() {
	if pending := p.framer.Pending(); pending > 0 {
		p.logger.Debug("Poller", "dropping unterminated input", map[string]interface{}{
			"bytes": pending,
		})
	}
	p.framer.Reset()
}

func (p *Poller) apply(cmd Command) {
	p.logger.Info("Poller", "command received", map[string]interface{}{
		"command": cmd.Kind.String(),
		"path":    cmd.Path,
	})

	switch cmd.Kind {
	case CommandLoad:
		p.handler.LoadImage(cmd.Path)
	case CommandFullscreen:
		p.handler.ToggleFullscreen()
	}
}
