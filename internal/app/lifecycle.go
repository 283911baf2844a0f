package app

import (
	"context"
	"sync"
	"time"

	"pipeview/internal/control"
	"pipeview/internal/logger"
)

const pollerStopTimeout = time.Second

// Lifecycle tears down the control channel exactly once, whichever exit path
// gets there first.
type Lifecycle struct {
	fifo   *control.FIFO
	logger logger.Logger

	mu           sync.Mutex
	cancelPoller context.CancelFunc
	pollerDone   <-chan struct{}
	isShutdown   bool
}

func NewLifecycle(fifo *control.FIFO, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		fifo:   fifo,
		logger: log,
	}
}

// SetPoller registers the running poller so shutdown can stop it before the
// pipe is closed underneath it.
func (l *Lifecycle) SetPoller(cancel context.CancelFunc, done <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelPoller = cancel
	l.pollerDone = done
}

func (l *Lifecycle) IsShutdown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isShutdown
}

func (l *Lifecycle) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isShutdown {
		return
	}
	l.isShutdown = true
	l.logger.Info("Lifecycle", "shutdown sequence initiated", nil)

	if l.cancelPoller != nil {
		l.cancelPoller()
		if l.pollerDone != nil {
			select {
			case <-l.pollerDone:
				l.logger.Debug("Lifecycle", "poller stopped", nil)
			case <-time.After(pollerStopTimeout):
				l.logger.Warning("Lifecycle", "poller did not stop in time", nil)
			}
		}
	}

	if err := l.fifo.Close(); err != nil {
		l.logger.Error("Lifecycle", err, nil)
	}
	if err := l.fifo.Remove(); err != nil {
		l.logger.Error("Lifecycle", err, nil)
	}

	l.logger.Info("Lifecycle", "shutdown sequence completed", map[string]interface{}{
		"fifo": l.fifo.Path(),
	})
}
