package shutdown

import (
	"context"
	"sync"
	"testing"
	"time"

	"pipeview/internal/logger"

	"github.com/stretchr/testify/assert"
)

type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *orderRecorder) component(name string) Func {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, name)
	}
}

func TestShutdownRunsComponentsInReverseOrder(t *testing.T) {
	rec := &orderRecorder{}
	m := NewManager(logger.NoOp{}, 0)
	m.Register(rec.component("fifo"))
	m.Register(rec.component("poller"))
	m.Register(rec.component("window"))

	m.Shutdown()

	assert.Equal(t, []string{"window", "poller", "fifo"}, rec.order)
}

func TestShutdownIsIdempotent(t *testing.T) {
	rec := &orderRecorder{}
	m := NewManager(logger.NoOp{}, 0)
	m.Register(rec.component("fifo"))

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, []string{"fifo"}, rec.order)
}

func TestShutdownCancelsContextAndClosesDone(t *testing.T) {
	m := NewManager(logger.NoOp{}, 0)

	m.Shutdown()

	assert.Error(t, m.Context().Err())
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel still open")
	}
}

func TestShutdownSkipsSlowComponent(t *testing.T) {
	rec := &orderRecorder{}
	release := make(chan struct{})
	defer close(release)

	m := NewManager(logger.NoOp{}, 20*time.Millisecond)
	m.Register(rec.component("fifo"))
	m.Register(Func(func() { <-release }))

	start := time.Now()
	m.Shutdown()

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"fifo"}, rec.order)
}

func TestContextCancelledBeforeComponentsRun(t *testing.T) {
	m := NewManager(logger.NoOp{}, 0)
	var seen error
	m.Register(Func(func() { seen = m.Context().Err() }))

	m.Shutdown()

	assert.ErrorIs(t, seen, context.Canceled)
}

func TestNewManagerDefaultTimeout(t *testing.T) {
	m := NewManager(logger.NoOp{}, -time.Second)
	assert.Equal(t, DefaultComponentTimeout, m.timeout)
}
