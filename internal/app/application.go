package app

import (
	"context"
	"runtime"

	"pipeview/internal/config"
	"pipeview/internal/control"
	"pipeview/internal/loader"
	"pipeview/internal/logger"
	"pipeview/internal/shutdown"
	"pipeview/internal/viewer"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

const (
	AppName    = "pipeview"
	AppID      = "io.github.pipeview"
	AppVersion = "1.0.0"
)

type Application struct {
	fyneApp   fyne.App
	window    fyne.Window
	viewer    *viewer.Viewer
	fifo      *control.FIFO
	poller    *control.Poller
	lifecycle *Lifecycle
	shutdown  *shutdown.Manager
	logger    logger.Logger
	config    config.Config
}

func NewApplication(cfg config.Config, log logger.Logger) (*Application, error) {
	fyneapp.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})
	fyneApp := fyneapp.NewWithID(AppID)

	return newApplication(fyneApp, cfg, log, func(fn func()) { fyne.Do(fn) })
}

// newApplication wires the components. dispatch moves poller commands onto
// the thread that owns the viewer.
func newApplication(fyneApp fyne.App, cfg config.Config, log logger.Logger, dispatch control.Dispatcher) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fifo, err := control.CreateFIFO(cfg.FIFOPath, control.DefaultFIFOMode)
	if err != nil {
		return nil, err
	}
	if err := fifo.Open(); err != nil {
		fifo.Remove()
		return nil, err
	}

	window := fyneApp.NewWindow(AppName)
	window.SetMaster()

	v := viewer.New(fyneApp, window, loader.New(log), log, viewer.Options{
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
	})

	poller := control.NewPoller(fifo, v, cfg.PollInterval, log,
		control.WithBufferSize(cfg.BufferSize),
		control.WithDispatcher(dispatch),
	)

	lifecycle := NewLifecycle(fifo, log)
	v.SetQuitHook(lifecycle.Shutdown)

	application := &Application{
		fyneApp:   fyneApp,
		window:    window,
		viewer:    v,
		fifo:      fifo,
		poller:    poller,
		lifecycle: lifecycle,
		shutdown:  shutdown.NewManager(log, cfg.ShutdownTimeout),
		logger:    log,
		config:    cfg,
	}

	application.shutdown.Register(lifecycle)
	application.shutdown.Register(shutdown.Func(func() {
		if lifecycle.IsShutdown() {
			return
		}
		fyne.Do(v.Quit)
	}))

	log.Info("Application", "initialized", map[string]interface{}{
		"version":       AppVersion,
		"fifo":          cfg.FIFOPath,
		"poll_interval": cfg.PollInterval.String(),
		"window_size":   [2]int{cfg.WindowWidth, cfg.WindowHeight},
		"go_version":    runtime.Version(),
	})

	return application, nil
}

// startPoller launches the poll loop under the shutdown manager's context and
// hands its stop handles to the lifecycle. The returned channel closes when
// the loop has exited.
func (a *Application) startPoller() <-chan struct{} {
	pollCtx, cancel := context.WithCancel(a.shutdown.Context())
	done := make(chan struct{})
	a.lifecycle.SetPoller(cancel, done)

	go func() {
		defer close(done)
		a.poller.Run(pollCtx)
	}()
	return done
}

// Run shows the window and blocks until the application quits.
func (a *Application) Run(ctx context.Context) error {
	a.startPoller()
	a.shutdown.Listen()

	go func() {
		select {
		case <-ctx.Done():
			a.logger.Info("Application", "context cancelled", nil)
			a.shutdown.Shutdown()
		case <-a.shutdown.Done():
		}
	}()

	if a.config.InitialImage != "" {
		a.viewer.LoadImage(a.config.InitialImage)
	}

	a.window.Show()
	a.logger.Info("Application", "window displayed", nil)
	a.fyneApp.Run()

	a.lifecycle.Shutdown()
	a.shutdown.Shutdown()
	return nil
}
