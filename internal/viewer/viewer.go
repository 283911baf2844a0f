// Package viewer owns the window that shows the current image.
package viewer

import (
	"image"
	"image/color"
	"sync"

	"pipeview/internal/logger"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

const (
	DefaultWidth  = 300
	DefaultHeight = 300
)

var (
	WindowedBackground   color.Color = color.NRGBA{R: 0xe7, G: 0xe5, B: 0xe4, A: 0xff}
	FullscreenBackground color.Color = color.Black
)

// ImageLoader decodes path and scales it to fit width x height.
type ImageLoader interface {
	Load(path string, width, height int) (image.Image, error)
}

type Options struct {
	Width  int
	Height int
}

type Viewer struct {
	app    fyne.App
	window fyne.Window
	loader ImageLoader
	logger logger.Logger

	background *canvas.Rectangle
	image      *canvas.Image
	content    *fyne.Container

	state    State
	onQuit   func()
	quitOnce sync.Once
}

func New(app fyne.App, window fyne.Window, ld ImageLoader, log logger.Logger, opts Options) *Viewer {
	if log == nil {
		log = logger.NoOp{}
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	v := &Viewer{
		app:    app,
		window: window,
		loader: ld,
		logger: log,
		state:  State{Width: opts.Width, Height: opts.Height},
	}

	v.background = canvas.NewRectangle(WindowedBackground)

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.image.ScaleMode = canvas.ImageScaleSmooth

	v.content = container.New(&resizeLayout{onResize: v.handleResize}, v.background, v.image)

	window.SetPadded(false)
	window.SetContent(v.content)
	window.Resize(fyne.NewSize(float32(opts.Width), float32(opts.Height)))
	window.Canvas().SetOnTypedKey(v.HandleKey)
	window.SetCloseIntercept(v.Quit)

	return v
}

// State returns a copy of the current state.
func (v *Viewer) State() State {
	return v.state
}

// Displayed is the image currently on screen, nil before the first
// successful load.
func (v *Viewer) Displayed() image.Image {
	return v.image.Image
}

func (v *Viewer) Background() color.Color {
	return v.background.FillColor
}

// SetQuitHook registers cleanup to run once before the app quits.
func (v *Viewer) SetQuitHook(fn func()) {
	v.onQuit = fn
}

// LoadImage replaces the current path and displays it.
func (v *Viewer) LoadImage(path string) {
	v.state.Path = path
	v.Reload()
}

// Reload decodes the current path at the current size. A failed load keeps
// the previous image on screen.
func (v *Viewer) Reload() {
	if !v.state.HasImage() {
		return
	}

	img, err := v.loader.Load(v.state.Path, v.state.Width, v.state.Height)
	if err != nil {
		v.logger.Error("Viewer", err, map[string]interface{}{
			"path":   v.state.Path,
			"width":  v.state.Width,
			"height": v.state.Height,
		})
		return
	}

	v.image.Image = img
	v.image.Refresh()

	v.logger.Debug("Viewer", "image displayed", map[string]interface{}{
		"path":   v.state.Path,
		"bounds": img.Bounds().String(),
	})
}

// ToggleFullscreen flips between windowed and fullscreen mode and swaps the
// background colour to match.
func (v *Viewer) ToggleFullscreen() {
	v.state.Fullscreen = !v.state.Fullscreen
	v.window.SetFullScreen(v.state.Fullscreen)

	if v.state.Fullscreen {
		v.background.FillColor = FullscreenBackground
	} else {
		v.background.FillColor = WindowedBackground
	}
	v.background.Refresh()

	v.logger.Debug("Viewer", "fullscreen toggled", map[string]interface{}{
		"fullscreen": v.state.Fullscreen,
	})
}

func (v *Viewer) HandleKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyF:
		v.ToggleFullscreen()
	case fyne.KeyQ:
		v.Quit()
	}
}

// Quit runs the quit hook and stops the application. Only the first call has
// any effect.
func (v *Viewer) Quit() {
	v.quitOnce.Do(func() {
		v.logger.Info("Viewer", "quit requested", nil)
		if v.onQuit != nil {
			v.onQuit()
		}
		v.app.Quit()
	})
}

func (v *Viewer) handleResize(size fyne.Size) {
	scale := v.window.Canvas().Scale()
	if scale <= 0 {
		scale = 1
	}
	width := int(size.Width * scale)
	height := int(size.Height * scale)
	if width <= 0 || height <= 0 {
		return
	}
	if width == v.state.Width && height == v.state.Height {
		return
	}

	v.state.Width = width
	v.state.Height = height
	v.Reload()
}
