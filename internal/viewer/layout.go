package viewer

import "fyne.io/fyne/v2"

// resizeLayout stacks every object over the full container area and reports
// size changes.
type resizeLayout struct {
	last     fyne.Size
	onResize func(fyne.Size)
}

func (l *resizeLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, obj := range objects {
		obj.Move(fyne.NewPos(0, 0))
		obj.Resize(size)
	}

	if size == l.last {
		return
	}
	l.last = size
	if l.onResize != nil {
		l.onResize(size)
	}
}

func (l *resizeLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	minSize := fyne.NewSize(0, 0)
	for _, obj := range objects {
		minSize = minSize.Max(obj.MinSize())
	}
	return minSize
}
