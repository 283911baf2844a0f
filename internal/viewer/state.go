package viewer

// State is the viewer's mutable record. It is only touched on the Fyne
// event-loop thread.
type State struct {
	Path       string
	Width      int
	Height     int
	Fullscreen bool
}

func (s State) HasImage() bool {
	return s.Path != ""
}
