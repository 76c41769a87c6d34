package ui

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Window wraps a highgui window with an optional frame rate overlay
type Window struct {
	window  *gocv.Window
	name    string
	meter   fpsMeter
	showFPS bool
}

// NewWindow creates a window of the given size
func NewWindow(name string, width, height int) *Window {
	window := gocv.NewWindow(name)
	// Force window to appear on macOS
	window.ResizeWindow(width, height)
	window.MoveWindow(100, 100)
	return &Window{window: window, name: name}
}

// SetShowFPS toggles the frame rate overlay
func (w *Window) SetShowFPS(on bool) {
	w.showFPS = on
}

// Show displays a frame. The frame rate overlay goes on a copy so frame
// itself is never modified.
func (w *Window) Show(frame *gocv.Mat) {
	fps := w.meter.frame(time.Now())
	if !w.showFPS || frame.Empty() {
		w.window.IMShow(*frame)
		return
	}

	shown := frame.Clone()
	defer shown.Close()
	at := image.Pt(8, shown.Rows()-8)
	gocv.PutText(&shown, fmt.Sprintf("%.1f fps", fps), at, font, 0.45, colorGray, 1)
	w.window.IMShow(shown)
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// FPS returns the rate measured over the last full second
func (w *Window) FPS() float64 {
	return w.meter.fps
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		return w.window.Close()
	}
	return nil
}
