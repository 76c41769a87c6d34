package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrCameraUnavailable is returned when the device cannot be opened or read
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrCaptureCancelled is returned when the user leaves the preview without capturing
	ErrCaptureCancelled = errors.New("capture cancelled")
)

// Preview keys
const (
	KeyCapture = 'k'
	KeyCancel  = 'x'
	KeyEscape  = 27
)

// maxFailedReads is how many consecutive empty reads end the preview
const maxFailedReads = 30

// Previewer shows live frames and reports key presses
type Previewer interface {
	Show(frame *gocv.Mat)
	WaitKey(delayMs int) int
}

// Capture owns the camera device until closed
type Capture struct {
	webcam   *gocv.VideoCapture
	deviceID int
	width    int
	height   int
	mu       sync.Mutex
}

// NewCapture opens device at the requested resolution. A zero width or
// height keeps the device default.
func NewCapture(deviceID, width, height int) (*Capture, error) {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open camera %d: %w", ErrCameraUnavailable, deviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("%w: camera %d did not open", ErrCameraUnavailable, deviceID)
	}

	if width > 0 && height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	// Get actual dimensions (camera may not support requested resolution)
	actualWidth := int(webcam.Get(gocv.VideoCaptureFrameWidth))
	actualHeight := int(webcam.Get(gocv.VideoCaptureFrameHeight))

	return &Capture{
		webcam:   webcam,
		deviceID: deviceID,
		width:    actualWidth,
		height:   actualHeight,
	}, nil
}

// Read captures a frame into the provided Mat
func (c *Capture) Read(frame *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return false
	}

	return c.webcam.Read(frame) && !frame.Empty()
}

// Snapshot previews the camera until the capture key is pressed and returns
// that frame. The caller owns the returned Mat.
func (c *Capture) Snapshot(p Previewer) (gocv.Mat, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	failed := 0
	for {
		if !c.Read(&frame) {
			failed++
			if failed >= maxFailedReads {
				return gocv.NewMat(), fmt.Errorf("%w: no frames from camera %d", ErrCameraUnavailable, c.deviceID)
			}
			if key := p.WaitKey(10); isCancel(key) {
				return gocv.NewMat(), ErrCaptureCancelled
			}
			continue
		}
		failed = 0

		p.Show(&frame)
		key := p.WaitKey(1)
		switch {
		case key == KeyCapture:
			return frame.Clone(), nil
		case isCancel(key):
			return gocv.NewMat(), ErrCaptureCancelled
		}
	}
}

func isCancel(key int) bool {
	return key == KeyCancel || key == KeyEscape
}

// Width returns frame width
func (c *Capture) Width() int {
	return c.width
}

// Height returns frame height
func (c *Capture) Height() int {
	return c.height
}

// Close releases the camera
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam != nil {
		err := c.webcam.Close()
		c.webcam = nil
		return err
	}
	return nil
}
