// Package camera wraps OpenCV video capture as the device's single
// tracking sensor. It is a plain resource-acquisition layer: open, grab
// JPEG frames with timestamps, close.
package camera

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrPermissionDenied is returned when the capture device exists but
	// cannot be accessed. Callers surface a distinct user-facing message
	// for this case.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrNotOpen is returned when capturing from a closed camera.
	ErrNotOpen = errors.New("camera is not open")
)

// Config holds capture settings.
type Config struct {
	DeviceID  int
	Width     int
	Height    int
	Framerate int
}

// DefaultConfig returns capture settings sized for landmark detection;
// the detector downscales anyway, so capture stays modest.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Width:     640,
		Height:    480,
		Framerate: 30,
	}
}

// Camera is an open capture device.
type Camera struct {
	cfg Config

	mu      sync.Mutex
	capture *gocv.VideoCapture
	open    bool
}

// Open acquires the capture device.
func Open(cfg Config) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: device %d", ErrPermissionDenied, cfg.DeviceID)
		}
		return nil, fmt.Errorf("open camera %d: %w", cfg.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Camera{cfg: cfg, capture: capture, open: true}, nil
}

// CaptureJPEG grabs one frame, JPEG-encodes it, and returns it with the
// capture timestamp in milliseconds. The timestamp comes from the stream
// position when the backend reports one, else from the wall clock; either
// way it is monotonic per device, which is all the fusion layer's
// de-duplication needs.
func (c *Camera) CaptureJPEG() ([]byte, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, 0, ErrNotOpen
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		return nil, 0, errors.New("failed to read camera frame")
	}

	ts := int64(c.capture.Get(gocv.VideoCapturePosMsec))
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, 0, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, ts, nil
}

// Close releases the capture device. Closing twice is safe.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil
	}
	c.open = false
	err := c.capture.Close()
	c.capture = nil
	return err
}
