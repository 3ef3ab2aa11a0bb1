// Package camera defines the capture contract against the hardware camera
// and a Session wrapper that serializes access to it. The device is owned
// exclusively by one Session; at most one capture may be outstanding. A
// second capture while one is pending is rejected with ErrCaptureInProgress
// rather than silently replacing the first caller's wait, and stopping the
// session fails an in-flight capture with ErrCaptureCancelled.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/wudi/printkit/observability"
)

var (
	// ErrSessionNotRunning is returned when capturing without a running session.
	ErrSessionNotRunning = errors.New("camera: session not running")
	// ErrNoPhotoData is returned when the device completes a capture without data.
	ErrNoPhotoData = errors.New("camera: no photo data")
	// ErrCaptureInProgress rejects a second capture while one is outstanding.
	ErrCaptureInProgress = errors.New("camera: capture already in progress")
	// ErrCaptureCancelled fails an in-flight capture cut short by Stop.
	ErrCaptureCancelled = errors.New("camera: capture cancelled")
)

// CaptureError wraps an underlying hardware failure with its reason.
type CaptureError struct {
	Reason string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("camera: capture failed: %s", e.Reason)
}

// Device is the hardware collaborator. Implementations bridge the platform
// camera stack; CapturePhoto blocks until the hardware completion callback
// fires or ctx is cancelled.
type Device interface {
	StartSession(ctx context.Context) error
	StopSession() error
	CapturePhoto(ctx context.Context) (image.Image, error)
}

// Session serializes captures against one Device.
type Session struct {
	dev Device
	log observability.Logger

	mu            sync.Mutex
	running       bool
	captureCancel context.CancelFunc // non-nil while a capture is in flight
}

// NewSession wraps a device. The logger may be nil.
func NewSession(dev Device, log observability.Logger) *Session {
	if log == nil {
		log = observability.Nop()
	}
	return &Session{dev: dev, log: log}
}

// Start starts the underlying device session. Starting a running session is
// a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if err := s.dev.StartSession(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	s.running = true
	s.log.Debug("camera session started")
	return nil
}

// Stop stops the device session. An in-flight capture is cancelled and
// fails with ErrCaptureCancelled.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.captureCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.log.Debug("camera session stopped")
	return s.dev.StopSession()
}

// Capture requests one photo. It fails with ErrSessionNotRunning before
// Start, and with ErrCaptureInProgress while another capture is pending.
func (s *Session) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, ErrSessionNotRunning
	}
	if s.captureCancel != nil {
		s.mu.Unlock()
		return nil, ErrCaptureInProgress
	}
	cctx, cancel := context.WithCancel(ctx)
	s.captureCancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.captureCancel = nil
		s.mu.Unlock()
	}()

	img, err := s.dev.CapturePhoto(cctx)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			// Cancelled by Stop, not by the caller.
			return nil, ErrCaptureCancelled
		}
		return nil, err
	}
	if img == nil {
		return nil, ErrNoPhotoData
	}
	return img, nil
}
