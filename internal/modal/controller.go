package modal

import (
	"sync"
	"time"

	"github.com/pyreportal/kiosk-agent/internal/models"
)

// Options configure one overlay lifetime.
type Options struct {
	// AutoClose arms a single timer on open; zero disables it.
	AutoClose time.Duration
	// CloseOnBackdrop permits dismissal by tapping outside the overlay.
	CloseOnBackdrop bool
	// CloseOnEscape permits dismissal via the escape key.
	CloseOnEscape bool
}

// CloseFunc receives the tagged close event, exactly once per open.
type CloseFunc func(models.ModalCloseEvent)

// Controller supervises a single overlay: one timer armed on open,
// disarmed on any close, delivered through one callback regardless of
// cause. Reopening reuses the controller without leaking the prior timer.
type Controller struct {
	mu       sync.Mutex
	open     bool
	opts     Options
	openedAt time.Time
	timer    *time.Timer
	gen      uint64
	onClose  CloseFunc
}

// NewController builds an idle controller.
func NewController() *Controller {
	return &Controller{}
}

// Open shows the overlay. A second Open while already open is ignored so a
// stray double-tap cannot re-arm the timer.
func (c *Controller) Open(opts Options, onClose CloseFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		return false
	}

	c.open = true
	c.opts = opts
	c.onClose = onClose
	c.openedAt = time.Now()
	c.gen++

	if opts.AutoClose > 0 {
		gen := c.gen
		c.timer = time.AfterFunc(opts.AutoClose, func() {
			c.closeWith(models.ModalCloseTimeout, gen)
		})
	}

	return true
}

// Close dismisses the overlay for an operator-initiated cause. Backdrop
// and escape dismissals are honoured only when configured; manual close
// always succeeds. Returns false if the overlay was not open or the cause
// is not permitted.
func (c *Controller) Close(cause models.ModalCloseCause) bool {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return false
	}
	if cause == models.ModalCloseBackdrop && !c.opts.CloseOnBackdrop {
		c.mu.Unlock()
		return false
	}
	if cause == models.ModalCloseEscape && !c.opts.CloseOnEscape {
		c.mu.Unlock()
		return false
	}
	gen := c.gen
	c.mu.Unlock()

	return c.closeWith(cause, gen)
}

// IsOpen reports the overlay state.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// State snapshots the overlay for UI rendering.
func (c *Controller) State(last *models.ModalCloseEvent) *models.ModalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		if last == nil {
			return nil
		}
		return &models.ModalState{Open: false, LastClose: last}
	}
	return &models.ModalState{
		Open:        true,
		AutoCloseMs: c.opts.AutoClose.Milliseconds(),
		OpenedAt:    c.openedAt,
		LastClose:   last,
	}
}

// closeWith performs the actual close. The generation guard drops a timer
// fire that races a concurrent close and reopen, so the callback can never
// double-fire or leak into a later open.
func (c *Controller) closeWith(cause models.ModalCloseCause, gen uint64) bool {
	c.mu.Lock()
	if !c.open || c.gen != gen {
		c.mu.Unlock()
		return false
	}

	c.open = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	elapsed := time.Since(c.openedAt)
	onClose := c.onClose
	c.onClose = nil
	c.mu.Unlock()

	if onClose != nil {
		onClose(models.ModalCloseEvent{Cause: cause, Elapsed: elapsed})
	}
	return true
}
