// Package backkey turns a Linux input device's back button into flow
// back navigation.
package backkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/holoplot/go-evdev"
)

// Handler receives back presses. *uiflow.Flow implements it.
type Handler interface {
	HandleBackInput()
}

// DefaultCodes are the key codes treated as back when Config.Codes is empty.
var DefaultCodes = []evdev.EvCode{evdev.KEY_BACK, evdev.KEY_ESC, evdev.BTN_EAST}

// Config selects the device and which keys count as back.
type Config struct {
	DevicePath string         // e.g. /dev/input/event1
	Codes      []evdev.EvCode // Defaults to DefaultCodes
	CoolDown   time.Duration  // Presses closer together than this are dropped
}

// Watcher reads key events from a device and forwards back presses.
type Watcher struct {
	cfg     Config
	handler Handler
	log     *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// New creates a Watcher. Nothing is opened until Run.
func New(cfg Config, handler Handler, log *slog.Logger) *Watcher {
	if len(cfg.Codes) == 0 {
		cfg.Codes = DefaultCodes
	}
	return &Watcher{cfg: cfg, handler: handler, log: log}
}

// Run opens the device and forwards back presses until ctx ends.
// Returns nil when stopped through ctx.
func (w *Watcher) Run(ctx context.Context) error {
	dev, err := evdev.Open(w.cfg.DevicePath)
	if err != nil {
		return fmt.Errorf("open input device %s: %w", w.cfg.DevicePath, err)
	}

	if name, err := dev.Name(); err == nil {
		w.log.Debug("watching back key", "device", w.cfg.DevicePath, "name", name)
	}

	// ReadOne blocks; closing the device is the only way to interrupt it.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		dev.Close()
	}()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input device %s: %w", w.cfg.DevicePath, err)
		}
		if ev == nil {
			return errors.New("read input device: no event")
		}
		w.dispatch(*ev, time.Now())
	}
}

// dispatch forwards ev if it is a back press outside the cool down window.
func (w *Watcher) dispatch(ev evdev.InputEvent, now time.Time) bool {
	if !IsBackPress(ev, w.cfg.Codes) {
		return false
	}

	w.mu.Lock()
	if w.cfg.CoolDown > 0 && !w.last.IsZero() && now.Sub(w.last) < w.cfg.CoolDown {
		w.mu.Unlock()
		w.log.Debug("back press dropped", "code", ev.CodeName())
		return false
	}
	w.last = now
	w.mu.Unlock()

	w.handler.HandleBackInput()
	return true
}

// IsBackPress reports whether ev is a key-down of one of codes.
// Repeats (value 2) and releases (value 0) are ignored.
func IsBackPress(ev evdev.InputEvent, codes []evdev.EvCode) bool {
	return ev.Type == evdev.EV_KEY && ev.Value == 1 && slices.Contains(codes, ev.Code)
}
