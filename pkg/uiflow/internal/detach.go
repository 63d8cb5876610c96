package internal

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Detach runs fn on its own goroutine and never reports back to the caller.
// Errors and panics are logged; nothing propagates.
func Detach(log *slog.Logger, name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("detached task panicked",
					"task", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()

		if err := fn(); err != nil {
			log.Error("detached task failed", "task", name, "error", err)
		}
	}()
}
