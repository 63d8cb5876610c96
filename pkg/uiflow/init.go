// Package uiflow provides a navigation flow engine for interactive
// applications: one active screen, a stack of popups over it, and a
// command queue that guarantees exactly one transition is in flight.
//
// The engine never renders anything itself. Views, asset loading and
// popup surfaces are supplied by the application through the Loader,
// View and SurfaceFactory interfaces.
package uiflow

import (
	"log/slog"
	"os"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow/constants"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/internal"
)

// Options configures a Flow.
type Options struct {
	Logger   *slog.Logger // Engine logger; defaults to the internal JSON logger
	LogPath  string       // Full path for the log file, used when Logger is nil
	LogLevel string       // "debug", "info", "warn" or "error"; UIFLOW_LOG_LEVEL overrides

	Screens      []*ScreenTarget // Dynamically instantiated screens
	Popups       []*PopupTarget  // Dynamically instantiated popups
	SceneScreens []*ScreenTarget // Scene-resident screens, activated rather than instantiated; each sets InScene
	ScenePopups  []*PopupTarget  // Scene-resident popups; each sets InScene

	InitialScreen string // Screen triggered by Initialize, if set
	InitialArgs   any    // Args for InitialScreen

	SurfaceFactory  SurfaceFactory // Builds popup surfaces; required when popups are configured
	BaseSurface     Surface        // Screen surface popups are ordered above
	SurfaceTemplate Surface        // Optional template cloned for new popup surfaces

	Localizer           *Localizer   // Resolves titles for events; optional
	DefaultBackBehavior BackBehavior // Device back behavior when nothing overrides it
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	if o.LogPath != "" {
		internal.SetLogPath(o.LogPath)
	}

	level := o.LogLevel
	if env := os.Getenv(constants.LogLevelEnvVar); env != "" {
		level = env
	} else if level == "" && constants.IsDevMode() {
		level = "debug"
	}
	if level != "" {
		internal.SetInternalLogLevel(internal.ParseLevel(level))
	}

	return internal.GetInternalLogger()
}

func (o Options) defaultBack() BackBehavior {
	if o.DefaultBackBehavior == BackUnset {
		return BackClosePopupElseMoveBack
	}
	return o.DefaultBackBehavior
}

// SetLogPath sets the full path for the log file, including filename.
// Creates all necessary parent directories.
// Call before creating a Flow to take effect.
func SetLogPath(path string) {
	internal.SetLogPath(path)
}

// GetLogger returns the application logger for structured logging.
func GetLogger() *slog.Logger {
	return internal.GetLogger()
}

// SetLogLevel sets the minimum log level for the application logger.
func SetLogLevel(level slog.Level) {
	internal.SetLogLevel(level)
}

// SetRawLogLevel parses and sets the log level from a string (e.g., "debug", "info", "error").
func SetRawLogLevel(level string) {
	internal.SetRawLogLevel(level)
}

// SetEngineLogLevel sets the minimum level of the engine's own logger.
func SetEngineLogLevel(level slog.Level) {
	internal.SetInternalLogLevel(level)
}

// CloseLogs closes the log file, if one was opened.
func CloseLogs() {
	internal.CloseLogger()
}
