// Package constants defines shared constants and environment variable
// names used throughout the uiflow engine.
package constants

import "os"

// Development is the environment variable value for development mode.
const Development = "DEV"

// LogLevelEnvVar overrides the engine log level ("debug", "info", "warn", "error").
const LogLevelEnvVar = "UIFLOW_LOG_LEVEL"

// LogPathEnvVar is read by flowctl for the log file path.
const LogPathEnvVar = "UIFLOW_LOG_PATH"

// IsDevMode returns true if running in development mode (ENVIRONMENT=DEV).
func IsDevMode() bool {
	return os.Getenv("ENVIRONMENT") == Development
}

// BaseSurfaceOrder is the paint order of the screen surface; popups
// start one above it.
const BaseSurfaceOrder = 0

// WindowWidthEnvVar and WindowHeightEnvVar size the SDL window in development mode.
const (
	WindowWidthEnvVar  = "WINDOW_WIDTH"
	WindowHeightEnvVar = "WINDOW_HEIGHT"
)
