// Package internal contains the infrastructure behind the uiflow engine:
// logging, the popup surface pool and the detached task primitive.
// Types and functions in this package are not part of the public API.
package internal
