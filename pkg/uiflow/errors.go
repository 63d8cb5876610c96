package uiflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// Resolution errors: the command names something that does not exist.
	ErrTargetNotFound   = errors.New("target not found")
	ErrPopupNotFound    = errors.New("popup not found on the stack")
	ErrUnsupportedAsset = errors.New("asset cannot produce a view")

	// Policy violations: the navigation is refused, state is untouched.
	ErrPopupsNotAllowed   = errors.New("current screen does not allow popups")
	ErrMoveBackNotAllowed = errors.New("move back not allowed")
	ErrNoScreen           = errors.New("no current screen")
	ErrDisposed           = errors.New("flow is disposed")

	// Configuration errors, reported at construction and initialization.
	ErrDuplicateTarget   = errors.New("duplicate target name")
	ErrMissingDependency = errors.New("missing required dependency")
	ErrNotInitialized    = errors.New("flow is not initialized")
	ErrSceneMismatch     = errors.New("scene residency does not match target list")
)

// TransitionError represents a failure while executing a navigation
// command. It records which step failed and for which target.
type TransitionError struct {
	Op     string // Step that failed (e.g., "load", "show", "hide")
	Target string // Target name, if any
	Err    error  // Underlying error
}

func (e *TransitionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("uiflow: %s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("uiflow: %s: %v", e.Op, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// NewTransitionError creates a new transition error.
func NewTransitionError(op, target string, err error) *TransitionError {
	return &TransitionError{Op: op, Target: target, Err: err}
}

// IsTransitionError checks if an error is a transition error.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// IsNotFound checks if an error is a resolution error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTargetNotFound) || errors.Is(err, ErrPopupNotFound)
}

// IsPolicyViolation checks if an error means a policy refused the navigation.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPopupsNotAllowed) ||
		errors.Is(err, ErrMoveBackNotAllowed) ||
		errors.Is(err, ErrNoScreen) ||
		errors.Is(err, ErrDisposed)
}
