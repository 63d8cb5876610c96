package uiflow

// Result is the outcome of a navigation command.
// Every public navigation call returns one once its command is done.
type Result int

const (
	ResultCompleted Result = iota // Navigation happened
	ResultNotFound                // Target name or popup handle did not resolve
	ResultRejected                // A policy refused the navigation; nothing changed
	ResultFailed                  // Loading, showing or hiding failed; see logs
	ResultAbandoned               // The caller stopped waiting; the command still runs
)

func (r Result) String() string {
	switch r {
	case ResultCompleted:
		return "completed"
	case ResultNotFound:
		return "not_found"
	case ResultRejected:
		return "rejected"
	case ResultFailed:
		return "failed"
	case ResultAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// OK reports whether the navigation took place.
func (r Result) OK() bool {
	return r == ResultCompleted
}

// resultFor classifies an execution error.
func resultFor(err error) Result {
	switch {
	case err == nil:
		return ResultCompleted
	case IsNotFound(err):
		return ResultNotFound
	case IsPolicyViolation(err):
		return ResultRejected
	default:
		return ResultFailed
	}
}
