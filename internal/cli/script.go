package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

// Step is one scripted navigation action.
type Step struct {
	Op    string // trigger, back, close, press-back, wait
	Name  string // Target name for trigger
	Args  string // Optional args for trigger
	Index int    // Stack index for close; -1 means foreground
	Delay time.Duration
}

// ParseStep parses one --step value:
//
//	trigger:NAME[=ARGS]  back  close  close:INDEX  press-back  wait:DURATION
func ParseStep(s string) (Step, error) {
	op, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")

	switch op {
	case "trigger":
		if !hasArg || arg == "" {
			return Step{}, fmt.Errorf("step %q: trigger needs a target name", s)
		}
		name, args, _ := strings.Cut(arg, "=")
		return Step{Op: op, Name: name, Args: args}, nil
	case "back", "press-back":
		if hasArg {
			return Step{}, fmt.Errorf("step %q: %s takes no argument", s, op)
		}
		return Step{Op: op}, nil
	case "close":
		if !hasArg {
			return Step{Op: op, Index: -1}, nil
		}
		i, err := strconv.Atoi(arg)
		if err != nil || i < 0 {
			return Step{}, fmt.Errorf("step %q: close index must be a non-negative integer", s)
		}
		return Step{Op: op, Index: i}, nil
	case "wait":
		d, err := time.ParseDuration(arg)
		if err != nil {
			return Step{}, fmt.Errorf("step %q: %w", s, err)
		}
		return Step{Op: op, Delay: d}, nil
	default:
		return Step{}, fmt.Errorf("step %q: unknown operation %q", s, op)
	}
}

// ParseSteps parses every step, reporting the first bad one.
func ParseSteps(raw []string) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for _, s := range raw {
		step, err := ParseStep(s)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s Step) String() string {
	switch s.Op {
	case "trigger":
		if s.Args != "" {
			return "trigger " + s.Name + " (" + s.Args + ")"
		}
		return "trigger " + s.Name
	case "close":
		if s.Index < 0 {
			return "close foreground popup"
		}
		return fmt.Sprintf("close popup %d", s.Index)
	case "wait":
		return "wait " + s.Delay.String()
	default:
		return s.Op
	}
}

// Apply runs the step against f and waits for it to settle.
func (s Step) Apply(ctx context.Context, f *uiflow.Flow) uiflow.Result {
	switch s.Op {
	case "trigger":
		var opts []uiflow.CommandOption
		if s.Args != "" {
			opts = append(opts, uiflow.WithArgs(s.Args))
		}
		return f.SendTrigger(ctx, s.Name, opts...)
	case "back":
		return f.MoveBack(ctx)
	case "close":
		if s.Index < 0 {
			return f.CloseForegroundPopup(ctx)
		}
		popups := f.Popups()
		if s.Index >= len(popups) {
			return uiflow.ResultNotFound
		}
		return f.ClosePopup(ctx, popups[s.Index])
	case "press-back":
		f.HandleBackInput()
		return settle(ctx, f)
	case "wait":
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return uiflow.ResultAbandoned
		}
		return uiflow.ResultCompleted
	}
	return uiflow.ResultFailed
}

// settle gives a detached back press time to enqueue, then waits for the
// queue to drain.
func settle(ctx context.Context, f *uiflow.Flow) uiflow.Result {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()

	for idle := 0; idle < 4; {
		select {
		case <-ctx.Done():
			return uiflow.ResultAbandoned
		case <-tick.C:
		}
		if f.IsTransiting() || f.PendingCommands() > 0 {
			idle = 0
		} else {
			idle++
		}
	}
	return uiflow.ResultCompleted
}
