package uiflow

import (
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/atomic"
)

// CommandKind identifies what a command asks the flow to do.
type CommandKind int

const (
	CommandTriggerScreen CommandKind = iota
	CommandTriggerPopup
	CommandMoveBack
	CommandClosePopup
)

func (k CommandKind) String() string {
	switch k {
	case CommandTriggerScreen:
		return "trigger_screen"
	case CommandTriggerPopup:
		return "trigger_popup"
	case CommandMoveBack:
		return "move_back"
	case CommandClosePopup:
		return "close_popup"
	default:
		return "unknown"
	}
}

// Subject is what a command acts on: a *ScreenTarget, a *PopupTarget or
// a live *Popup.
type Subject interface {
	subject()
}

func (*ScreenTarget) subject() {}
func (*PopupTarget) subject()  {}
func (*Popup) subject()        {}

// Callback receives the view a command showed or hid, with the command args.
type Callback func(view View, args any)

// Command is a single queued navigation request.
// It is immutable once submitted; only its completion state changes.
type Command struct {
	ID      string
	Kind    CommandKind
	Subject Subject // nil for MoveBack and for closing the foreground popup
	Args    any     // Forwarded verbatim to show/hide and callbacks
	OnShow  Callback
	OnHide  Callback

	done   chan struct{}
	isDone atomic.Bool
	once   sync.Once
	result Result
}

// CommandOption customizes a command built by the Flow entry points.
type CommandOption func(*Command)

// WithArgs sets the payload passed to the views' Show/RequestHide.
func WithArgs(args any) CommandOption {
	return func(c *Command) { c.Args = args }
}

// WithOnShow registers a callback fired after the incoming view is shown.
func WithOnShow(fn Callback) CommandOption {
	return func(c *Command) { c.OnShow = fn }
}

// WithOnHide registers a callback fired after the outgoing view is hidden.
func WithOnHide(fn Callback) CommandOption {
	return func(c *Command) { c.OnHide = fn }
}

func newCommand(kind CommandKind, subject Subject, opts ...CommandOption) *Command {
	c := &Command{
		ID:      ulid.Make().String(),
		Kind:    kind,
		Subject: subject,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Done is closed when the command has finished executing.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// IsDone reports whether the command has finished executing.
func (c *Command) IsDone() bool {
	return c.isDone.Load()
}

// Result returns the command's outcome. Only meaningful after Done.
func (c *Command) Result() Result {
	return c.result
}

// finish records the result and releases waiters. Only the first call counts.
func (c *Command) finish(r Result) {
	c.once.Do(func() {
		c.result = r
		c.isDone.Store(true)
		close(c.done)
	})
}

func (c *Command) fireShow(v View) {
	if c.OnShow != nil && v != nil {
		c.OnShow(v, c.Args)
	}
}

func (c *Command) fireHide(v View) {
	if c.OnHide != nil && v != nil {
		c.OnHide(v, c.Args)
	}
}

// subjectName is used in log lines.
func (c *Command) subjectName() string {
	switch s := c.Subject.(type) {
	case Target:
		return s.options().Name
	case *Popup:
		return s.Target().Name
	}
	return ""
}

// Popup is a live popup on the stack. It is the handle ClosePopup takes.
type Popup struct {
	id     string
	target *PopupTarget
	args   any

	mu   sync.RWMutex
	view View // nil while destroyed in the background
}

func newPopup(target *PopupTarget, args any) *Popup {
	return &Popup{
		id:     ulid.Make().String(),
		target: target,
		args:   args,
	}
}

// ID uniquely identifies the popup instance.
func (p *Popup) ID() string { return p.id }

// Target returns the configuration the popup was opened from.
func (p *Popup) Target() *PopupTarget { return p.target }

// Args returns the payload the popup was opened with.
func (p *Popup) Args() any { return p.args }

// View returns the live view, or nil if it was destroyed while in the background.
func (p *Popup) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

func (p *Popup) setView(v View) {
	p.mu.Lock()
	p.view = v
	p.mu.Unlock()
}

func (p *Popup) String() string {
	return p.target.Name + "#" + p.id
}
