package uiflow

import (
	"fmt"
	"strings"
)

// Strategy selects how an outgoing view and an incoming view overlap.
type Strategy int

const (
	StrategySequential Strategy = iota // Hide fully, then show
	StrategyParallel                   // Hide and show together, jointly awaited
)

func (s Strategy) String() string {
	switch s {
	case StrategySequential:
		return "sequential"
	case StrategyParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	switch normalize(text) {
	case "", "sequential":
		*s = StrategySequential
	case "parallel":
		*s = StrategyParallel
	default:
		return fmt.Errorf("unknown strategy %q", text)
	}
	return nil
}

// PopupDisposition decides what happens to stacked popups when the
// screen they sit on transitions away.
type PopupDisposition int

const (
	PreserveAll           PopupDisposition = iota // Keep popups; they move to the new screen
	HideFirstThenTransit                          // Hide the foreground popup, destroy the rest
	DestroyAllThenTransit                         // Destroy every popup without animation
)

func (d PopupDisposition) String() string {
	switch d {
	case PreserveAll:
		return "preserve_all"
	case HideFirstThenTransit:
		return "hide_first_then_transit"
	case DestroyAllThenTransit:
		return "destroy_all_then_transit"
	default:
		return "unknown"
	}
}

func (d PopupDisposition) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *PopupDisposition) UnmarshalText(text []byte) error {
	switch normalize(text) {
	case "", "preserve_all":
		*d = PreserveAll
	case "hide_first_then_transit":
		*d = HideFirstThenTransit
	case "destroy_all_then_transit":
		*d = DestroyAllThenTransit
	default:
		return fmt.Errorf("unknown popup disposition %q", text)
	}
	return nil
}

// BackgroundBehavior decides what a popup does when another popup is
// stacked on top of it.
type BackgroundBehavior int

const (
	DontHide       BackgroundBehavior = iota // Stay visible underneath
	JustHide                                 // Hide, keep the instance for re-show
	HideAndDestroy                           // Hide and destroy; re-instantiated on re-show
)

func (b BackgroundBehavior) String() string {
	switch b {
	case DontHide:
		return "dont_hide"
	case JustHide:
		return "just_hide"
	case HideAndDestroy:
		return "hide_and_destroy"
	default:
		return "unknown"
	}
}

func (b BackgroundBehavior) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BackgroundBehavior) UnmarshalText(text []byte) error {
	switch normalize(text) {
	case "", "dont_hide":
		*b = DontHide
	case "just_hide":
		*b = JustHide
	case "hide_and_destroy":
		*b = HideAndDestroy
	default:
		return fmt.Errorf("unknown background behavior %q", text)
	}
	return nil
}

// reshowsOnReturn reports whether the popup must be shown again when the
// popup above it closes.
func (b BackgroundBehavior) reshowsOnReturn() bool {
	return b == JustHide || b == HideAndDestroy
}

// BackBehavior is what a device back press does.
type BackBehavior int

const (
	BackUnset                  BackBehavior = iota // Defer to the next level of configuration
	BackNotAllowed                                 // Ignore the press
	BackMoveBack                                   // Navigate to the previous screen
	BackClosePopupElseMoveBack                     // Close the foreground popup, or move back if none
)

func (b BackBehavior) String() string {
	switch b {
	case BackUnset:
		return "unset"
	case BackNotAllowed:
		return "not_allowed"
	case BackMoveBack:
		return "move_back"
	case BackClosePopupElseMoveBack:
		return "close_popup_else_move_back"
	default:
		return "unknown"
	}
}

func (b BackBehavior) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BackBehavior) UnmarshalText(text []byte) error {
	switch normalize(text) {
	case "", "unset":
		*b = BackUnset
	case "not_allowed":
		*b = BackNotAllowed
	case "move_back":
		*b = BackMoveBack
	case "close_popup_else_move_back":
		*b = BackClosePopupElseMoveBack
	default:
		return fmt.Errorf("unknown back behavior %q", text)
	}
	return nil
}

func normalize(text []byte) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(text))), "-", "_")
}

// BackPolicy controls back navigation into and out of a target.
// The zero value allows both directions.
type BackPolicy struct {
	DenyFromHere bool         `toml:"deny_back_from"` // Moving back while this is current is refused
	DenyToHere   bool         `toml:"deny_back_to"`   // Moving back onto this target is refused
	Device       BackBehavior `toml:"back"`           // Default device back behavior
}

func (p BackPolicy) CanMoveBackFromHere() bool { return !p.DenyFromHere }
func (p BackPolicy) CanMoveBackToHere() bool   { return !p.DenyToHere }

// TargetOptions is the configuration shared by screens and popups.
type TargetOptions struct {
	Name        string     // Registered name used by SendTrigger
	TitleKey    string     // i18n message id for the display title
	Loader      Loader     // Loads the view's asset
	Strategy    Strategy   // How this view's show overlaps the outgoing hide
	Back        BackPolicy // Back navigation policy
	Preload     bool       // Load during Initialize
	InScene     bool       // Scene-resident: activated/deactivated, never destroyed
	RetainAsset bool       // Keep the asset loaded after the view is gone
}

// Target is a navigable view configuration: a *ScreenTarget or a *PopupTarget.
type Target interface {
	Subject
	options() *TargetOptions
}

// ScreenTarget configures a full-page view.
type ScreenTarget struct {
	TargetOptions

	AllowPopups          bool             // Popups may open over this screen
	AllowStackablePopups bool             // More than one popup may be stacked
	OnScreenTransit      PopupDisposition // What happens to popups when leaving
}

// PopupTarget configures an overlay view.
type PopupTarget struct {
	TargetOptions

	GoingBackground BackgroundBehavior // What happens when covered by another popup
}

func (t *ScreenTarget) options() *TargetOptions { return &t.TargetOptions }
func (t *PopupTarget) options() *TargetOptions  { return &t.TargetOptions }

func (t *ScreenTarget) String() string { return "screen:" + t.Name }
func (t *PopupTarget) String() string  { return "popup:" + t.Name }
