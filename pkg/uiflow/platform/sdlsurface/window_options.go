package sdlsurface

import (
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

// Mode is how the window occupies the display.
type Mode int

const (
	ModeWindowed   Mode = iota // Resizable, decorated window
	ModeBorderless             // Undecorated window at the display size
	ModeFullscreen             // Exclusive fullscreen
	ModeDesktop                // Fullscreen at desktop resolution
)

func (m Mode) String() string {
	switch m {
	case ModeWindowed:
		return "windowed"
	case ModeBorderless:
		return "borderless"
	case ModeFullscreen:
		return "fullscreen"
	case ModeDesktop:
		return "desktop"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "windowed":
		*m = ModeWindowed
	case "borderless":
		*m = ModeBorderless
	case "fullscreen":
		*m = ModeFullscreen
	case "desktop", "fullscreen_desktop":
		*m = ModeDesktop
	default:
		return fmt.Errorf("unknown window mode %q", text)
	}
	return nil
}

// WindowOptions configures the window Open creates.
type WindowOptions struct {
	Mode   Mode
	Hidden bool // Create without showing; useful under a compositor that maps later
}

// flags returns the SDL window flags for the options.
func (o WindowOptions) flags() uint32 {
	var flags uint32
	if !o.Hidden {
		flags |= sdl.WINDOW_SHOWN
	}

	switch o.Mode {
	case ModeBorderless:
		flags |= sdl.WINDOW_BORDERLESS
	case ModeFullscreen:
		flags |= sdl.WINDOW_FULLSCREEN
	case ModeDesktop:
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	default:
		flags |= sdl.WINDOW_RESIZABLE
	}
	return flags
}
