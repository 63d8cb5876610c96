// Package config reads flow definitions from TOML files.
//
// A definition names every screen and popup, its policies and which one
// the flow starts on. Loaders are not described by the file; the caller
// supplies them by name when the definition is applied to uiflow.Options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

// File is the top-level TOML structure.
type File struct {
	InitialScreen string              `toml:"initial_screen"`
	DefaultBack   uiflow.BackBehavior `toml:"default_back"`
	LogLevel      string              `toml:"log_level"`
	Language      string              `toml:"language"` // Preferred message language, e.g. "fr"
	Messages      []string            `toml:"messages"` // go-i18n message files
	Screens       []Screen            `toml:"screen"`
	Popups        []Popup             `toml:"popup"`
}

// Screen is one [[screen]] block.
type Screen struct {
	Name         string                  `toml:"name"`
	Title        string                  `toml:"title"` // i18n message id
	Strategy     uiflow.Strategy         `toml:"strategy"`
	Preload      bool                    `toml:"preload"`
	InScene      bool                    `toml:"in_scene"`
	RetainAsset  bool                    `toml:"retain_asset"`
	DenyBackFrom bool                    `toml:"deny_back_from"`
	DenyBackTo   bool                    `toml:"deny_back_to"`
	Back         uiflow.BackBehavior     `toml:"back"`
	AllowPopups  bool                    `toml:"allow_popups"`
	Stackable    bool                    `toml:"stackable_popups"`
	OnTransit    uiflow.PopupDisposition `toml:"on_transit"`
}

// Popup is one [[popup]] block.
type Popup struct {
	Name         string                    `toml:"name"`
	Title        string                    `toml:"title"`
	Strategy     uiflow.Strategy           `toml:"strategy"`
	Preload      bool                      `toml:"preload"`
	InScene      bool                      `toml:"in_scene"`
	RetainAsset  bool                      `toml:"retain_asset"`
	DenyBackFrom bool                      `toml:"deny_back_from"`
	DenyBackTo   bool                      `toml:"deny_back_to"`
	Back         uiflow.BackBehavior       `toml:"back"`
	Background   uiflow.BackgroundBehavior `toml:"background"`
}

// LoaderFunc returns the loader for a named target.
type LoaderFunc func(name string) (uiflow.Loader, error)

// Load reads and validates a definition file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a definition.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("parse flow config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse flow config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names are present and unique and the initial screen exists.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]string)

	check := func(kind string, i int, name string) {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: name is required", kind, i))
			return
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%s[%d] %q: name already used by a %s", kind, i, name, prev))
			return
		}
		seen[name] = kind
	}

	if len(f.Screens) == 0 {
		errs = append(errs, errors.New("no screens defined"))
	}
	for i, s := range f.Screens {
		check("screen", i, s.Name)
	}
	for i, p := range f.Popups {
		check("popup", i, p.Name)
	}

	if f.InitialScreen != "" && seen[f.InitialScreen] != "screen" {
		errs = append(errs, fmt.Errorf("initial_screen %q is not a defined screen", f.InitialScreen))
	}
	return errors.Join(errs...)
}

// Apply adds the defined targets to opts, resolving loaders through
// loaders. Scene-resident targets go to the Scene lists.
func (f *File) Apply(opts *uiflow.Options, loaders LoaderFunc) error {
	if loaders == nil {
		return fmt.Errorf("apply flow config: loaders: %w", uiflow.ErrMissingDependency)
	}

	for _, s := range f.Screens {
		l, err := loaders(s.Name)
		if err != nil {
			return fmt.Errorf("screen %q: loader: %w", s.Name, err)
		}
		t := s.target(l)
		if s.InScene {
			opts.SceneScreens = append(opts.SceneScreens, t)
		} else {
			opts.Screens = append(opts.Screens, t)
		}
	}

	for _, p := range f.Popups {
		l, err := loaders(p.Name)
		if err != nil {
			return fmt.Errorf("popup %q: loader: %w", p.Name, err)
		}
		t := p.target(l)
		if p.InScene {
			opts.ScenePopups = append(opts.ScenePopups, t)
		} else {
			opts.Popups = append(opts.Popups, t)
		}
	}

	if f.InitialScreen != "" {
		opts.InitialScreen = f.InitialScreen
	}
	if f.DefaultBack != uiflow.BackUnset {
		opts.DefaultBackBehavior = f.DefaultBack
	}
	if f.LogLevel != "" {
		opts.LogLevel = f.LogLevel
	}
	return nil
}

func (s Screen) target(l uiflow.Loader) *uiflow.ScreenTarget {
	return &uiflow.ScreenTarget{
		TargetOptions: uiflow.TargetOptions{
			Name:        s.Name,
			TitleKey:    s.Title,
			Loader:      l,
			Strategy:    s.Strategy,
			Preload:     s.Preload,
			InScene:     s.InScene,
			RetainAsset: s.RetainAsset,
			Back: uiflow.BackPolicy{
				DenyFromHere: s.DenyBackFrom,
				DenyToHere:   s.DenyBackTo,
				Device:       s.Back,
			},
		},
		AllowPopups:          s.AllowPopups,
		AllowStackablePopups: s.Stackable,
		OnScreenTransit:      s.OnTransit,
	}
}

func (p Popup) target(l uiflow.Loader) *uiflow.PopupTarget {
	return &uiflow.PopupTarget{
		TargetOptions: uiflow.TargetOptions{
			Name:        p.Name,
			TitleKey:    p.Title,
			Loader:      l,
			Strategy:    p.Strategy,
			Preload:     p.Preload,
			InScene:     p.InScene,
			RetainAsset: p.RetainAsset,
			Back: uiflow.BackPolicy{
				DenyFromHere: p.DenyBackFrom,
				DenyToHere:   p.DenyBackTo,
				Device:       p.Back,
			},
		},
		GoingBackground: p.Background,
	}
}
