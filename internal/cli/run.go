package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/config"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/platform/backkey"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/platform/sdlsurface"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/sim"
)

type runOptions struct {
	configPath string
	messages   []string
	lang       string
	steps      []string
	backend    string
	windowMode string
	evdevPath  string
	logLevel   string
	logPath    string
	loadDelay  time.Duration
	showDelay  time.Duration
	hideDelay  time.Duration
	events     bool
	metrics    bool
}

// RunCmd returns the run command, which drives a flow definition with
// simulated views and prints the navigation state after every step.
func RunCmd() *cobra.Command {
	var o runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a flow definition through scripted navigation",
		Long: `Run loads a flow definition, builds a simulated view for every
screen and popup, and executes the given steps in order.

Steps:
  trigger:NAME[=ARGS]   navigate to a screen or open a popup
  back                  move back one screen
  close                 close the foreground popup
  close:INDEX           close the popup at INDEX in the stack (0 is bottom)
  press-back            device back press, resolved by back behavior
  wait:DURATION         sleep, e.g. wait:200ms

Examples:
  flowctl run -c flow.toml -s trigger:settings -s trigger:confirm -s press-back
  flowctl run -c flow.toml --backend sdl --evdev /dev/input/event1 -s wait:30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.run(ctx, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "Flow definition file (TOML)")
	cmd.Flags().StringArrayVar(&o.messages, "messages", nil, "Extra message files for titles (repeatable)")
	cmd.Flags().StringVar(&o.lang, "lang", "", "Preferred title language; overrides the definition")
	cmd.Flags().StringArrayVarP(&o.steps, "step", "s", nil, "Navigation step (repeatable)")
	cmd.Flags().StringVar(&o.backend, "backend", "sim", "Popup surface backend (sim|sdl)")
	cmd.Flags().StringVar(&o.windowMode, "window", "windowed", "SDL window mode (windowed|borderless|fullscreen|desktop)")
	cmd.Flags().StringVar(&o.evdevPath, "evdev", "", "Input device whose back key drives device back")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "", "Engine log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&o.logPath, "log-path", "", "Engine log file")
	cmd.Flags().DurationVar(&o.loadDelay, "load-delay", 0, "Simulated asset load time")
	cmd.Flags().DurationVar(&o.showDelay, "show-delay", 0, "Simulated show animation time")
	cmd.Flags().DurationVar(&o.hideDelay, "hide-delay", 0, "Simulated hide animation time")
	cmd.Flags().BoolVar(&o.events, "events", false, "Print the view lifecycle events afterwards")
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "Print engine metrics afterwards")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (o *runOptions) run(ctx context.Context, out io.Writer) error {
	steps, err := ParseSteps(o.steps)
	if err != nil {
		return err
	}

	def, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	localizer, err := loadLocalizer(def, o.configPath, o.lang, o.messages)
	if err != nil {
		return err
	}

	rec := sim.NewRecorder()
	opts := uiflow.Options{
		LogPath:   o.logPath,
		LogLevel:  o.logLevel,
		Localizer: localizer,
	}
	if err := def.Apply(&opts, o.simLoaders(def, rec)); err != nil {
		return err
	}
	if o.logLevel != "" {
		opts.LogLevel = o.logLevel
	}
	defer uiflow.CloseLogs()

	var compose func()
	switch o.backend {
	case "sim":
		opts.SurfaceFactory = &sim.SurfaceFactory{}
		opts.BaseSurface = &sim.Surface{Scale: 1}
		compose = func() {}
	case "sdl":
		var mode sdlsurface.Mode
		if err := mode.UnmarshalText([]byte(o.windowMode)); err != nil {
			return err
		}
		win, err := sdlsurface.Open("flowctl", sdlsurface.WindowOptions{Mode: mode}, uiflow.GetLogger())
		if err != nil {
			return err
		}
		defer win.Close()
		opts.SurfaceFactory = win.Factory()
		opts.BaseSurface = win.Base()
		compose = func() {
			if err := win.Compose(); err != nil {
				fmt.Fprintln(out, color.New(color.FgRed).Sprint("compose: "+err.Error()))
			}
		}
	default:
		return fmt.Errorf("unknown backend %q (want sim or sdl)", o.backend)
	}

	flow, err := uiflow.New(opts)
	if err != nil {
		return err
	}
	defer func() {
		disposeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = flow.Dispose(disposeCtx)
	}()

	if err := flow.Initialize(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, color.New(color.FgHiBlue).Sprint("initialized"))
	printState(out, flow)
	compose()

	if o.evdevPath != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		w := backkey.New(backkey.Config{DevicePath: o.evdevPath, CoolDown: 150 * time.Millisecond}, flow, uiflow.GetLogger())
		go func() {
			if err := w.Run(watchCtx); err != nil {
				fmt.Fprintln(out, color.New(color.FgRed).Sprint(err.Error()))
			}
		}()
	}

	for i, step := range steps {
		r := step.Apply(ctx, flow)
		printStep(out, i, step, r)
		printState(out, flow)
		compose()
		if r == uiflow.ResultAbandoned {
			break
		}
	}

	if o.events {
		fmt.Fprintln(out, "events:")
		for _, ev := range rec.Events() {
			fmt.Fprintln(out, "    "+ev)
		}
	}
	if o.metrics {
		return printMetrics(out)
	}
	return nil
}

// simLoaders builds one sim loader per defined target.
func (o *runOptions) simLoaders(def *config.File, rec *sim.Recorder) config.LoaderFunc {
	scene := make(map[string]bool)
	for _, s := range def.Screens {
		scene[s.Name] = s.InScene
	}
	for _, p := range def.Popups {
		scene[p.Name] = p.InScene
	}

	return func(name string) (uiflow.Loader, error) {
		inScene, ok := scene[name]
		if !ok {
			return nil, fmt.Errorf("no target %q", name)
		}
		l := sim.NewLoader(name, rec)
		l.Scene = inScene
		l.Delay = o.loadDelay
		l.ShowDelay = o.showDelay
		l.HideDelay = o.hideDelay
		return l, nil
	}
}

// loadLocalizer builds a Localizer from the definition's message files
// and any extra ones. Returns nil when there is nothing to translate.
func loadLocalizer(def *config.File, configPath, lang string, extra []string) (*uiflow.Localizer, error) {
	files := make([]string, 0, len(def.Messages)+len(extra))
	for _, m := range def.Messages {
		if !filepath.IsAbs(m) {
			m = filepath.Join(filepath.Dir(configPath), m)
		}
		files = append(files, m)
	}
	files = append(files, extra...)

	if len(files) == 0 {
		return nil, nil
	}

	if lang == "" {
		lang = def.Language
	}
	var langs []string
	if lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("language %q: %w", lang, err)
		}
		langs = append(langs, tag.String())
	}

	l := uiflow.NewLocalizer(language.English, langs...)
	for _, f := range files {
		if err := l.LoadMessageFile(f); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// targetNames lists every defined target, screens first.
func targetNames(def *config.File) []string {
	names := make([]string, 0, len(def.Screens)+len(def.Popups))
	for _, s := range def.Screens {
		names = append(names, s.Name)
	}
	for _, p := range def.Popups {
		names = append(names, p.Name)
	}
	return names
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
