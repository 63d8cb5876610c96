package uiflow_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/sim"
)

type fixture struct {
	rec     *sim.Recorder
	factory *sim.SurfaceFactory
	base    *sim.Surface
	loaders map[string]*sim.Loader
	screens []*uiflow.ScreenTarget
	popups  []*uiflow.PopupTarget
	scene   []*uiflow.ScreenTarget
}

func newFixture() *fixture {
	return &fixture{
		rec:     sim.NewRecorder(),
		factory: &sim.SurfaceFactory{},
		base:    &sim.Surface{},
		loaders: make(map[string]*sim.Loader),
	}
}

func (fx *fixture) screen(name string, configure ...func(*uiflow.ScreenTarget)) *uiflow.ScreenTarget {
	l := sim.NewLoader(name, fx.rec)
	fx.loaders[name] = l
	s := &uiflow.ScreenTarget{
		TargetOptions:        uiflow.TargetOptions{Name: name, Loader: l},
		AllowPopups:          true,
		AllowStackablePopups: true,
	}
	for _, c := range configure {
		c(s)
	}
	fx.screens = append(fx.screens, s)
	return s
}

func (fx *fixture) sceneScreen(name string) *uiflow.ScreenTarget {
	l := sim.NewLoader(name, fx.rec)
	l.Scene = true
	fx.loaders[name] = l
	s := &uiflow.ScreenTarget{
		TargetOptions: uiflow.TargetOptions{Name: name, Loader: l, InScene: true},
		AllowPopups:   true,
	}
	fx.scene = append(fx.scene, s)
	return s
}

func (fx *fixture) popup(name string, configure ...func(*uiflow.PopupTarget)) *uiflow.PopupTarget {
	l := sim.NewLoader(name, fx.rec)
	fx.loaders[name] = l
	p := &uiflow.PopupTarget{
		TargetOptions: uiflow.TargetOptions{Name: name, Loader: l},
	}
	for _, c := range configure {
		c(p)
	}
	fx.popups = append(fx.popups, p)
	return p
}

func (fx *fixture) options() uiflow.Options {
	return uiflow.Options{
		Logger:         quietLogger(),
		Screens:        fx.screens,
		Popups:         fx.popups,
		SceneScreens:   fx.scene,
		SurfaceFactory: fx.factory,
		BaseSurface:    fx.base,
	}
}

// start builds and initializes a Flow, disposing it when the test ends.
func (fx *fixture) start(t *testing.T, configure ...func(*uiflow.Options)) *uiflow.Flow {
	t.Helper()

	opts := fx.options()
	for _, c := range configure {
		c(&opts)
	}

	f, err := uiflow.New(opts)
	require.NoError(t, err)
	require.NoError(t, f.Initialize(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.Dispose(ctx)
	})
	return f
}

// view returns the most recent view built for name.
func (fx *fixture) view(name string) *sim.View {
	return fx.loaders[name].Last()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func historyNames(f *uiflow.Flow) []string {
	var names []string
	for _, e := range f.History() {
		names = append(names, e.Target.Name)
	}
	return names
}

func popupNames(f *uiflow.Flow) []string {
	var names []string
	for _, p := range f.Popups() {
		names = append(names, p.Target().Name)
	}
	return names
}

func trigger(t *testing.T, f *uiflow.Flow, name string, opts ...uiflow.CommandOption) {
	t.Helper()
	require.Equal(t, uiflow.ResultCompleted, f.SendTrigger(context.Background(), name, opts...), "trigger %s", name)
}
