package uiflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

func TestNew_RequiresScreens(t *testing.T) {
	_, err := uiflow.New(uiflow.Options{Logger: quietLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, uiflow.ErrMissingDependency)
}

func TestNew_PopupsRequireSurfaceFactory(t *testing.T) {
	fx := newFixture()
	fx.screen("home")
	fx.popup("menu")

	opts := fx.options()
	opts.SurfaceFactory = nil

	_, err := uiflow.New(opts)
	assert.ErrorIs(t, err, uiflow.ErrMissingDependency)
}

func TestInitialize_DuplicateNames(t *testing.T) {
	fx := newFixture()
	fx.screen("home")
	fx.screen("home")

	f, err := uiflow.New(fx.options())
	require.NoError(t, err)

	err = f.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, uiflow.ErrDuplicateTarget)
}

func TestInitialize_MissingLoader(t *testing.T) {
	fx := newFixture()
	fx.screen("home")
	fx.screens = append(fx.screens, &uiflow.ScreenTarget{
		TargetOptions: uiflow.TargetOptions{Name: "broken"},
	})

	f, err := uiflow.New(fx.options())
	require.NoError(t, err)
	assert.ErrorIs(t, f.Initialize(context.Background()), uiflow.ErrMissingDependency)
}

func TestInitialize_SceneResidencyMismatch(t *testing.T) {
	t.Run("scene list without InScene", func(t *testing.T) {
		fx := newFixture()
		fx.screen("home")
		lobby := fx.sceneScreen("lobby")
		lobby.InScene = false

		f, err := uiflow.New(fx.options())
		require.NoError(t, err)
		assert.ErrorIs(t, f.Initialize(context.Background()), uiflow.ErrSceneMismatch)
		assert.False(t, lobby.InScene, "targets are not rewritten")
	})

	t.Run("InScene outside the scene list", func(t *testing.T) {
		fx := newFixture()
		fx.screen("home", func(s *uiflow.ScreenTarget) { s.InScene = true })

		f, err := uiflow.New(fx.options())
		require.NoError(t, err)
		assert.ErrorIs(t, f.Initialize(context.Background()), uiflow.ErrSceneMismatch)
	})
}

func TestInitialize_InitialScreen(t *testing.T) {
	fx := newFixture()
	fx.screen("home")

	f := fx.start(t, func(o *uiflow.Options) {
		o.InitialScreen = "home"
		o.InitialArgs = 42
	})

	screen, view := f.CurrentScreen()
	require.NotNil(t, screen)
	assert.Equal(t, "home", screen.Name)
	assert.Same(t, fx.view("home"), view)
	assert.Equal(t, 42, fx.view("home").LastArgs())
	assert.Equal(t, []string{"home"}, historyNames(f))

	// A second Initialize is a no-op.
	assert.NoError(t, f.Initialize(context.Background()))
	assert.Len(t, f.History(), 1)
}

func TestSendTrigger_BeforeInitialize(t *testing.T) {
	fx := newFixture()
	fx.screen("home")

	f, err := uiflow.New(fx.options())
	require.NoError(t, err)

	assert.Equal(t, uiflow.ResultFailed, f.SendTrigger(context.Background(), "home"))
}

func TestSendTrigger_UnknownName(t *testing.T) {
	fx := newFixture()
	fx.screen("home")
	f := fx.start(t)

	assert.Equal(t, uiflow.ResultNotFound, f.SendTrigger(context.Background(), "nowhere"))
	assert.Empty(t, fx.rec.Events())
	assert.Empty(t, f.History())
}

func TestTriggerScreen_Sequential(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	f := fx.start(t)

	trigger(t, f, "a")
	trigger(t, f, "b")

	assert.Equal(t, []string{"a", "b"}, historyNames(f))
	screen, view := f.CurrentScreen()
	assert.Equal(t, "b", screen.Name)
	assert.Same(t, fx.view("b"), view)

	assert.Less(t, fx.rec.Index("hide:a"), fx.rec.Index("show-start:b"), "hide completes before show starts")
	assert.True(t, fx.view("a").IsDestroyed())
	assert.False(t, fx.loaders["a"].IsLoaded(), "asset of the screen left behind is unloaded")
	assert.True(t, fx.view("b").IsActive())
	assert.False(t, f.IsTransiting())
}

func TestTriggerScreen_ParallelOverlapsHide(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b", func(s *uiflow.ScreenTarget) { s.Strategy = uiflow.StrategyParallel })
	fx.loaders["a"].HideDelay = 50 * time.Millisecond
	f := fx.start(t)

	trigger(t, f, "a")
	trigger(t, f, "b")

	assert.Less(t, fx.rec.Index("show-start:b"), fx.rec.Index("hide:a"))
	assert.GreaterOrEqual(t, fx.rec.Index("hide:a"), 0, "parallel hide is awaited before the command completes")
	assert.Equal(t, []string{"a", "b"}, historyNames(f))
}

func TestTriggerScreen_SceneResident(t *testing.T) {
	fx := newFixture()
	fx.sceneScreen("a")
	fx.sceneScreen("b")
	f := fx.start(t)

	trigger(t, f, "a")
	trigger(t, f, "b")
	first := fx.view("a")
	assert.False(t, first.IsActive())
	assert.False(t, first.IsDestroyed())

	trigger(t, f, "a")
	assert.Len(t, fx.loaders["a"].Views(), 1, "scene views are reused")
	assert.True(t, first.IsActive())
	assert.Equal(t, 0, fx.rec.Count("destroy:a"))
	assert.Equal(t, 0, fx.loaders["a"].Unloads())
}

func TestTriggerScreen_LoadFailure(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	fx.loaders["b"].Err = errors.New("missing asset")
	f := fx.start(t)

	trigger(t, f, "a")
	assert.Equal(t, uiflow.ResultFailed, f.SendTrigger(context.Background(), "b"))

	screen, _ := f.CurrentScreen()
	assert.Equal(t, "a", screen.Name)
	assert.Equal(t, []string{"a"}, historyNames(f))
}

func TestTriggerScreen_FailureDropsRetiredView(t *testing.T) {
	tests := []struct {
		name  string
		setup func(fx *fixture, b *uiflow.ScreenTarget)
	}{
		{"load", func(fx *fixture, b *uiflow.ScreenTarget) {
			fx.loaders["b"].Err = errors.New("missing asset")
		}},
		{"show", func(fx *fixture, b *uiflow.ScreenTarget) {
			fx.loaders["b"].ShowErr = errors.New("broken animation")
		}},
		{"parallel show", func(fx *fixture, b *uiflow.ScreenTarget) {
			b.Strategy = uiflow.StrategyParallel
			fx.loaders["b"].ShowErr = errors.New("broken animation")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			fx.screen("a")
			b := fx.screen("b")
			fx.screen("c")
			tt.setup(fx, b)
			f := fx.start(t)

			trigger(t, f, "a")
			old := fx.view("a")
			assert.Equal(t, uiflow.ResultFailed, f.SendTrigger(context.Background(), "b"))

			screen, view := f.CurrentScreen()
			assert.Equal(t, "a", screen.Name)
			assert.Nil(t, view, "a destroyed view is not kept as current")
			assert.True(t, old.IsDestroyed())

			trigger(t, f, "c")
			assert.Equal(t, 1, old.Hides())
			assert.Equal(t, 1, fx.rec.Count("hide-start:a"))
			assert.Equal(t, 1, fx.rec.Count("destroy:a"))
			assert.Equal(t, 1, fx.loaders["a"].Unloads())
			assert.Equal(t, []string{"a", "c"}, historyNames(f))

			screen, view = f.CurrentScreen()
			assert.Equal(t, "c", screen.Name)
			assert.Same(t, fx.view("c"), view)
		})
	}
}

func TestTriggerScreen_ShowFailure(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	fx.loaders["b"].ShowErr = errors.New("broken animation")
	f := fx.start(t)

	trigger(t, f, "a")
	assert.Equal(t, uiflow.ResultFailed, f.SendTrigger(context.Background(), "b"))

	screen, _ := f.CurrentScreen()
	assert.Equal(t, "a", screen.Name)
	assert.Equal(t, []string{"a"}, historyNames(f))
	assert.True(t, fx.view("b").IsDestroyed())
}

func TestTriggerScreen_Callbacks(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	f := fx.start(t)
	trigger(t, f, "a")

	var shown, hidden uiflow.View
	var shownArgs any
	res := f.SendTrigger(context.Background(), "b",
		uiflow.WithArgs("payload"),
		uiflow.WithOnShow(func(v uiflow.View, args any) { shown, shownArgs = v, args }),
		uiflow.WithOnHide(func(v uiflow.View, args any) { hidden = v }),
	)
	require.Equal(t, uiflow.ResultCompleted, res)

	assert.Same(t, fx.view("b"), shown)
	assert.Same(t, fx.view("a"), hidden)
	assert.Equal(t, "payload", shownArgs)
	assert.Equal(t, "payload", fx.view("b").LastArgs())
}

func TestTriggerScreen_Events(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	f, err := uiflow.New(fx.options())
	require.NoError(t, err)

	var starts, changes []uiflow.ScreenChange
	f.OnStart(func(c uiflow.ScreenChange) { starts = append(starts, c) })
	unsubscribe := f.OnScreenChange(func(c uiflow.ScreenChange) { changes = append(changes, c) })

	require.NoError(t, f.Initialize(context.Background()))
	trigger(t, f, "a")
	trigger(t, f, "b")
	require.Equal(t, uiflow.ResultCompleted, f.MoveBack(context.Background()))

	require.Len(t, starts, 1)
	assert.Equal(t, "a", starts[0].Current.Name)
	assert.Nil(t, starts[0].Previous)

	require.Len(t, changes, 3)
	assert.Equal(t, "b", changes[1].Current.Name)
	assert.Equal(t, "a", changes[1].Previous.Name)
	assert.Equal(t, "b", changes[1].Title, "title falls back to the name")
	assert.True(t, changes[2].Back)

	unsubscribe()
	trigger(t, f, "b")
	assert.Len(t, changes, 3)
}

func TestMoveBack(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	f := fx.start(t)

	trigger(t, f, "a", uiflow.WithArgs("from-a"))
	trigger(t, f, "b")

	assert.Equal(t, uiflow.ResultCompleted, f.MoveBack(context.Background()))
	assert.Equal(t, []string{"a"}, historyNames(f))

	screen, view := f.CurrentScreen()
	assert.Equal(t, "a", screen.Name)
	assert.Same(t, fx.view("a"), view)
	assert.Equal(t, "from-a", fx.view("a").LastArgs(), "history args are reused")
	assert.Len(t, fx.loaders["a"].Views(), 2)
}

func TestMoveBack_SingleEntryRejected(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	f := fx.start(t)
	trigger(t, f, "a")
	fx.rec.Reset()

	assert.Equal(t, uiflow.ResultRejected, f.MoveBack(context.Background()))
	assert.False(t, f.IsTransiting())
	assert.Empty(t, fx.rec.Events())
	assert.Equal(t, []string{"a"}, historyNames(f))
}

func TestMoveBack_QueuedBehindTrigger(t *testing.T) {
	fx := newFixture()
	fx.screen("a")
	fx.screen("b")
	fx.loaders["b"].Delay = 50 * time.Millisecond
	f := fx.start(t)
	trigger(t, f, "a")

	done := make(chan uiflow.Result, 1)
	go func() { done <- f.SendTrigger(context.Background(), "b") }()
	require.Eventually(t, f.IsTransiting, time.Second, time.Millisecond)

	assert.Equal(t, uiflow.ResultCompleted, f.MoveBack(context.Background()),
		"history is judged when the command runs, not when it is sent")
	assert.Equal(t, uiflow.ResultCompleted, <-done)
	assert.Equal(t, []string{"a"}, historyNames(f))
	screen, _ := f.CurrentScreen()
	assert.Equal(t, "a", screen.Name)
}

func TestMoveBack_Policies(t *testing.T) {
	tests := []struct {
		name      string
		configure func(a, b *uiflow.ScreenTarget)
	}{
		{
			name:      "cannot leave",
			configure: func(a, b *uiflow.ScreenTarget) { b.Back.DenyFromHere = true },
		},
		{
			name:      "cannot return",
			configure: func(a, b *uiflow.ScreenTarget) { a.Back.DenyToHere = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			a := fx.screen("a")
			b := fx.screen("b")
			tt.configure(a, b)
			f := fx.start(t)

			trigger(t, f, "a")
			trigger(t, f, "b")

			assert.Equal(t, uiflow.ResultRejected, f.MoveBack(context.Background()))
			assert.Equal(t, []string{"a", "b"}, historyNames(f))
		})
	}
}

func TestQueue_FIFO(t *testing.T) {
	fx := newFixture()
	fx.screen("slow")
	fx.screen("b")
	fx.screen("c")
	fx.loaders["slow"].ShowDelay = 100 * time.Millisecond
	f := fx.start(t)

	var wg sync.WaitGroup
	results := make([]uiflow.Result, 3)
	submit := func(i int, name string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.SendTrigger(context.Background(), name)
		}()
	}

	submit(0, "slow")
	require.Eventually(t, f.IsTransiting, time.Second, time.Millisecond)
	submit(1, "b")
	require.Eventually(t, func() bool { return f.PendingCommands() == 1 }, time.Second, time.Millisecond)
	submit(2, "c")
	require.Eventually(t, func() bool { return f.PendingCommands() == 2 }, time.Second, time.Millisecond)

	wg.Wait()
	for _, r := range results {
		assert.Equal(t, uiflow.ResultCompleted, r)
	}
	assert.Equal(t, []string{"slow", "b", "c"}, historyNames(f))
	assert.False(t, f.IsTransiting())
	assert.Equal(t, 0, f.PendingCommands())
}

func TestQueue_OneTransitionAtATime(t *testing.T) {
	const n = 8

	fx := newFixture()
	fx.screen("home")
	for i := 0; i < n; i++ {
		fx.screen(fmt.Sprintf("s%d", i))
		fx.loaders[fmt.Sprintf("s%d", i)].ShowDelay = time.Millisecond
	}
	f := fx.start(t, func(o *uiflow.Options) { o.InitialScreen = "home" })

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, uiflow.ResultCompleted, f.SendTrigger(context.Background(), fmt.Sprintf("s%d", i)))
		}()
	}
	wg.Wait()

	assert.Len(t, f.History(), n+1)

	// Every show completes before the next one starts.
	shows := fx.rec.Filter("show")
	require.Len(t, shows, 2*(n+1))
	for i := 0; i < len(shows); i += 2 {
		name := strings.TrimPrefix(shows[i], "show-start:")
		assert.Equal(t, "show-start:"+name, shows[i])
		assert.Equal(t, "show:"+name, shows[i+1])
	}
}

func TestQueue_AbandonedCommandStillRuns(t *testing.T) {
	fx := newFixture()
	fx.screen("slow")
	fx.loaders["slow"].ShowDelay = 100 * time.Millisecond
	f := fx.start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Equal(t, uiflow.ResultAbandoned, f.SendTrigger(ctx, "slow"))
	require.Eventually(t, func() bool {
		screen, _ := f.CurrentScreen()
		return screen != nil && screen.Name == "slow"
	}, time.Second, 5*time.Millisecond)
}

type panicView struct{}

func (panicView) Show(context.Context, any) error        { panic("boom") }
func (panicView) RequestHide(context.Context, any) error { return nil }
func (v panicView) Handle() uiflow.Handle                { return v }
func (panicView) SetActive(bool)                         {}
func (panicView) Destroy()                               {}

type staticLoader struct {
	asset any
}

func (staticLoader) IsLoaded() bool                      { return true }
func (staticLoader) IsLoading() bool                     { return false }
func (l staticLoader) Load(context.Context) (any, error) { return l.asset, nil }
func (staticLoader) Unload()                             {}

func TestQueue_PanicDoesNotStall(t *testing.T) {
	fx := newFixture()
	fx.screen("ok")
	fx.screens = append(fx.screens, &uiflow.ScreenTarget{
		TargetOptions: uiflow.TargetOptions{Name: "explodes", Loader: staticLoader{asset: panicView{}}},
	})
	f := fx.start(t)

	assert.Equal(t, uiflow.ResultFailed, f.SendTrigger(context.Background(), "explodes"))
	assert.False(t, f.IsTransiting())
	assert.Equal(t, uiflow.ResultCompleted, f.SendTrigger(context.Background(), "ok"))
}

func TestInstantiate_UnsupportedAsset(t *testing.T) {
	fx := newFixture()
	fx.screens = append(fx.screens, &uiflow.ScreenTarget{
		TargetOptions: uiflow.TargetOptions{Name: "odd", Loader: staticLoader{asset: "not a view"}},
	})
	f := fx.start(t)

	assert.Equal(t, uiflow.ResultFailed, f.SendTrigger(context.Background(), "odd"))
	assert.Empty(t, f.History())
}

func TestPreload(t *testing.T) {
	fx := newFixture()
	fx.screen("home")
	fx.screen("pre", func(s *uiflow.ScreenTarget) { s.Preload = true })
	fx.loaders["pre"].Delay = 20 * time.Millisecond
	f := fx.start(t)

	require.Eventually(t, func() bool { return !f.IsPreloading() }, time.Second, time.Millisecond)
	assert.True(t, fx.loaders["pre"].IsLoaded())

	trigger(t, f, "pre")
	trigger(t, f, "home")
	assert.Equal(t, 1, fx.loaders["pre"].Loads())
	assert.Equal(t, 0, fx.loaders["pre"].Unloads(), "preloaded assets stay resident")
}

func TestDispose(t *testing.T) {
	fx := newFixture()
	fx.screen("home")
	fx.popup("menu")
	f := fx.start(t)

	trigger(t, f, "home")
	trigger(t, f, "menu")

	require.NoError(t, f.Dispose(context.Background()))
	assert.True(t, fx.view("home").IsDestroyed())
	assert.True(t, fx.view("menu").IsDestroyed())
	assert.False(t, fx.loaders["home"].IsLoaded())
	assert.Equal(t, 0, f.PopupStackDepth())

	allocated, free, _ := f.SurfaceStats()
	assert.Equal(t, 0, allocated)
	assert.Equal(t, 1, free)

	assert.Equal(t, uiflow.ResultRejected, f.SendTrigger(context.Background(), "home"))
	assert.NoError(t, f.Dispose(context.Background()))
}

func TestLookup(t *testing.T) {
	fx := newFixture()
	home := fx.screen("home")
	f := fx.start(t)

	got, ok := f.Lookup("home")
	require.True(t, ok)
	assert.Same(t, home, got)

	_, ok = f.Lookup("missing")
	assert.False(t, ok)
}
