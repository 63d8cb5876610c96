package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFlow = `
initial_screen = "home"
log_level = "error"

[[screen]]
name = "home"
allow_popups = true
stackable_popups = true

[[screen]]
name = "settings"
strategy = "parallel"

[[popup]]
name = "confirm"
background = "just_hide"

[[popup]]
name = "toast"
`

func TestParseStep(t *testing.T) {
	tests := []struct {
		in      string
		want    Step
		wantErr bool
	}{
		{in: "trigger:home", want: Step{Op: "trigger", Name: "home"}},
		{in: "trigger:home=42", want: Step{Op: "trigger", Name: "home", Args: "42"}},
		{in: " back ", want: Step{Op: "back"}},
		{in: "press-back", want: Step{Op: "press-back"}},
		{in: "close", want: Step{Op: "close", Index: -1}},
		{in: "close:2", want: Step{Op: "close", Index: 2}},
		{in: "wait:150ms", want: Step{Op: "wait", Delay: 150 * time.Millisecond}},
		{in: "trigger", wantErr: true},
		{in: "trigger:", wantErr: true},
		{in: "back:home", wantErr: true},
		{in: "close:-1", wantErr: true},
		{in: "close:top", wantErr: true},
		{in: "wait:soon", wantErr: true},
		{in: "jump:home", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStep(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSteps_FirstError(t *testing.T) {
	_, err := ParseSteps([]string{"back", "nope", "close:x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "trigger home (42)", Step{Op: "trigger", Name: "home", Args: "42"}.String())
	assert.Equal(t, "close foreground popup", Step{Op: "close", Index: -1}.String())
	assert.Equal(t, "close popup 1", Step{Op: "close", Index: 1}.String())
	assert.Equal(t, "back", Step{Op: "back"}.String())
}

func writeFlow(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cmd := RunCmd()
	if args[0] == "check" {
		cmd = CheckCmd()
	}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args[1:])
	err := cmd.Execute()
	return out.String(), err
}

func TestRun_Script(t *testing.T) {
	path := writeFlow(t, testFlow)

	out, err := execute(t, "run", "-c", path,
		"-s", "trigger:confirm",
		"-s", "trigger:toast",
		"-s", "close:0",
		"-s", "press-back",
		"-s", "trigger:settings",
		"-s", "back",
		"-s", "back",
		"-s", "trigger:missing",
		"--events",
		"--metrics",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "initialized")
	assert.Contains(t, out, " 1. trigger confirm")
	assert.Contains(t, out, "popups:  [confirm, toast]")
	assert.Contains(t, out, " 3. close popup 0")
	assert.Contains(t, out, "popups:  [toast]")
	assert.Contains(t, out, "history: [home > settings]")
	assert.Contains(t, out, " 7. back                             rejected")
	assert.Contains(t, out, " 8. trigger missing                  not_found")
	assert.Contains(t, out, "show:confirm")
	assert.Contains(t, out, "uiflow_commands_total{kind=trigger_popup,result=completed}")
	assert.Contains(t, out, "uiflow_commands_total{kind=move_back,result=rejected}")
}

func TestRun_BadStep(t *testing.T) {
	path := writeFlow(t, testFlow)
	_, err := execute(t, "run", "-c", path, "-s", "fly")
	assert.Error(t, err)
}

func TestRun_UnknownBackend(t *testing.T) {
	path := writeFlow(t, testFlow)
	_, err := execute(t, "run", "-c", path, "--backend", "vulkan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "active.en.toml"), []byte(`HomeTitle = "Home"`), 0o644))
	good := filepath.Join(dir, "flow.toml")
	require.NoError(t, os.WriteFile(good, []byte(`
initial_screen = "home"
messages = ["active.en.toml"]

[[screen]]
name = "home"
title = "HomeTitle"

[[screen]]
name = "about"
`), 0o644))

	out, err := execute(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, `screen:home`)
	assert.Contains(t, out, `"Home"`)
	assert.Contains(t, out, `"about" (no title)`)

	bad := writeFlow(t, "[[screen]]\nname = \"a\"\n\n[[popup]]\nname = \"a\"\n")
	out, err = execute(t, "check", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, err.Error(), "1 of 2")
}
