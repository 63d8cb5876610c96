package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
)

func resultColor(r uiflow.Result) *color.Color {
	switch r {
	case uiflow.ResultCompleted:
		return color.New(color.FgHiGreen)
	case uiflow.ResultRejected, uiflow.ResultNotFound:
		return color.New(color.FgYellow)
	case uiflow.ResultAbandoned:
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgRed)
	}
}

func printStep(w io.Writer, i int, step Step, r uiflow.Result) {
	fmt.Fprintf(w, "%2d. %-32s %s\n", i+1, step.String(), resultColor(r).Sprint(r.String()))
}

// printState writes the current screen, history and popup stack.
func printState(w io.Writer, f *uiflow.Flow) {
	screen, _ := f.CurrentScreen()
	if screen == nil {
		fmt.Fprintln(w, "    screen:  "+color.New(color.FgHiBlack).Sprint("(none)"))
	} else {
		fmt.Fprintf(w, "    screen:  %s %s\n", color.New(color.FgHiCyan).Sprint(screen.Name),
			color.New(color.FgHiBlack).Sprintf("%q", f.Title(screen)))
	}

	var history []string
	for _, e := range f.History() {
		history = append(history, e.Target.Name)
	}
	fmt.Fprintf(w, "    history: [%s]\n", strings.Join(history, " > "))

	popups := f.Popups()
	if len(popups) == 0 {
		return
	}
	var names []string
	for i, p := range popups {
		name := p.Target().Name
		if p.View() == nil {
			name += color.New(color.FgHiBlack).Sprint(" (destroyed)")
		}
		if i == len(popups)-1 {
			name = color.New(color.FgHiMagenta).Sprint(name)
		}
		names = append(names, name)
	}
	allocated, free, created := f.SurfaceStats()
	fmt.Fprintf(w, "    popups:  [%s]  surfaces %d bound, %d free, %d built\n", strings.Join(names, ", "), allocated, free, created)
}

// printMetrics writes the engine's counters from the default registry.
func printMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintln(w, "metrics:")
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "uiflow_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(w, "    %s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
