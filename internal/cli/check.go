package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/BrandonKowalski/uiflow/pkg/uiflow"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/config"
	"github.com/BrandonKowalski/uiflow/pkg/uiflow/sim"
)

// CheckCmd returns the check command for validating flow definitions.
func CheckCmd() *cobra.Command {
	var (
		messages []string
		lang     string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate flow definition files",
		Long: `Check parses each definition, validates names and policies, and
builds a flow from it without initializing. Titles are resolved against
the definition's message files so missing translations show up.

Examples:
  flowctl check flow.toml
  flowctl check --lang fr flow.toml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				if err := checkFile(out, path, lang, messages, quiet); err != nil {
					failed++
					fmt.Fprintf(out, "%s %s\n    %v\n", color.New(color.FgRed).Sprint("✗"), path, err)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", color.New(color.FgGreen).Sprint("✓"), path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d definitions invalid", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&messages, "messages", nil, "Extra message files for titles (repeatable)")
	cmd.Flags().StringVar(&lang, "lang", "", "Title language to check")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report pass or fail")

	return cmd
}

func checkFile(out io.Writer, path, lang string, messages []string, quiet bool) error {
	def, err := config.Load(path)
	if err != nil {
		return err
	}

	localizer, err := loadLocalizer(def, path, lang, messages)
	if err != nil {
		return err
	}

	opts := uiflow.Options{
		Localizer:      localizer,
		SurfaceFactory: &sim.SurfaceFactory{},
		BaseSurface:    &sim.Surface{Scale: 1},
	}
	loaders := func(name string) (uiflow.Loader, error) {
		return sim.NewLoader(name, nil), nil
	}
	if err := def.Apply(&opts, loaders); err != nil {
		return err
	}
	flow, err := uiflow.New(opts)
	if err != nil {
		return err
	}

	if quiet {
		return nil
	}

	dim := color.New(color.FgHiBlack)
	fmt.Fprintf(out, "    initial: %s\n", joinOrDash(nonEmpty(def.InitialScreen)))
	for _, name := range targetNames(def) {
		t, _ := flow.Lookup(name)
		title := flow.Title(t)
		note := ""
		if title == name && localizer != nil {
			note = dim.Sprint(" (no title)")
		}
		fmt.Fprintf(out, "    %-24s %q%s\n", fmt.Sprint(t), title, note)
	}
	return nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
