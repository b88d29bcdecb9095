package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popover/pkg/scenario"
)

const (
	defaultCanvasCols = 64 // preview diagram width in characters
	defaultCanvasRows = 20 // preview diagram height in characters
)

// placeOpts holds the command-line flags for the place command.
type placeOpts struct {
	format  string // output format: json, yaml or toml
	output  string // output file; empty means stdout
	explain bool   // print the selection trace instead of the result
	preview bool   // print a human-readable summary and diagram
	noCache bool   // disable the result cache
	refresh bool   // recompute even if cached
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	opts := placeOpts{format: string(scenario.FormatJSON)}

	cmd := &cobra.Command{
		Use:   "place [scenario]",
		Short: "Compute the placement for a scenario file",
		Long: `Compute the placement for a scenario file.

The scenario (TOML, YAML or JSON, chosen by extension) describes the anchor,
viewport, panel size, constraints, hints and flags. The result is printed in
the requested format; --explain prints the full selection trace and
--preview draws the panel and anchor inside the viewport.

Results are cached using the configured backend.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenario,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := scenario.ParseFormat(opts.format); err != nil {
				return err
			}
			return c.runPlace(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json (default), yaml, toml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "print the selection trace")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print a summary and viewport diagram")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if cached")

	return cmd
}

// runPlace loads the scenario, computes it and writes the result.
func (c *CLI) runPlace(ctx context.Context, stdout io.Writer, path string, opts placeOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	format, err := scenario.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	base := c.newRunner(ctx, cfg, opts.noCache)
	defer base.Close()
	runner := base.WithEngineOptions(sc.EngineOptions()...)

	popts := pipelineOptions(cfg)
	popts.Explain = opts.explain
	popts.Refresh = opts.refresh

	prog := newProgress(c.Logger)
	res, err := runner.Place(ctx, sc.Request(), popts)
	if err != nil {
		return fmt.Errorf("place %s: %w", sc.Name, err)
	}
	c.Logger.Debug("placement computed", "scenario", sc.Name, "hash", res.RequestHash[:12], "cached", res.CacheInfo.Hit)

	if opts.preview {
		fmt.Println(StyleTitle.Render(sc.Name))
		printPlacement(res)
		printOffsets(res.Placement)
		fmt.Println()
		fmt.Print(diagram(res.Request, res.Placement, defaultCanvasCols, defaultCanvasRows).Styled())
		prog.done("Placement computed")
		return nil
	}

	var v any = res.Placement
	if opts.explain {
		v = res.Trace
	}

	w := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer f.Close()
		w = f
	}
	if err := scenario.WriteResult(w, v, format); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s", sc.Name)
		printFile(opts.output)
	}
	return nil
}
