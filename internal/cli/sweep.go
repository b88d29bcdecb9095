package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/popover/pkg/pipeline"
	"github.com/matzehuels/popover/pkg/placement"
	"github.com/matzehuels/popover/pkg/scenario"
)

const (
	defaultSweepStep   = 20 // grid spacing in pixels
	defaultAnchorSize  = 40 // anchor size when the scenario has none
	maxReportedFailure = 10 // violations listed before truncating
	sweepEpsilon       = 1e-6
)

// errSweepFailed is returned when any grid point violates a property.
var errSweepFailed = errors.New("sweep found property violations")

// sweepOpts holds the command-line flags for the sweep command.
type sweepOpts struct {
	stepX, stepY float64 // grid spacing
	concurrency  int     // parallel computations
	useCache     bool    // store grid results in the cache
}

// sweepGrid describes the anchors visited by a sweep.
type sweepGrid struct {
	StepX, StepY float64
}

// violation is one failed property at one grid point.
type violation struct {
	Anchor   placement.Anchor
	Property string
	Detail   string
}

// sweepReport summarizes a sweep.
type sweepReport struct {
	Points     int
	Sides      map[placement.Side]int
	Modes      map[placement.ModeKind]int
	Violations []violation
}

// sweepCommand creates the sweep command.
func (c *CLI) sweepCommand() *cobra.Command {
	var step float64
	opts := sweepOpts{}

	cmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "Check placement properties across a grid of anchor positions",
		Long: `Check placement properties across a grid of anchor positions.

The scenario's viewport, panel size, constraints, hints and flags are kept
while its anchor is moved over every grid point. Each placement is checked
for containment (when any candidate fits), exclusive edge offsets,
idempotence and the same-width rule, and a summary of the chosen sides is
printed. The command fails if any point violates a property.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenario,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.stepX == 0 {
				opts.stepX = step
			}
			if opts.stepY == 0 {
				opts.stepY = step
			}
			if opts.stepX <= 0 || opts.stepY <= 0 {
				return fmt.Errorf("step must be positive")
			}
			return c.runSweep(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().Float64Var(&step, "step", defaultSweepStep, "grid spacing in pixels")
	cmd.Flags().Float64Var(&opts.stepX, "step-x", 0, "horizontal grid spacing (default --step)")
	cmd.Flags().Float64Var(&opts.stepY, "step-y", 0, "vertical grid spacing (default --step)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "parallel computations (default 8)")
	cmd.Flags().BoolVar(&opts.useCache, "cache", false, "store grid results in the cache")

	return cmd
}

// runSweep loads the scenario, sweeps it and prints the report.
func (c *CLI) runSweep(ctx context.Context, path string, opts sweepOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	base := c.newRunner(ctx, cfg, !opts.useCache)
	defer base.Close()
	runner := base.WithEngineOptions(sc.EngineOptions()...)

	popts := pipelineOptions(cfg)
	popts.Concurrency = opts.concurrency

	spin := newSpinnerWithContext(ctx, "Sweeping "+sc.Name+"...")
	popts.Progress = spin.Progress
	spin.Start()
	prog := newProgress(c.Logger)
	report, err := sweep(ctx, runner, sc.Request(), sweepGrid{StepX: opts.stepX, StepY: opts.stepY}, popts)
	if err != nil {
		if spin.Cancelled() {
			spin.Stop()
			return ctx.Err()
		}
		spin.StopWithError("Sweep failed")
		return err
	}
	spin.Stop()
	prog.done(fmt.Sprintf("Checked %d anchors", report.Points))

	fmt.Println(StyleTitle.Render(sc.Name))
	fmt.Println(renderSweepTable(report))
	if len(report.Violations) == 0 {
		printSuccess("All %d placements hold every property", report.Points)
		return nil
	}

	printWarning("%d violations", len(report.Violations))
	for i, v := range report.Violations {
		if i == maxReportedFailure {
			printDetail("... %d more", len(report.Violations)-maxReportedFailure)
			break
		}
		printError("%s at (%s, %s): %s", v.Property, formatPx(v.Anchor.PageX), formatPx(v.Anchor.PageY), v.Detail)
	}
	return errSweepFailed
}

// sweep moves the anchor of base over the grid and checks every result.
func sweep(ctx context.Context, runner *pipeline.Runner, base placement.Request, grid sweepGrid, opts pipeline.Options) (*sweepReport, error) {
	reqs, err := sweepRequests(base, grid)
	if err != nil {
		return nil, err
	}

	opts.Explain = true
	results, err := runner.PlaceAll(ctx, reqs, opts)
	if err != nil {
		return nil, err
	}

	report := &sweepReport{
		Points: len(results),
		Sides:  map[placement.Side]int{},
		Modes:  map[placement.ModeKind]int{},
	}
	for _, res := range results {
		report.Sides[res.Placement.Placement]++
		report.Modes[res.Placement.Mode.Kind]++
		report.Violations = append(report.Violations, checkResult(runner.Engine, res)...)
	}
	return report, nil
}

// sweepRequests builds one request per grid point. The anchor keeps the
// base request's size and visits every position that keeps it on screen.
// Grids larger than pipeline.MaxBatch are rejected before any request is
// built.
func sweepRequests(base placement.Request, grid sweepGrid) ([]placement.Request, error) {
	size := sweepAnchorSize(base)
	nx, ny, err := sweepPoints(base.Viewport, size, grid)
	if err != nil {
		return nil, err
	}

	reqs := make([]placement.Request, 0, nx*ny)
	for j := range ny {
		for i := range nx {
			req := base
			req.Anchor = &placement.Anchor{
				PageX:  float64(i) * grid.StepX,
				PageY:  float64(j) * grid.StepY,
				Width:  size.Width,
				Height: size.Height,
			}
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func sweepAnchorSize(base placement.Request) placement.Anchor {
	if base.Anchor != nil && base.Anchor.Valid() {
		return *base.Anchor
	}
	return placement.Anchor{Width: defaultAnchorSize, Height: defaultAnchorSize}
}

// sweepPoints returns the number of grid columns and rows. A viewport
// smaller than the anchor yields an empty grid.
func sweepPoints(vp placement.Viewport, size placement.Anchor, grid sweepGrid) (nx, ny int, err error) {
	if !(grid.StepX > 0) || !(grid.StepY > 0) || math.IsInf(grid.StepX, 0) || math.IsInf(grid.StepY, 0) {
		return 0, 0, fmt.Errorf("step must be a positive finite number")
	}
	cols := axisPoints(vp.Width-size.Width, grid.StepX)
	rows := axisPoints(vp.Height-size.Height, grid.StepY)
	if cols == 0 || rows == 0 {
		return 0, 0, nil
	}
	if total := cols * rows; !(total <= pipeline.MaxBatch) {
		return 0, 0, fmt.Errorf("grid has %.0f points, more than the limit of %d; use a larger step", total, pipeline.MaxBatch)
	}
	return int(cols), int(rows), nil
}

// axisPoints counts the positions 0, step, 2*step, ... up to span. The
// count stays a float so absurd ratios compare against the limit without
// overflowing.
func axisPoints(span, step float64) float64 {
	if !(span >= 0) {
		return 0
	}
	return math.Floor(span/step) + 1
}

// checkResult verifies the properties every anchored placement must hold.
func checkResult(eng *placement.Engine, res *pipeline.Result) []violation {
	req := res.Request
	anchor := *req.Anchor
	r := res.Placement
	var out []violation
	fail := func(property, format string, args ...any) {
		out = append(out, violation{Anchor: anchor, Property: property, Detail: fmt.Sprintf(format, args...)})
	}

	if again := eng.Compute(req); !again.Equal(r) {
		fail("idempotence", "recomputation differs")
	}
	if r.Mode.Kind != placement.ModeNone {
		return out
	}

	if (r.Left == nil) == (r.Right == nil) {
		fail("exclusive offsets", "left and right both %s", setOrUnset(r.Left))
	}
	if (r.Top == nil) == (r.Bottom == nil) {
		fail("exclusive offsets", "top and bottom both %s", setOrUnset(r.Top))
	}

	if res.Trace != nil && slices.ContainsFunc(res.Trace.Candidates, func(c placement.Candidate) bool { return c.Fits }) {
		box := r.Box(req.Viewport, req.Content)
		if !within(box, req.Viewport) {
			fail("containment", "%s box %s,%s %sx%s leaves the viewport", r.Placement,
				formatPx(box.X), formatPx(box.Y), formatPx(box.Width), formatPx(box.Height))
		}
	}

	if req.Constraints.SameWidth && r.Width != nil {
		want := math.Max(req.Constraints.MinWidth.Resolve(req.Viewport.Width), anchor.Width)
		if math.Abs(*r.Width-want) > sweepEpsilon {
			fail("same width", "width %s, want %s", formatPx(*r.Width), formatPx(want))
		}
	}
	return out
}

func within(box placement.Rect, vp placement.Viewport) bool {
	shrunk := placement.Rect{
		X:      box.X + sweepEpsilon,
		Y:      box.Y + sweepEpsilon,
		Width:  box.Width - 2*sweepEpsilon,
		Height: box.Height - 2*sweepEpsilon,
	}
	return shrunk.Within(vp.Width, vp.Height)
}

func setOrUnset(v *float64) string {
	if v == nil {
		return "unset"
	}
	return "set"
}

// renderSweepTable renders the side and mode distribution.
func renderSweepTable(r *sweepReport) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	var rows [][]string
	for _, side := range []placement.Side{placement.Bottom, placement.Top, placement.Left, placement.Right} {
		rows = append(rows, []string{side.String(), strconv.Itoa(r.Sides[side]), share(r.Sides[side], r.Points)})
	}
	for _, kind := range []placement.ModeKind{placement.ModeBottomSheet, placement.ModeNavigation} {
		if n := r.Modes[kind]; n > 0 {
			rows = append(rows, []string{kind.String(), strconv.Itoa(n), share(n, r.Points)})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Placement", "Count", "Share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render()
}

func share(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
