package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/popover/pkg/overlay"
	"github.com/matzehuels/popover/pkg/placement"
	"github.com/matzehuels/popover/pkg/scenario"
)

const (
	previewStep      = 10 // anchor movement per key press in pixels
	previewBigStep   = 50 // anchor movement with shifted keys
	previewChrome    = 7  // rows used by title, status and help
	previewMinCols   = 20
	previewMinRows   = 6
	previewTraceRows = 7 // height of the selection trace pane
	previewInitCols  = defaultCanvasCols
	previewInitRows  = defaultCanvasRows
)

var (
	positionCycle = []string{"", "bottom", "top", "left", "right"}
	axisCycle     = []string{"", "vertical", "horizontal"}
	classCycle    = []placement.DeviceClass{placement.Large, placement.Medium, placement.Compact}
)

var previewHelpStyle = lipgloss.NewStyle().Foreground(colorDim)

// previewCommand creates the interactive preview command.
func (c *CLI) previewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [scenario]",
		Short: "Explore placements interactively",
		Long: `Explore placements interactively.

Move the anchor with the arrow keys (or hjkl, shifted for larger steps) and
watch the panel follow. Hints, device class, override modes and visibility
can be toggled live. Press e to show how the placement was selected.
Without a scenario a demo menu is shown.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeScenario,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sc := demoScenario()
			if len(args) == 1 {
				if sc, err = scenario.Load(args[0]); err != nil {
					return err
				}
			}
			engine := cfg.NewEngine(sc.EngineOptions()...)
			model := newPreviewModel(cmd.Context(), overlay.NewController(engine), sc)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return cmd.Context().Err()
			}
			return err
		},
	}
}

// =============================================================================
// Messages
// =============================================================================

// measuredMsg reports a finished anchor measurement.
type measuredMsg struct{ err error }

// resultMsg signals that the controller published a new result.
type resultMsg struct{}

// =============================================================================
// PreviewModel
// =============================================================================

// PreviewModel is the bubbletea model for the interactive explorer.
type PreviewModel struct {
	ctx     context.Context
	ctrl    *overlay.Controller
	name    string
	anchor  placement.Anchor
	content placement.Size
	updates chan struct{}
	trace   viewport.Model
	explain bool
	cols    int
	rows    int
	err     error
}

// newPreviewModel seeds ctrl with the scenario and subscribes to results.
func newPreviewModel(ctx context.Context, ctrl *overlay.Controller, sc *scenario.Scenario) PreviewModel {
	req := sc.Request()
	ctrl.SetViewport(req.Viewport)
	ctrl.SetContent(req.Content)
	ctrl.SetConstraints(req.Constraints)
	ctrl.SetHints(req.Hints)
	ctrl.SetModes(req.Flags.BottomSheet, req.Flags.Navigation)

	anchor := placement.Anchor{
		PageX:  req.Viewport.Width/2 - defaultAnchorSize/2,
		PageY:  req.Viewport.Height/2 - defaultAnchorSize/2,
		Width:  defaultAnchorSize,
		Height: defaultAnchorSize,
	}
	if req.Anchor != nil {
		anchor = *req.Anchor
	}

	updates := make(chan struct{}, 1)
	ctrl.Subscribe(func(placement.Result) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	trace := viewport.New(previewInitCols, previewTraceRows)
	trace.Style = lipgloss.NewStyle()

	return PreviewModel{
		ctx:     ctx,
		ctrl:    ctrl,
		name:    sc.Name,
		anchor:  anchor,
		content: req.Content,
		updates: updates,
		trace:   trace,
		cols:    previewInitCols,
		rows:    previewInitRows,
	}
}

func (m PreviewModel) Init() tea.Cmd {
	return tea.Batch(m.open(), m.waitForResult())
}

// open shows the overlay and measures the anchor.
func (m PreviewModel) open() tea.Cmd {
	anchor := m.anchor
	return func() tea.Msg {
		return measuredMsg{err: m.ctrl.Open(m.ctx, staticMeasurer(anchor))}
	}
}

// measure re-measures the anchor at its current position.
func (m PreviewModel) measure() tea.Cmd {
	anchor := m.anchor
	return func() tea.Msg {
		return measuredMsg{err: m.ctrl.Measure(m.ctx, staticMeasurer(anchor))}
	}
}

func (m PreviewModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.updates:
			return resultMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func staticMeasurer(a placement.Anchor) overlay.Measurer {
	return overlay.MeasurerFunc(func(context.Context) (placement.Anchor, error) { return a, nil })
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if next.explain {
		next.syncTrace()
	}
	return next, cmd
}

func (m PreviewModel) update(msg tea.Msg) (PreviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case measuredMsg:
		if msg.err != nil && !errors.Is(msg.err, overlay.ErrStale) {
			m.err = msg.err
		}
	case resultMsg:
		return m, m.waitForResult()
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width-2, previewMinCols)
		m.rows = max(msg.Height-previewChrome, previewMinRows)
		m.trace.Width = m.cols
	}
	return m, nil
}

func (m PreviewModel) handleKey(msg tea.KeyMsg) (PreviewModel, tea.Cmd) {
	req := m.ctrl.Request()
	switch key := msg.String(); key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h", "H":
		m.anchor.PageX -= stepFor(key)
	case "right", "l", "L":
		m.anchor.PageX += stepFor(key)
	case "up", "k", "K":
		m.anchor.PageY -= stepFor(key)
	case "down", "j", "J":
		m.anchor.PageY += stepFor(key)
	case "p":
		req.Hints.Position = cycle(positionCycle, req.Hints.Position)
		m.ctrl.SetHints(req.Hints)
		return m, nil
	case "a":
		req.Hints.Axis = cycle(axisCycle, req.Hints.Axis)
		m.ctrl.SetHints(req.Hints)
		return m, nil
	case "d":
		req.Viewport.Class = cycle(classCycle, req.Viewport.Class)
		m.ctrl.SetViewport(req.Viewport)
		return m, nil
	case "b":
		m.ctrl.SetModes(!req.Flags.BottomSheet, req.Flags.Navigation)
		return m, nil
	case "n":
		m.ctrl.SetModes(req.Flags.BottomSheet, !req.Flags.Navigation)
		return m, nil
	case "w":
		req.Constraints.SameWidth = !req.Constraints.SameWidth
		m.ctrl.SetConstraints(req.Constraints)
		return m, nil
	case "e":
		m.explain = !m.explain
		if m.explain {
			m.trace.GotoTop()
		}
		return m, nil
	case "[":
		m.trace.LineUp(1)
		return m, nil
	case "]":
		m.trace.LineDown(1)
		return m, nil
	case " ":
		if req.Flags.Visible {
			m.ctrl.Close()
			return m, nil
		}
		return m, m.open()
	default:
		return m, nil
	}
	m.anchor = clampAnchor(m.anchor, req.Viewport)
	return m, m.measure()
}

func stepFor(key string) float64 {
	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z' {
		return previewBigStep
	}
	return previewStep
}

// clampAnchor keeps the anchor's origin inside the viewport.
func clampAnchor(a placement.Anchor, vp placement.Viewport) placement.Anchor {
	a.PageX = min(max(a.PageX, 0), max(vp.Width-a.Width, 0))
	a.PageY = min(max(a.PageY, 0), max(vp.Height-a.Height, 0))
	return a
}

// cycle returns the element after cur in values, wrapping around.
func cycle[T comparable](values []T, cur T) T {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (m PreviewModel) View() string {
	var b strings.Builder
	req := m.ctrl.Request()

	b.WriteString(StyleTitle.Render("Preview " + m.name))
	b.WriteString("\n")
	b.WriteString(m.status(req))
	b.WriteString("\n")

	res, ok := m.ctrl.Result()
	if !req.Flags.Visible || !ok {
		res = placement.Result{Width: new(float64), Height: new(float64)}
	}
	req.Anchor = &m.anchor
	req.Content = m.content
	rows := m.rows
	if m.explain {
		rows = max(rows-previewTraceRows, previewMinRows)
	}
	b.WriteString(diagram(req, res, m.cols, rows).Styled())
	if m.explain {
		b.WriteString(m.trace.View())
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
	}
	b.WriteString(previewHelpStyle.Render("←↑↓→/hjkl move  p position  a axis  d device  b sheet  n nav  w same width  e trace  [] scroll  space open/close  q quit"))
	return b.String()
}

func (m PreviewModel) status(req placement.Request) string {
	parts := []string{
		fmt.Sprintf("anchor %s,%s", formatPx(m.anchor.PageX), formatPx(m.anchor.PageY)),
		"device " + req.Viewport.Class.String(),
	}
	if req.Hints.Position != "" {
		parts = append(parts, "position "+req.Hints.Position)
	}
	if req.Hints.Axis != "" {
		parts = append(parts, "axis "+req.Hints.Axis)
	}
	if req.Constraints.SameWidth {
		parts = append(parts, "same width")
	}

	res, ok := m.ctrl.Result()
	switch {
	case !req.Flags.Visible:
		parts = append(parts, StyleDim.Render("closed"))
	case ok:
		parts = append(parts, StyleHighlight.Render(res.Placement.String()))
		if res.Mode.Kind != placement.ModeNone {
			parts = append(parts, StyleWarning.Render(res.Mode.String()))
		}
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// syncTrace refreshes the trace pane from the controller.
func (m *PreviewModel) syncTrace() {
	tr, ok := m.ctrl.Explain()
	if !ok || !m.ctrl.Request().Flags.Visible {
		m.trace.SetContent(StyleDim.Render("nothing placed"))
		return
	}
	m.trace.SetContent(traceText(tr))
}

// traceText renders a selection trace one candidate per line.
func traceText(tr placement.Trace) string {
	var b strings.Builder
	if tr.Mode.Kind != placement.ModeNone {
		fmt.Fprintf(&b, "%s %s\n", StyleWarning.Render("override"), tr.Mode)
		fmt.Fprintf(&b, "%s %s", iconArrow, boxSummary(tr.Result))
		return b.String()
	}

	order := make([]string, len(tr.Order))
	for i, s := range tr.Order {
		order[i] = s.String()
	}
	fmt.Fprintf(&b, "preferred %s · order %s\n", StyleHighlight.Render(tr.Preferred.String()), strings.Join(order, ", "))
	fmt.Fprintf(&b, "space top %s · bottom %s · left %s · right %s\n",
		formatPx(tr.Spaces.Top), formatPx(tr.Spaces.Bottom), formatPx(tr.Spaces.Left), formatPx(tr.Spaces.Right))
	for _, c := range tr.Candidates {
		icon := styleIconError.Render(iconError)
		if c.Fits {
			icon = styleIconSuccess.Render(iconSuccess)
		}
		fmt.Fprintf(&b, "%s %-6s %s\n", icon, c.Side, boxSummary(c.Box))
	}
	fmt.Fprintf(&b, "%s %s %s", iconArrow, tr.Result.Placement, boxSummary(tr.Result))
	return b.String()
}

func boxSummary(r placement.Result) string {
	parts := make([]string, 0, 7)
	for _, o := range offsets(r) {
		parts = append(parts, o.name+" "+formatPx(o.value))
	}
	return strings.Join(parts, " ")
}

// demoScenario is shown when preview runs without a scenario file.
func demoScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name:     "demo menu",
		Viewport: scenario.Viewport{Width: 800, Height: 600},
		Content:  scenario.Size{Width: 200, Height: 160},
	}
}
