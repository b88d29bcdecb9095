package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/popover/pkg/overlay"
	"github.com/matzehuels/popover/pkg/placement"
)

func openPreview(t *testing.T) PreviewModel {
	t.Helper()
	m := newPreviewModel(context.Background(), overlay.NewController(placement.New()), demoScenario())
	msg := m.open()()
	if mm, ok := msg.(measuredMsg); !ok || mm.err != nil {
		t.Fatalf("open() = %#v, want successful measurement", msg)
	}
	return m
}

// press sends key to m and runs any resulting command synchronously.
func press(t *testing.T, m PreviewModel, key tea.KeyMsg) PreviewModel {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(PreviewModel)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = m.Update(msg)
			m = next.(PreviewModel)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestPreviewOpenComputes(t *testing.T) {
	m := openPreview(t)

	res, ok := m.ctrl.Result()
	if !ok {
		t.Fatal("open should compute a result")
	}
	req := m.ctrl.Request()
	if !res.Equal(placement.Compute(req)) {
		t.Errorf("result = %+v, want %+v", res, placement.Compute(req))
	}
	if got := m.waitForResult()(); got != (resultMsg{}) {
		t.Errorf("waitForResult() = %#v, want resultMsg", got)
	}
}

func TestPreviewMovesAnchor(t *testing.T) {
	m := openPreview(t)
	start := m.anchor

	tests := []struct {
		key    tea.KeyMsg
		dx, dy float64
	}{
		{tea.KeyMsg{Type: tea.KeyRight}, previewStep, 0},
		{runes("j"), 0, previewStep},
		{runes("L"), previewBigStep, 0},
		{tea.KeyMsg{Type: tea.KeyUp}, 0, -previewStep},
	}

	wantX, wantY := start.PageX, start.PageY
	for _, tt := range tests {
		m = press(t, m, tt.key)
		wantX += tt.dx
		wantY += tt.dy
		a := m.ctrl.Request().Anchor
		if a == nil || a.PageX != wantX || a.PageY != wantY {
			t.Fatalf("after %q anchor = %+v, want (%v, %v)", tt.key.String(), a, wantX, wantY)
		}
	}
}

func TestPreviewClampsAnchor(t *testing.T) {
	m := openPreview(t)
	for range 40 {
		m = press(t, m, runes("H"))
	}
	if got := m.ctrl.Request().Anchor.PageX; got != 0 {
		t.Errorf("PageX = %v, want clamped to 0", got)
	}
}

func TestPreviewToggles(t *testing.T) {
	m := openPreview(t)

	m = press(t, m, runes("p"))
	if got := m.ctrl.Request().Hints.Position; got != "bottom" {
		t.Errorf("position = %q, want bottom", got)
	}
	m = press(t, m, runes("a"))
	if got := m.ctrl.Request().Hints.Axis; got != "vertical" {
		t.Errorf("axis = %q, want vertical", got)
	}
	m = press(t, m, runes("d"))
	if got := m.ctrl.Request().Viewport.Class; got != placement.Medium {
		t.Errorf("class = %v, want medium", got)
	}
	m = press(t, m, runes("b"))
	if res, _ := m.ctrl.Result(); res.Mode.Kind != placement.ModeBottomSheet {
		t.Errorf("mode = %v, want bottom sheet on medium", res.Mode)
	}
	m = press(t, m, runes("w"))
	if !m.ctrl.Request().Constraints.SameWidth {
		t.Error("w should enable same width")
	}
}

func TestPreviewCloseAndReopen(t *testing.T) {
	m := openPreview(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.ctrl.Request().Flags.Visible {
		t.Fatal("space should close the overlay")
	}
	if !strings.Contains(m.View(), "closed") {
		t.Error("view should show the closed state")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.ctrl.Request().Flags.Visible {
		t.Error("space should reopen the overlay")
	}
}

func TestPreviewQuit(t *testing.T) {
	m := openPreview(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestPreviewView(t *testing.T) {
	m := openPreview(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 50, Height: 20})
	m = next.(PreviewModel)
	if m.cols != 48 || m.rows != 20-previewChrome {
		t.Errorf("canvas = %dx%d, want 48x%d", m.cols, m.rows, 20-previewChrome)
	}

	view := m.View()
	for _, want := range []string{"Preview demo menu", "device large", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCycle(t *testing.T) {
	if got := cycle(positionCycle, ""); got != "bottom" {
		t.Errorf("cycle(\"\") = %q, want bottom", got)
	}
	if got := cycle(positionCycle, "right"); got != "" {
		t.Errorf("cycle(right) = %q, want empty", got)
	}
	if got := cycle(positionCycle, "unknown"); got != "" {
		t.Errorf("cycle(unknown) = %q, want first value", got)
	}
	if got := cycle(classCycle, placement.Compact); got != placement.Large {
		t.Errorf("cycle(compact) = %v, want large", got)
	}
}

func TestPreviewTracePane(t *testing.T) {
	m := openPreview(t)
	if strings.Contains(m.View(), "preferred") {
		t.Fatal("trace pane should be hidden by default")
	}

	m = press(t, m, runes("e"))
	if !m.explain {
		t.Fatal("e should show the trace pane")
	}
	view := m.View()
	for _, want := range []string{"preferred", "bottom", "space top"} {
		if !strings.Contains(view, want) {
			t.Errorf("trace view missing %q", want)
		}
	}

	m = press(t, m, runes("]"))
	m = press(t, m, runes("["))
	if m.trace.YOffset != 0 {
		t.Errorf("YOffset = %d, want 0 after scrolling down and up", m.trace.YOffset)
	}

	m = press(t, m, runes("e"))
	if m.explain {
		t.Error("e should hide the trace pane again")
	}
}

func TestTraceText(t *testing.T) {
	req := placement.Request{
		Anchor:   &placement.Anchor{PageX: 100, PageY: 560, Width: 50, Height: 20},
		Viewport: placement.Viewport{Width: 800, Height: 600},
		Content:  placement.Size{Width: 180, Height: 120},
	}
	text := traceText(placement.New().Explain(req))
	lines := strings.Split(text, "\n")
	if len(lines) < 4 {
		t.Fatalf("traceText() = %q, want header, space and candidate lines", text)
	}
	if !strings.Contains(lines[0], "preferred") || !strings.Contains(lines[1], "space top 560px") {
		t.Errorf("header lines = %q", lines[:2])
	}
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, iconArrow+" top") {
		t.Errorf("chosen line = %q, want flip to top", last)
	}

	sheet := traceText(placement.New().Explain(placement.Request{
		Viewport: placement.Viewport{Width: 390, Height: 844, Class: placement.Compact},
	}))
	if !strings.Contains(sheet, "override") || !strings.Contains(sheet, "height 844px") {
		t.Errorf("override trace = %q", sheet)
	}
}
