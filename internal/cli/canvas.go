package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/popover/pkg/placement"
)

// cell is one character of a scaled viewport diagram.
type cell byte

const (
	cellEmpty cell = iota
	cellPanel
	cellAnchor
	cellOverlap
)

var cellRunes = [...]rune{
	cellEmpty:   ' ',
	cellPanel:   '=',
	cellAnchor:  '#',
	cellOverlap: '@',
}

// canvas is a character grid covering the viewport.
type canvas struct {
	cols, rows int
	sx, sy     float64
	cells      [][]cell
}

// newCanvas scales vp onto a cols by rows grid.
func newCanvas(vp placement.Viewport, cols, rows int) *canvas {
	c := &canvas{cols: max(cols, 1), rows: max(rows, 1)}
	if vp.Width > 0 && vp.Height > 0 {
		c.sx = float64(c.cols) / vp.Width
		c.sy = float64(c.rows) / vp.Height
	}
	c.cells = make([][]cell, c.rows)
	for i := range c.cells {
		c.cells[i] = make([]cell, c.cols)
	}
	return c
}

// fill marks the cells covered by r. Anchor cells drawn over panel cells
// become overlap cells.
func (c *canvas) fill(r placement.Rect, kind cell) {
	if c.sx == 0 || r.Width <= 0 || r.Height <= 0 {
		return
	}
	x0, x1 := span(r.X*c.sx, (r.X+r.Width)*c.sx, c.cols)
	y0, y1 := span(r.Y*c.sy, (r.Y+r.Height)*c.sy, c.rows)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cur := c.cells[y][x]
			switch {
			case kind == cellAnchor && (cur == cellPanel || cur == cellOverlap):
				c.cells[y][x] = cellOverlap
			case kind == cellPanel && (cur == cellAnchor || cur == cellOverlap):
				c.cells[y][x] = cellOverlap
			default:
				c.cells[y][x] = kind
			}
		}
	}
}

// span converts a scaled interval to cell indices clamped to [0, n]. Any
// non-empty interval covers at least one cell.
func span(from, to float64, n int) (int, int) {
	lo := int(math.Floor(from))
	hi := int(math.Ceil(to))
	if hi <= lo {
		hi = lo + 1
	}
	return min(max(lo, 0), n), min(max(hi, 0), n)
}

// String renders the grid inside an ASCII frame.
func (c *canvas) String() string {
	return c.render(func(k cell) string { return string(cellRunes[k]) })
}

// Styled renders the grid with lipgloss colors.
func (c *canvas) Styled() string {
	styles := [...]lipgloss.Style{
		cellEmpty:   lipgloss.NewStyle(),
		cellPanel:   lipgloss.NewStyle().Foreground(colorCyan),
		cellAnchor:  lipgloss.NewStyle().Foreground(colorYellow),
		cellOverlap: lipgloss.NewStyle().Foreground(colorRed),
	}
	return c.render(func(k cell) string { return styles[k].Render(string(cellRunes[k])) })
}

func (c *canvas) render(draw func(cell) string) string {
	var b strings.Builder
	edge := "+" + strings.Repeat("-", c.cols) + "+\n"
	b.WriteString(edge)
	for _, row := range c.cells {
		b.WriteByte('|')
		for _, k := range row {
			b.WriteString(draw(k))
		}
		b.WriteString("|\n")
	}
	b.WriteString(edge)
	return b.String()
}

// diagram draws the panel and anchor for one request and result.
func diagram(req placement.Request, res placement.Result, cols, rows int) *canvas {
	c := newCanvas(req.Viewport, cols, rows)
	c.fill(res.Box(req.Viewport, req.Content), cellPanel)
	if a := req.Anchor; a != nil && a.Valid() {
		c.fill(placement.Rect{X: a.PageX, Y: a.PageY, Width: a.Width, Height: a.Height}, cellAnchor)
	}
	return c
}
