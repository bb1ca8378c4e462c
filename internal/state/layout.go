package state

import (
	"fmt"
	"strings"
)

// Side is where the preview pane sits.
type Side int

const (
	SideRight Side = iota
	SideLeft
	SideTop
	SideBottom
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	default:
		return "right"
	}
}

// Horizontal reports whether the pane splits the width.
func (s Side) Horizontal() bool {
	return s == SideLeft || s == SideRight
}

// ParseSide maps a config value to a Side.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "right", "":
		return SideRight, nil
	case "left":
		return SideLeft, nil
	case "top", "up":
		return SideTop, nil
	case "bottom", "down":
		return SideBottom, nil
	default:
		return SideRight, fmt.Errorf("unknown preview side %q", value)
	}
}

// Layout is one candidate placement of the preview pane. Max 0 means
// unbounded.
type Layout struct {
	Side    Side
	Percent int
	Min     int
	Max     int
}

// DefaultLayout places the preview on the right half.
var DefaultLayout = Layout{Side: SideRight, Percent: 50}

const (
	minResultRows = 3
	minResultCols = 20
)

// Size returns the pane size for a total extent along the split axis.
func (l Layout) Size(total int) int {
	size := (total*l.Percent + 99) / 100
	size = max(size, l.Min)
	upper := total
	if l.Max > 0 {
		upper = min(l.Max, total)
	}
	return min(size, upper)
}

// ChooseLayout returns the first layout that leaves enough room for the
// results. A zero-percent layout hides the pane.
func ChooseLayout(layouts []Layout, width, height int) (Layout, int, bool) {
	for _, l := range layouts {
		if l.Percent <= 0 {
			return l, 0, false
		}
		total, need := height, minResultRows
		if l.Side.Horizontal() {
			total, need = width, minResultCols
		}
		size := l.Size(total)
		if size >= 2 && total-size >= need {
			return l, size, true
		}
	}
	return Layout{}, 0, false
}

// Rect is a screen region.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rect has no cells.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Geometry splits the screen between the picker and the preview pane.
type Geometry struct {
	Main      Rect
	Preview   Rect
	Separator Rect
	Layout    Layout
	Overlay   bool
}

// PreviewShown reports whether a preview pane is on screen.
func (g Geometry) PreviewShown() bool {
	return !g.Preview.Empty()
}

// Geometry computes the current screen split.
func (s *PickerState) Geometry() Geometry {
	w, h := s.ScreenWidth, s.ScreenHeight
	full := Rect{W: w, H: h}
	g := Geometry{Main: full}
	if s.Preview.Overlay >= 0 {
		g.Overlay = true
		g.Preview = full
		g.Main = Rect{}
		return g
	}
	if !s.Preview.Shown() {
		return g
	}
	layout, size, ok := ChooseLayout(s.Preview.Layouts, w, h)
	if !ok {
		return g
	}
	g.Layout = layout
	switch layout.Side {
	case SideRight:
		g.Main = Rect{W: w - size, H: h}
		g.Separator = Rect{X: w - size, W: 1, H: h}
		g.Preview = Rect{X: w - size + 1, W: size - 1, H: h}
	case SideLeft:
		g.Preview = Rect{W: size - 1, H: h}
		g.Separator = Rect{X: size - 1, W: 1, H: h}
		g.Main = Rect{X: size, W: w - size, H: h}
	case SideTop:
		g.Preview = Rect{W: w, H: size - 1}
		g.Separator = Rect{Y: size - 1, W: w, H: 1}
		g.Main = Rect{Y: size, W: w, H: h - size}
	case SideBottom:
		g.Main = Rect{W: w, H: h - size}
		g.Separator = Rect{Y: h - size, W: w, H: 1}
		g.Preview = Rect{Y: h - size + 1, W: w, H: size - 1}
	}
	return g
}

// ResultsRect is where result rows are drawn: below the prompt, the info
// line and the header, above the footer.
func (s *PickerState) ResultsRect() Rect {
	main := s.Geometry().Main
	return Rect{
		X: main.X,
		Y: main.Y + 2 + len(s.HeaderLines()),
		W: main.W,
		H: s.ResultRows(),
	}
}

// Contains reports whether the cell x, y lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
