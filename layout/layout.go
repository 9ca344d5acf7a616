// Package layout computes tiling geometry for an ordered set of windows.
package layout

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xrect"
)

// Kind selects one of the tiling algorithms.
type Kind int

const (
	Fibonacci Kind = iota
	Tree
)

var names = map[Kind]string{
	Fibonacci: "fibonacci",
	Tree:      "tree",
}

func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse maps a layout name as written in the config file to its Kind.
func Parse(name string) (Kind, error) {
	for k, n := range names {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown layout %q", name)
}

// Placement is the geometry assigned to a single window.
type Placement struct {
	Window xproto.Window
	Rect   xrect.Rect
}

// Usable returns screen with a strip of height bar removed from the top.
func Usable(screen xrect.Rect, bar int) xrect.Rect {
	x, y, w, h := screen.Pieces()
	bar = min(max(bar, 0), h)
	return xrect.New(x, y+bar, w, h-bar)
}

// Arrange reserves the bar strip at the top of screen and splits what is left
// between wins. Every window in wins appears exactly once in the result.
func (k Kind) Arrange(screen xrect.Rect, bar int, wins []xproto.Window) []Placement {
	area := Usable(screen, bar)
	switch k {
	case Tree:
		return tree(area, wins)
	default:
		return fibonacci(area, wins)
	}
}

// fibonacci halves the remaining space for each window, alternating the split
// axis, consuming windows from the end of the list. wins[0] gets the rest.
func fibonacci(area xrect.Rect, wins []xproto.Window) []Placement {
	n := len(wins)
	if n == 0 {
		return nil
	}

	out := make([]Placement, 0, n)
	x, y, w, h := area.Pieces()
	for i := 1; i < n; i++ {
		var r xrect.Rect
		if i%2 == 1 {
			half := w / 2
			r = xrect.New(x, y, half, h)
			x, w = x+half, w-half
		} else {
			half := h / 2
			r = xrect.New(x, y, w, half)
			y, h = y+half, h-half
		}
		out = append(out, Placement{Window: wins[n-i], Rect: r})
	}
	return append(out, Placement{Window: wins[0], Rect: xrect.New(x, y, w, h)})
}

type leaf struct {
	win        xproto.Window
	x, y, w, h int
	splitWidth bool
}

func (l leaf) split(win xproto.Window) (leaf, leaf) {
	if l.splitWidth {
		half := l.w / 2
		return leaf{l.win, l.x, l.y, half, l.h, false},
			leaf{win, l.x + half, l.y, l.w - half, l.h, false}
	}
	half := l.h / 2
	return leaf{l.win, l.x, l.y, l.w, half, true},
		leaf{win, l.x, l.y + half, l.w, l.h - half, true}
}

// tree always splits the oldest leaf, which keeps the partition balanced.
func tree(area xrect.Rect, wins []xproto.Window) []Placement {
	if len(wins) == 0 {
		return nil
	}

	x, y, w, h := area.Pieces()
	leaves := []leaf{{win: wins[0], x: x, y: y, w: w, h: h, splitWidth: true}}
	for _, win := range wins[1:] {
		a, b := leaves[0].split(win)
		leaves = append(leaves[1:], a, b)
	}

	out := make([]Placement, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, Placement{Window: l.win, Rect: xrect.New(l.x, l.y, l.w, l.h)})
	}
	return out
}
