package wm

import (
	"github.com/BurntSushi/xgb/xproto"
)

type Mode int

const (
	Idle Mode = iota
	Moving
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

// Drag is the snapshot taken when a move or resize starts.
type Drag struct {
	Mode   Mode
	Button xproto.Button
	Client xproto.Window
	Frame  xproto.Window

	PointerX, PointerY int
	Origin             Geometry
}

// Configure is a ConfigureWindow request the caller should issue.
type Configure struct {
	Window xproto.Window
	Mask   uint16
	Values []uint32
}

// Interaction tracks the single pointer drag that may be in progress.
type Interaction struct {
	minWidth, minHeight int
	drag                *Drag
}

func NewInteraction(minWidth, minHeight int) *Interaction {
	return &Interaction{minWidth: minWidth, minHeight: minHeight}
}

func (in *Interaction) Mode() Mode {
	if in.drag == nil {
		return Idle
	}
	return in.drag.Mode
}

func (in *Interaction) Current() (Drag, bool) {
	if in.drag == nil {
		return Drag{}, false
	}
	return *in.drag, true
}

// Begin starts a drag. Drags never nest: it returns false if one is
// already running.
func (in *Interaction) Begin(d Drag) bool {
	if in.drag != nil || d.Mode == Idle {
		return false
	}
	in.drag = &d
	return true
}

// Release ends the drag if button is the one that started it.
func (in *Interaction) Release(button xproto.Button) bool {
	if in.drag == nil || in.drag.Button != button {
		return false
	}
	in.drag = nil
	return true
}

// Motion turns a pointer position into the requests that bring the frame,
// and when resizing the client, in line with it.
func (in *Interaction) Motion(rootX, rootY int) []Configure {
	d := in.drag
	if d == nil {
		return nil
	}
	dx, dy := rootX-d.PointerX, rootY-d.PointerY

	switch d.Mode {
	case Moving:
		return []Configure{{
			Window: d.Frame,
			Mask:   xproto.ConfigWindowX | xproto.ConfigWindowY,
			Values: []uint32{uint32(int32(d.Origin.X + dx)), uint32(int32(d.Origin.Y + dy))},
		}}
	case Resizing:
		width := max(d.Origin.Width+dx, in.minWidth)
		height := max(d.Origin.Height+dy, in.minHeight)
		size := []uint32{uint32(width), uint32(height)}
		return []Configure{
			{Window: d.Frame, Mask: xproto.ConfigWindowWidth | xproto.ConfigWindowHeight, Values: size},
			{Window: d.Client, Mask: xproto.ConfigWindowWidth | xproto.ConfigWindowHeight, Values: size},
		}
	}
	return nil
}
