package wm

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

type call struct {
	Op     string
	Win    xproto.Window
	Parent xproto.Window
	Mask   uint16
	Values []uint32
}

// fakeConn records requests and replays scripted events.
type fakeConn struct {
	root          xproto.Window
	width, height int

	nextFrame xproto.Window
	seq       uint16
	grabs     int

	geoms    map[xproto.Window]Geometry
	attrs    map[xproto.Window]*xproto.GetWindowAttributesReply
	titles   map[xproto.Window]string
	gone     map[xproto.Window]bool
	topLevel []xproto.Window

	// failReparent makes reparenting into anything but the root fail.
	failReparent map[xproto.Window]bool

	events  []xgb.Event
	calls   []call
	bars    []string
	clients []xproto.Window
	deleted []xproto.Window
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		root:      1,
		width:     320,
		height:    240,
		nextFrame: 1000,
		geoms:     map[xproto.Window]Geometry{},
		attrs:     map[xproto.Window]*xproto.GetWindowAttributesReply{},
		titles:    map[xproto.Window]string{},
		gone:      map[xproto.Window]bool{},

		failReparent: map[xproto.Window]bool{},
	}
}

func (c *fakeConn) record(cl call) error {
	c.seq++
	c.calls = append(c.calls, cl)
	if c.gone[cl.Win] {
		return xproto.WindowError{}
	}
	return nil
}

func (c *fakeConn) callsFor(op string, win xproto.Window) []call {
	var out []call
	for _, cl := range c.calls {
		if cl.Op == op && cl.Win == win {
			out = append(out, cl)
		}
	}
	return out
}

func (c *fakeConn) count(op string) int {
	n := 0
	for _, cl := range c.calls {
		if cl.Op == op {
			n++
		}
	}
	return n
}

func (c *fakeConn) Root() xproto.Window    { return c.root }
func (c *fakeConn) ScreenSize() (int, int) { return c.width, c.height }

func (c *fakeConn) WaitForEvent() (xgb.Event, error) {
	return c.PollForEvent()
}

func (c *fakeConn) PollForEvent() (xgb.Event, error) {
	if len(c.events) == 0 {
		return nil, nil
	}
	ev := c.events[0]
	c.events = c.events[1:]
	return ev, nil
}

func (c *fakeConn) GrabServer() error {
	c.grabs++
	return c.record(call{Op: "GrabServer"})
}

func (c *fakeConn) UngrabServer() error {
	c.grabs--
	return c.record(call{Op: "UngrabServer"})
}

func (c *fakeConn) TopLevel() ([]xproto.Window, error) {
	return c.topLevel, nil
}

func (c *fakeConn) Attributes(win xproto.Window) (*xproto.GetWindowAttributesReply, error) {
	if c.gone[win] {
		return nil, xproto.WindowError{}
	}
	if a, ok := c.attrs[win]; ok {
		return a, nil
	}
	return &xproto.GetWindowAttributesReply{MapState: xproto.MapStateViewable}, nil
}

func (c *fakeConn) Geometry(win xproto.Window) (Geometry, error) {
	if c.gone[win] {
		return Geometry{}, xproto.DrawableError{}
	}
	if g, ok := c.geoms[win]; ok {
		return g, nil
	}
	return Geometry{X: 0, Y: 0, Width: 100, Height: 80}, nil
}

func (c *fakeConn) Title(win xproto.Window) (string, error) {
	if c.gone[win] {
		return "", xproto.WindowError{}
	}
	return c.titles[win], nil
}

func (c *fakeConn) CreateFrame(x, y, width, height int) (xproto.Window, error) {
	c.nextFrame++
	frame := c.nextFrame
	c.geoms[frame] = Geometry{X: x, Y: y, Width: width, Height: height}
	return frame, c.record(call{Op: "CreateFrame", Win: frame, Values: []uint32{uint32(x), uint32(y), uint32(width), uint32(height)}})
}

func (c *fakeConn) DestroyWindow(win xproto.Window) error {
	return c.record(call{Op: "DestroyWindow", Win: win})
}

func (c *fakeConn) MapWindow(win xproto.Window) error {
	return c.record(call{Op: "MapWindow", Win: win})
}

func (c *fakeConn) UnmapWindow(win xproto.Window) error {
	return c.record(call{Op: "UnmapWindow", Win: win})
}

func (c *fakeConn) ReparentWindow(win, parent xproto.Window, x, y int) (uint16, error) {
	err := c.record(call{Op: "ReparentWindow", Win: win, Parent: parent})
	if c.failReparent[win] && parent != c.root {
		err = xproto.MatchError{}
	}
	return c.seq, err
}

func (c *fakeConn) ConfigureWindow(win xproto.Window, mask uint16, values []uint32) error {
	return c.record(call{Op: "ConfigureWindow", Win: win, Mask: mask, Values: values})
}

func (c *fakeConn) ChangeSaveSet(mode byte, win xproto.Window) error {
	return c.record(call{Op: "ChangeSaveSet", Win: win, Values: []uint32{uint32(mode)}})
}

func (c *fakeConn) SetFrameColor(frame xproto.Window, color uint32) error {
	return c.record(call{Op: "SetFrameColor", Win: frame, Values: []uint32{color}})
}

func (c *fakeConn) GrabButton(win xproto.Window, mods uint16, button xproto.Button) error {
	return c.record(call{Op: "GrabButton", Win: win, Mask: mods, Values: []uint32{uint32(button)}})
}

func (c *fakeConn) GrabKey(win xproto.Window, mods uint16, key xproto.Keycode) error {
	return c.record(call{Op: "GrabKey", Win: win, Mask: mods, Values: []uint32{uint32(key)}})
}

func (c *fakeConn) DeleteWindow(win xproto.Window) error {
	c.deleted = append(c.deleted, win)
	return c.record(call{Op: "DeleteWindow", Win: win})
}

func (c *fakeConn) SetClientList(wins []xproto.Window) error {
	c.clients = append([]xproto.Window(nil), wins...)
	return nil
}

func (c *fakeConn) DrawBar(text string) error {
	c.bars = append(c.bars, text)
	return nil
}

func (c *fakeConn) Close() {}
