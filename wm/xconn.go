package wm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/BobdaProgrammer/mswm/config"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
)

const wmName = "mswm"

// xConn is Conn on top of a real X server.
type xConn struct {
	conn   *xgb.Conn
	xu     *xgbutil.XUtil
	screen *xproto.ScreenInfo
	gc     xproto.Gcontext
	cfg    config.Config
}

func dial(cfg config.Config) (*xConn, error) {
	X, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("couldn't open X display: %w", err)
	}

	xu, err := xgbutil.NewConnXgb(X)
	if err != nil {
		X.Close()
		return nil, fmt.Errorf("couldn't create xgbutil connection: %w", err)
	}

	// the keyboard mapping lives in xu and is consulted through it.
	keybind.Initialize(xu)
	mousebind.Initialize(xu)

	c := &xConn{
		conn:   X,
		xu:     xu,
		screen: xproto.Setup(X).DefaultScreen(X),
		cfg:    cfg,
	}
	if err := c.createGC(); err != nil {
		X.Close()
		return nil, err
	}
	return c, nil
}

func (c *xConn) createGC() error {
	font, err := xproto.NewFontId(c.conn)
	if err != nil {
		return fmt.Errorf("couldn't allocate font id: %w", err)
	}
	name := c.cfg.Bar.Font
	if err := xproto.OpenFontChecked(c.conn, font, uint16(len(name)), name).Check(); err != nil {
		return fmt.Errorf("couldn't open font %s: %w", name, err)
	}
	defer xproto.CloseFont(c.conn, font)

	c.gc, err = xproto.NewGcontextId(c.conn)
	if err != nil {
		return fmt.Errorf("couldn't allocate graphics context id: %w", err)
	}
	return xproto.CreateGCChecked(
		c.conn,
		c.gc,
		xproto.Drawable(c.screen.Root),
		xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{c.screen.BlackPixel, uint32(font), 0},
	).Check()
}

// becomeWM selects substructure redirection on the root. Only one client
// may hold it, so failure with BadAccess means another manager is running.
func (c *xConn) becomeWM() error {
	err := xproto.ChangeWindowAttributesChecked(
		c.conn,
		c.screen.Root,
		xproto.CwEventMask,
		[]uint32{
			xproto.EventMaskSubstructureNotify |
				xproto.EventMaskSubstructureRedirect,
		},
	).Check()
	if err != nil {
		var access xproto.AccessError
		if errors.As(err, &access) {
			return ErrAnotherWM
		}
		return fmt.Errorf("couldn't select substructure redirect: %w", err)
	}
	return c.advertise()
}

// advertise sets up _NET_SUPPORTING_WM_CHECK so pagers can find our name.
func (c *xConn) advertise() error {
	check, err := xproto.NewWindowId(c.conn)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(c.conn, 0, check, c.screen.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, xproto.WindowNone, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("couldn't create check window: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.xu, c.screen.Root, check); err != nil {
		return err
	}
	if err := ewmh.SupportingWmCheckSet(c.xu, check, check); err != nil {
		return err
	}
	return ewmh.WmNameSet(c.xu, check, wmName)
}

// parseButton reads a mouse chord such as "Mod4-1".
func (c *xConn) parseButton(chord string) (uint16, xproto.Button, error) {
	return mousebind.ParseString(c.xu, chord)
}

func (c *xConn) parseKey(chord string) (uint16, []xproto.Keycode, error) {
	return keybind.ParseString(c.xu, chord)
}

func (c *xConn) Root() xproto.Window { return c.screen.Root }

func (c *xConn) ScreenSize() (int, int) {
	return int(c.screen.WidthInPixels), int(c.screen.HeightInPixels)
}

func (c *xConn) WaitForEvent() (xgb.Event, error) {
	ev, err := c.conn.WaitForEvent()
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (c *xConn) PollForEvent() (xgb.Event, error) {
	ev, err := c.conn.PollForEvent()
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (c *xConn) GrabServer() error {
	return xproto.GrabServerChecked(c.conn).Check()
}

func (c *xConn) UngrabServer() error {
	return xproto.UngrabServerChecked(c.conn).Check()
}

func (c *xConn) TopLevel() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.conn, c.screen.Root).Reply()
	if err != nil {
		return nil, err
	}
	if tree.Root != c.screen.Root {
		return nil, fmt.Errorf("tree root %d is not the screen root %d", tree.Root, c.screen.Root)
	}
	return tree.Children, nil
}

func (c *xConn) Attributes(win xproto.Window) (*xproto.GetWindowAttributesReply, error) {
	return xproto.GetWindowAttributes(c.conn, win).Reply()
}

func (c *xConn) Geometry(win xproto.Window) (Geometry, error) {
	g, err := xproto.GetGeometry(c.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{X: int(g.X), Y: int(g.Y), Width: int(g.Width), Height: int(g.Height)}, nil
}

// Title prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *xConn) Title(win xproto.Window) (string, error) {
	if name, err := ewmh.WmNameGet(c.xu, win); err == nil && name != "" {
		return name, nil
	}
	return icccm.WmNameGet(c.xu, win)
}

func (c *xConn) CreateFrame(x, y, width, height int) (xproto.Window, error) {
	frame, err := xproto.NewWindowId(c.conn)
	if err != nil {
		return 0, err
	}

	err = xproto.CreateWindowChecked(
		c.conn,
		0,
		frame,
		c.screen.Root,
		int16(x),
		int16(y),
		uint16(max(width, 1)),
		uint16(max(height, 1)),
		uint16(c.cfg.Frame.BorderWidth),
		xproto.WindowClassInputOutput,
		xproto.WindowNone,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwEventMask,
		[]uint32{
			c.cfg.Frame.Color,
			c.cfg.Frame.Color,
			xproto.EventMaskSubstructureRedirect |
				xproto.EventMaskSubstructureNotify |
				xproto.EventMaskEnterWindow |
				xproto.EventMaskLeaveWindow,
		},
	).Check()
	if err != nil {
		return 0, err
	}
	return frame, nil
}

func (c *xConn) DestroyWindow(win xproto.Window) error {
	return xproto.DestroyWindowChecked(c.conn, win).Check()
}

func (c *xConn) MapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(c.conn, win).Check()
}

func (c *xConn) UnmapWindow(win xproto.Window) error {
	return xproto.UnmapWindowChecked(c.conn, win).Check()
}

func (c *xConn) ReparentWindow(win, parent xproto.Window, x, y int) (uint16, error) {
	cookie := xproto.ReparentWindowChecked(c.conn, win, parent, int16(x), int16(y))
	return cookie.Sequence, cookie.Check()
}

func (c *xConn) ConfigureWindow(win xproto.Window, mask uint16, values []uint32) error {
	return xproto.ConfigureWindowChecked(c.conn, win, mask, values).Check()
}

func (c *xConn) ChangeSaveSet(mode byte, win xproto.Window) error {
	return xproto.ChangeSaveSetChecked(c.conn, mode, win).Check()
}

func (c *xConn) SetFrameColor(frame xproto.Window, color uint32) error {
	err := xproto.ChangeWindowAttributesChecked(c.conn, frame, xproto.CwBorderPixel, []uint32{color}).Check()
	if err != nil {
		return err
	}
	return xproto.ClearAreaChecked(c.conn, false, frame, 0, 0, 0, 0).Check()
}

// GrabButton grabs once per lock modifier combination so caps and num lock
// don't get in the way.
func (c *xConn) GrabButton(win xproto.Window, mods uint16, button xproto.Button) error {
	for _, ignore := range xevent.IgnoreMods {
		err := xproto.GrabButtonChecked(
			c.conn,
			false,
			win,
			uint16(xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|xproto.EventMaskPointerMotion),
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
			xproto.WindowNone,
			xproto.CursorNone,
			byte(button),
			mods|ignore,
		).Check()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *xConn) GrabKey(win xproto.Window, mods uint16, key xproto.Keycode) error {
	for _, ignore := range xevent.IgnoreMods {
		err := xproto.GrabKeyChecked(c.conn, false, win, mods|ignore, key,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteWindow sends WM_DELETE_WINDOW when the client lists it in
// WM_PROTOCOLS and kills the client otherwise.
func (c *xConn) DeleteWindow(win xproto.Window) error {
	protocols, err := icccm.WmProtocolsGet(c.xu, win)
	if err != nil || !slices.Contains(protocols, "WM_DELETE_WINDOW") {
		return xproto.KillClientChecked(c.conn, uint32(win)).Check()
	}

	wmProtocols, err := xprop.Atm(c.xu, "WM_PROTOCOLS")
	if err != nil {
		return err
	}
	wmDelete, err := xprop.Atm(c.xu, "WM_DELETE_WINDOW")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   wmProtocols,
		Data: xproto.ClientMessageDataUnionData32New(
			[]uint32{
				uint32(wmDelete),
				uint32(xproto.TimeCurrentTime),
				0, 0, 0,
			},
		),
	}

	return xproto.SendEventChecked(
		c.conn,
		false,
		win,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

func (c *xConn) SetClientList(wins []xproto.Window) error {
	return ewmh.ClientListSet(c.xu, wins)
}

func (c *xConn) DrawBar(text string) error {
	root := xproto.Drawable(c.screen.Root)
	bar := c.cfg.Bar

	if err := xproto.ChangeGCChecked(c.conn, c.gc, xproto.GcForeground, []uint32{bar.Color}).Check(); err != nil {
		return err
	}
	err := xproto.PolyFillRectangleChecked(c.conn, root, c.gc, []xproto.Rectangle{
		{X: 0, Y: 0, Width: c.screen.WidthInPixels, Height: uint16(bar.Height)},
	}).Check()
	if err != nil {
		return err
	}

	if err := xproto.ChangeGCChecked(c.conn, c.gc, xproto.GcForeground|xproto.GcBackground,
		[]uint32{bar.TextColor, bar.Color}).Check(); err != nil {
		return err
	}
	if len(text) > 255 {
		text = text[:255]
	}
	return xproto.ImageText8Checked(c.conn, byte(len(text)), root, c.gc,
		int16(bar.TextOffset), int16(bar.Height-4), text).Check()
}

func (c *xConn) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
