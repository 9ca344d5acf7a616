package wm

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/BobdaProgrammer/mswm/config"
	"github.com/BobdaProgrammer/mswm/layout"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xrect"
)

// Buttons are the pointer chords that start a move or a resize.
type Buttons struct {
	MoveMods   uint16
	Move       xproto.Button
	ResizeMods uint16
	Resize     xproto.Button
}

func (b Buttons) match(button xproto.Button, state uint16) Mode {
	switch {
	case button == b.Move && state&b.MoveMods != 0:
		return Moving
	case button == b.Resize && state&b.ResizeMods != 0:
		return Resizing
	}
	return Idle
}

type WindowManager struct {
	conn    Conn
	root    xproto.Window
	cfg     config.Config
	layout  layout.Kind
	buttons Buttons
	keys    *Bindings

	clients *Registry
	ignore  SequenceFilter
	drag    *Interaction
	focus   Focus

	// every managed client is in exactly one of these.
	floating []xproto.Window
	tiling   []xproto.Window
}

// Create connects to the X server named by $DISPLAY and takes over the
// default screen.
func Create(cfg config.Config) (*WindowManager, error) {
	X, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	if err := X.becomeWM(); err != nil {
		X.Close()
		return nil, err
	}

	var buttons Buttons
	buttons.MoveMods, buttons.Move, err = X.parseButton(cfg.Move)
	if err != nil {
		X.Close()
		return nil, fmt.Errorf("couldn't parse move binding %q: %w", cfg.Move, err)
	}
	buttons.ResizeMods, buttons.Resize, err = X.parseButton(cfg.Resize)
	if err != nil {
		X.Close()
		return nil, fmt.Errorf("couldn't parse resize binding %q: %w", cfg.Resize, err)
	}

	keys, err := NewBindings(X.parseKey, cfg.Keys, Spawn)
	if err != nil {
		// a broken binding shouldn't keep the rest from working.
		slog.Error("some key bindings were skipped", "error", err)
	}

	wm, err := New(X, cfg, buttons, keys)
	if err != nil {
		X.Close()
		return nil, err
	}
	return wm, nil
}

// New builds a window manager on an already established connection.
func New(conn Conn, cfg config.Config, buttons Buttons, keys *Bindings) (*WindowManager, error) {
	kind, err := layout.Parse(cfg.Layout)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = &Bindings{actions: map[Chord]Action{}}
	}

	return &WindowManager{
		conn:    conn,
		root:    conn.Root(),
		cfg:     cfg,
		layout:  kind,
		buttons: buttons,
		keys:    keys,
		clients: NewRegistry(),
		drag:    NewInteraction(cfg.MinWidth, cfg.MinHeight),
	}, nil
}

// Run manages the windows that already exist and then handles events until
// the quit command runs or the connection goes away.
func (wm *WindowManager) Run() error {
	slog.Info("window manager up and running", "layout", wm.layout)

	if err := wm.keys.Grab(wm.conn, wm.root); err != nil {
		slog.Error("couldn't grab keys on root", "error", err)
	}

	if err := wm.Scan(); err != nil {
		return fmt.Errorf("couldn't scan existing windows: %w", err)
	}
	wm.drawBar()

	for {
		err := wm.handleEvents()
		switch {
		case errors.Is(err, errQuit):
			slog.Info("quitting")
			return nil
		case errors.Is(err, errClosed):
			slog.Info("X connection closed")
			return nil
		case err != nil:
			return err
		}
	}
}

// Scan manages every mapped, non override-redirect top level window.
func (wm *WindowManager) Scan() error {
	children, err := wm.conn.TopLevel()
	if err != nil {
		return err
	}

	for _, win := range children {
		attribs, err := wm.conn.Attributes(win)
		if err != nil {
			if isGone(err) {
				continue
			}
			return err
		}
		if attribs.OverrideRedirect || attribs.MapState == xproto.MapStateUnmapped {
			continue
		}
		if err := wm.manage(win); err != nil {
			wm.report("couldn't manage existing window", win, err)
		}
	}
	return nil
}

// handleEvents blocks for one event, then handles whatever else is already
// queued before repainting the bar once.
func (wm *WindowManager) handleEvents() error {
	event, err := wm.conn.WaitForEvent()
	if event == nil && err == nil {
		return errClosed
	}

	for event != nil || err != nil {
		if err != nil {
			wm.report("X error", 0, err)
		} else if wm.ignore.Filter(event) {
			if err := wm.handle(event); err != nil {
				if errors.Is(err, errQuit) {
					return err
				}
				wm.report("couldn't handle "+eventName(event), 0, err)
			}
		}
		event, err = wm.conn.PollForEvent()
	}

	wm.drawBar()
	return nil
}

func (wm *WindowManager) handle(event xgb.Event) error {
	switch ev := event.(type) {
	case xproto.MapRequestEvent:
		return wm.manage(ev.Window)
	case xproto.UnmapNotifyEvent:
		return wm.unmanage(ev.Window)
	case xproto.DestroyNotifyEvent:
		return wm.unmanage(ev.Window)
	case xproto.ConfigureRequestEvent:
		return wm.OnConfigureRequest(ev)
	case xproto.ButtonPressEvent:
		return wm.OnButtonPress(ev)
	case xproto.ButtonReleaseEvent:
		wm.OnButtonRelease(ev)
	case xproto.MotionNotifyEvent:
		return wm.OnMotionNotify(ev)
	case xproto.EnterNotifyEvent:
		wm.OnEnterNotify(ev)
	case xproto.LeaveNotifyEvent:
		wm.OnLeaveNotify(ev)
	case xproto.KeyPressEvent:
		return wm.OnKeyPress(ev)
	}
	return nil
}

// report logs a per event failure. Windows vanishing under us are routine.
func (wm *WindowManager) report(msg string, win xproto.Window, err error) {
	if isGone(err) {
		slog.Debug(msg, "window", win, "error", err)
		return
	}
	slog.Error(msg, "window", win, "error", err)
}

func eventName(event xgb.Event) string {
	return fmt.Sprintf("%T", event)
}

// manage wraps win in a new frame. The server is grabbed so nobody else can
// restructure the window halfway through.
func (wm *WindowManager) manage(win xproto.Window) (err error) {
	if _, ok := wm.clients.FrameOf(win); ok {
		return wm.conn.MapWindow(win)
	}

	if err := wm.conn.GrabServer(); err != nil {
		return fmt.Errorf("couldn't grab X server: %w", err)
	}
	defer func() {
		if uerr := wm.conn.UngrabServer(); uerr != nil && err == nil {
			err = fmt.Errorf("couldn't ungrab X server: %w", uerr)
		}
	}()

	geometry, err := wm.conn.Geometry(win)
	if err != nil {
		return fmt.Errorf("couldn't get window geometry: %w", err)
	}

	frame, err := wm.conn.CreateFrame(geometry.X, geometry.Y+wm.cfg.Bar.Height, geometry.Width, geometry.Height)
	if err != nil {
		return fmt.Errorf("couldn't create frame: %w", err)
	}

	if err := wm.clients.Register(win, frame); err != nil {
		wm.conn.DestroyWindow(frame)
		return err
	}
	wm.floating = append(wm.floating, win)

	if err := wm.Frame(win, frame); err != nil {
		wm.clients.Unregister(win)
		wm.forget(win)
		if uerr := wm.UnFrame(win, frame); uerr != nil {
			slog.Error("couldn't clean up frame", "frame", frame, "error", uerr)
		}
		return err
	}

	wm.publishClients()
	slog.Info("Framed window", "window", win, "frame", frame)
	return nil
}

// Frame reparents win into frame, maps both and installs the grabs.
func (wm *WindowManager) Frame(win, frame xproto.Window) error {
	if err := wm.conn.ChangeSaveSet(xproto.SetModeInsert, win); err != nil {
		return fmt.Errorf("couldn't save window to set: %w", err)
	}

	seq, err := wm.conn.ReparentWindow(win, frame, 0, 0)
	wm.ignore.Remember(seq)
	if err != nil {
		return fmt.Errorf("couldn't reparent window: %w", err)
	}

	if err := wm.conn.MapWindow(win); err != nil {
		return fmt.Errorf("couldn't map window: %w", err)
	}
	if err := wm.conn.MapWindow(frame); err != nil {
		return fmt.Errorf("couldn't map frame: %w", err)
	}

	if err := wm.conn.GrabButton(win, wm.buttons.MoveMods, wm.buttons.Move); err != nil {
		return fmt.Errorf("couldn't grab move button: %w", err)
	}
	if err := wm.conn.GrabButton(win, wm.buttons.ResizeMods, wm.buttons.Resize); err != nil {
		return fmt.Errorf("couldn't grab resize button: %w", err)
	}
	return wm.keys.Grab(wm.conn, win)
}

// unmanage gives win back to the root and destroys its frame. Windows we
// don't manage are ignored.
func (wm *WindowManager) unmanage(win xproto.Window) error {
	frame, ok := wm.clients.Unregister(win)
	if !ok {
		return nil
	}
	tiled := wm.forget(win)

	if err := wm.UnFrame(win, frame); err != nil {
		return err
	}
	wm.publishClients()
	slog.Info("Unframed window", "window", win, "frame", frame)

	if tiled {
		return wm.applyLayout()
	}
	return nil
}

// UnFrame undoes Frame. The client may already be destroyed, in which case
// only the frame needs cleaning up.
func (wm *WindowManager) UnFrame(win, frame xproto.Window) error {
	seq, err := wm.conn.ReparentWindow(win, wm.root, 0, 0)
	wm.ignore.Remember(seq)
	if err != nil && !isGone(err) {
		return fmt.Errorf("couldn't reparent window to root: %w", err)
	}

	if err == nil {
		if err := wm.conn.ChangeSaveSet(xproto.SetModeDelete, win); err != nil && !isGone(err) {
			return fmt.Errorf("couldn't remove window from save set: %w", err)
		}
	}

	if err := wm.conn.UnmapWindow(frame); err != nil {
		return fmt.Errorf("couldn't unmap frame: %w", err)
	}
	if err := wm.conn.DestroyWindow(frame); err != nil {
		return fmt.Errorf("couldn't destroy frame: %w", err)
	}
	return nil
}

// forget drops win from the orderings and the focus. It reports whether win
// was tiled.
func (wm *WindowManager) forget(win xproto.Window) bool {
	wm.focus.Forget(win)
	wm.floating = slices.DeleteFunc(wm.floating, func(w xproto.Window) bool { return w == win })

	i := slices.Index(wm.tiling, win)
	if i < 0 {
		return false
	}
	wm.tiling = slices.Delete(wm.tiling, i, i+1)
	return true
}

func (wm *WindowManager) publishClients() {
	clients := slices.Concat(wm.tiling, wm.floating)
	if err := wm.conn.SetClientList(clients); err != nil {
		slog.Error("couldn't update client list", "error", err)
	}
}

// OnConfigureRequest grants requests from windows we haven't placed. Tiled
// windows keep the geometry the layout gave them.
func (wm *WindowManager) OnConfigureRequest(event xproto.ConfigureRequestEvent) error {
	if slices.Contains(wm.tiling, event.Window) {
		slog.Debug("ignoring configure request from tiled window", "window", event.Window)
		return nil
	}

	frame, ok := wm.clients.FrameOf(event.Window)
	if !ok {
		return wm.conn.ConfigureWindow(event.Window, event.ValueMask, createChanges(event, event.ValueMask))
	}

	// the frame follows position and size, the client stays at 0,0 inside it.
	frameMask := event.ValueMask & (xproto.ConfigWindowX | xproto.ConfigWindowY |
		xproto.ConfigWindowWidth | xproto.ConfigWindowHeight | xproto.ConfigWindowStackMode)
	if event.ValueMask&xproto.ConfigWindowSibling != 0 {
		frameMask &^= xproto.ConfigWindowStackMode
	}
	if frameMask != 0 {
		if err := wm.conn.ConfigureWindow(frame, frameMask, createChanges(event, frameMask)); err != nil {
			return err
		}
	}

	clientMask := event.ValueMask & (xproto.ConfigWindowWidth | xproto.ConfigWindowHeight |
		xproto.ConfigWindowBorderWidth)
	if clientMask == 0 {
		return nil
	}
	slog.Debug("Resize", "frame", frame, "width", event.Width, "height", event.Height)
	return wm.conn.ConfigureWindow(event.Window, clientMask, createChanges(event, clientMask))
}

// createChanges lists the request's values for the fields in mask, in the
// order ConfigureWindow expects them.
func createChanges(event xproto.ConfigureRequestEvent, mask uint16) []uint32 {
	changes := make([]uint32, 0, 7)

	if mask&xproto.ConfigWindowX != 0 {
		changes = append(changes, uint32(event.X))
	}
	if mask&xproto.ConfigWindowY != 0 {
		changes = append(changes, uint32(event.Y))
	}
	if mask&xproto.ConfigWindowWidth != 0 {
		changes = append(changes, uint32(event.Width))
	}
	if mask&xproto.ConfigWindowHeight != 0 {
		changes = append(changes, uint32(event.Height))
	}
	if mask&xproto.ConfigWindowBorderWidth != 0 {
		changes = append(changes, uint32(event.BorderWidth))
	}
	if mask&xproto.ConfigWindowSibling != 0 {
		changes = append(changes, uint32(event.Sibling))
	}
	if mask&xproto.ConfigWindowStackMode != 0 {
		changes = append(changes, uint32(event.StackMode))
	}

	return changes
}

// lookup resolves a window an event was reported on, client or frame, to
// the managed pair.
func (wm *WindowManager) lookup(wins ...xproto.Window) (client, frame xproto.Window, ok bool) {
	for _, w := range wins {
		if frame, ok := wm.clients.FrameOf(w); ok {
			return w, frame, true
		}
		if client, ok := wm.clients.ClientOf(w); ok {
			return client, w, true
		}
	}
	return 0, 0, false
}

func (wm *WindowManager) OnButtonPress(event xproto.ButtonPressEvent) error {
	if wm.drag.Mode() != Idle {
		return nil
	}
	mode := wm.buttons.match(event.Detail, event.State)
	if mode == Idle {
		return nil
	}
	client, frame, ok := wm.lookup(event.Event, event.Child)
	if !ok {
		return nil
	}

	origin, err := wm.conn.Geometry(frame)
	if err != nil {
		return fmt.Errorf("couldn't get frame geometry: %w", err)
	}

	wm.drag.Begin(Drag{
		Mode:     mode,
		Button:   event.Detail,
		Client:   client,
		Frame:    frame,
		PointerX: int(event.RootX),
		PointerY: int(event.RootY),
		Origin:   origin,
	})
	slog.Debug("drag started", "mode", mode, "window", client)
	return nil
}

func (wm *WindowManager) OnButtonRelease(event xproto.ButtonReleaseEvent) {
	if wm.drag.Release(event.Detail) {
		slog.Debug("drag finished")
	}
}

// OnMotionNotify moves or resizes the dragged window. A failed request is
// not retried, the next motion event supersedes it.
func (wm *WindowManager) OnMotionNotify(event xproto.MotionNotifyEvent) error {
	for _, req := range wm.drag.Motion(int(event.RootX), int(event.RootY)) {
		if err := wm.conn.ConfigureWindow(req.Window, req.Mask, req.Values); err != nil {
			return err
		}
	}
	return nil
}

func (wm *WindowManager) OnEnterNotify(event xproto.EnterNotifyEvent) {
	client, frame, ok := wm.lookup(event.Event)
	if !ok {
		return
	}
	wm.focus.Enter(client)

	if err := wm.conn.SetFrameColor(frame, wm.cfg.Frame.FocusColor); err != nil {
		wm.report("couldn't highlight frame", frame, err)
	}
}

func (wm *WindowManager) OnLeaveNotify(event xproto.LeaveNotifyEvent) {
	// moving from the frame into the client it holds is not leaving.
	if event.Detail == xproto.NotifyDetailInferior {
		return
	}
	client, frame, ok := wm.lookup(event.Event)
	if !ok {
		return
	}
	wm.focus.Forget(client)

	if err := wm.conn.SetFrameColor(frame, wm.cfg.Frame.Color); err != nil {
		wm.report("couldn't remove frame highlight", frame, err)
	}
}

func (wm *WindowManager) OnKeyPress(event xproto.KeyPressEvent) error {
	action, ok := wm.keys.Lookup(event.State, event.Detail)
	if !ok {
		return nil
	}
	return action(wm)
}

// applyLayout moves the floating windows into the tiling order and lays the
// whole order out on the screen.
func (wm *WindowManager) applyLayout() error {
	wm.tiling = append(wm.tiling, wm.floating...)
	wm.floating = wm.floating[:0]

	width, height := wm.conn.ScreenSize()
	screen := xrect.New(0, 0, width, height)

	whole := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	for _, p := range wm.layout.Arrange(screen, wm.cfg.Bar.Height, wm.tiling) {
		x, y, w, h := p.Rect.Pieces()
		w, h = max(w, 1), max(h, 1)

		if frame, ok := wm.clients.FrameOf(p.Window); ok {
			err := wm.conn.ConfigureWindow(frame, whole, []uint32{uint32(x), uint32(y), uint32(w), uint32(h)})
			if isGone(err) {
				continue
			}
			if err != nil {
				return err
			}
			x, y = 0, 0
		}

		err := wm.conn.ConfigureWindow(p.Window, whole, []uint32{uint32(x), uint32(y), uint32(w), uint32(h)})
		if err != nil && !isGone(err) {
			return err
		}
	}
	return nil
}

// Tile lays out every managed window with the current layout.
func (wm *WindowManager) Tile() error {
	return wm.applyLayout()
}

// SetLayout switches the layout algorithm and applies it.
func (wm *WindowManager) SetLayout(kind layout.Kind) error {
	wm.layout = kind
	slog.Info("layout changed", "layout", kind)
	return wm.applyLayout()
}

// Raise moves the focused window one step towards the front of the tiling
// order. Nothing happens at the ends.
func (wm *WindowManager) Raise() error {
	return wm.shift(-1)
}

// Lower moves the focused window one step towards the back.
func (wm *WindowManager) Lower() error {
	return wm.shift(1)
}

func (wm *WindowManager) shift(by int) error {
	win, ok := wm.focus.Window()
	if !ok {
		return nil
	}
	i := slices.Index(wm.tiling, win)
	j := i + by
	if i < 0 || j < 0 || j >= len(wm.tiling) {
		return nil
	}

	wm.tiling[i], wm.tiling[j] = wm.tiling[j], wm.tiling[i]
	wm.focus.Enter(win)
	return wm.applyLayout()
}

// CloseFocused asks the focused window to close.
func (wm *WindowManager) CloseFocused() error {
	win, ok := wm.focus.Window()
	if !ok {
		return nil
	}
	return wm.conn.DeleteWindow(win)
}

// Quit makes Run return.
func (wm *WindowManager) Quit() error {
	return errQuit
}

func (wm *WindowManager) drawBar() {
	text := wm.cfg.Bar.Label
	if win, ok := wm.focus.Window(); ok {
		title, err := wm.conn.Title(win)
		if err != nil {
			wm.report("couldn't get window title", win, err)
		} else {
			text = title
		}
	}

	if err := wm.conn.DrawBar(text); err != nil {
		slog.Error("couldn't draw bar", "error", err)
	}
}

func (wm *WindowManager) Close() {
	if wm.conn != nil {
		wm.conn.Close()
	}
}
