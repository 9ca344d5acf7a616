package wm

import (
	"errors"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

var (
	ErrAnotherWM      = errors.New("another window manager is running on the display")
	ErrAlreadyManaged = errors.New("window is already managed")

	errQuit   = errors.New("quit")
	errClosed = errors.New("X connection closed")
)

type Geometry struct {
	X, Y          int
	Width, Height int
}

// Conn is everything the window manager asks of the X server. Every call may
// fail; a window that vanished between an event and the request about it
// shows up as an error isGone recognises.
type Conn interface {
	Root() xproto.Window
	ScreenSize() (width, height int)

	// WaitForEvent blocks; it returns (nil, nil) once the connection is closed.
	WaitForEvent() (xgb.Event, error)
	// PollForEvent returns (nil, nil) when nothing is buffered.
	PollForEvent() (xgb.Event, error)

	GrabServer() error
	UngrabServer() error

	TopLevel() ([]xproto.Window, error)
	Attributes(win xproto.Window) (*xproto.GetWindowAttributesReply, error)
	Geometry(win xproto.Window) (Geometry, error)
	Title(win xproto.Window) (string, error)

	CreateFrame(x, y, width, height int) (xproto.Window, error)
	DestroyWindow(win xproto.Window) error
	MapWindow(win xproto.Window) error
	UnmapWindow(win xproto.Window) error
	// ReparentWindow returns the sequence number of the request so its
	// notifications can be told apart from ones other clients cause.
	ReparentWindow(win, parent xproto.Window, x, y int) (uint16, error)
	ConfigureWindow(win xproto.Window, mask uint16, values []uint32) error
	ChangeSaveSet(mode byte, win xproto.Window) error
	SetFrameColor(frame xproto.Window, color uint32) error

	GrabButton(win xproto.Window, mods uint16, button xproto.Button) error
	GrabKey(win xproto.Window, mods uint16, key xproto.Keycode) error

	// DeleteWindow asks the client to close win, killing it if it doesn't
	// speak WM_DELETE_WINDOW.
	DeleteWindow(win xproto.Window) error
	SetClientList(wins []xproto.Window) error
	DrawBar(text string) error

	Close()
}

// isGone reports whether err comes from a request about a window that no
// longer exists.
func isGone(err error) bool {
	var werr xproto.WindowError
	var derr xproto.DrawableError
	return errors.As(err, &werr) || errors.As(err, &derr)
}
