package wm

import "github.com/BurntSushi/xgb/xproto"

// Focus remembers the client whose frame the pointer entered last. It only
// drives the bar title and stack commands, not X input focus.
type Focus struct {
	win xproto.Window
	set bool
}

func (f *Focus) Enter(win xproto.Window) {
	f.win, f.set = win, true
}

func (f *Focus) Leave() {
	f.win, f.set = 0, false
}

// Forget clears the focus if it is on win.
func (f *Focus) Forget(win xproto.Window) {
	if f.set && f.win == win {
		f.Leave()
	}
}

func (f *Focus) Window() (xproto.Window, bool) {
	return f.win, f.set
}
