package wm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BobdaProgrammer/mswm/layout"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/mattn/go-shellwords"
)

// Action is what a key chord does to the window manager.
type Action func(wm *WindowManager) error

type Chord struct {
	Mods uint16
	Key  xproto.Keycode
}

// Resolver turns a chord string like "Mod4-Return" into a modifier mask and
// the keycodes producing that key. keybind.ParseString fits.
type Resolver func(chord string) (uint16, []xproto.Keycode, error)

// Bindings maps key chords to actions.
type Bindings struct {
	actions map[Chord]Action
}

func NewBindings(resolve Resolver, keys map[string]string, spawn Spawner) (*Bindings, error) {
	b := &Bindings{actions: make(map[Chord]Action, len(keys))}

	var errs []error
	for str, command := range keys {
		action, err := ParseCommand(command, spawn)
		if err != nil {
			errs = append(errs, fmt.Errorf("key %s: %w", str, err))
			continue
		}
		mods, codes, err := resolve(str)
		if err != nil {
			errs = append(errs, fmt.Errorf("key %s: %w", str, err))
			continue
		}
		if len(codes) == 0 {
			errs = append(errs, fmt.Errorf("key %s: no keycode on this keyboard", str))
			continue
		}
		for _, code := range codes {
			b.actions[Chord{Mods: mods, Key: code}] = action
		}
	}
	return b, errors.Join(errs...)
}

// ParseCommand builds the action for a command string from the config file.
func ParseCommand(command string, spawn Spawner) (Action, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}

	name, args := args[0], args[1:]
	switch name {
	case "spawn":
		if len(args) == 0 {
			return nil, errors.New("spawn needs a program")
		}
		return func(*WindowManager) error {
			spawn(args)
			return nil
		}, nil
	case "layout":
		if len(args) != 1 {
			return nil, errors.New("layout needs exactly one name")
		}
		kind, err := layout.Parse(args[0])
		if err != nil {
			return nil, err
		}
		return func(wm *WindowManager) error { return wm.SetLayout(kind) }, nil
	case "tile":
		return (*WindowManager).Tile, nil
	case "raise":
		return (*WindowManager).Raise, nil
	case "lower":
		return (*WindowManager).Lower, nil
	case "close":
		return (*WindowManager).CloseFocused, nil
	case "quit":
		return (*WindowManager).Quit, nil
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

// Lookup finds the action for a key press, ignoring lock style modifiers.
func (b *Bindings) Lookup(state uint16, key xproto.Keycode) (Action, bool) {
	action, ok := b.actions[Chord{Mods: cleanMods(state), Key: key}]
	return action, ok
}

// Grab installs a passive grab for every chord on win.
func (b *Bindings) Grab(conn Conn, win xproto.Window) error {
	chords := make([]Chord, 0, len(b.actions))
	for c := range b.actions {
		chords = append(chords, c)
	}
	sort.Slice(chords, func(i, j int) bool {
		if chords[i].Key != chords[j].Key {
			return chords[i].Key < chords[j].Key
		}
		return chords[i].Mods < chords[j].Mods
	})

	for _, c := range chords {
		if err := conn.GrabKey(win, c.Mods, c.Key); err != nil {
			return fmt.Errorf("couldn't grab key %d: %w", c.Key, err)
		}
	}
	return nil
}

func (b *Bindings) Len() int {
	return len(b.actions)
}

const usableMods = xproto.ModMaskShift | xproto.ModMaskControl |
	xproto.ModMask1 | xproto.ModMask3 | xproto.ModMask4 | xproto.ModMask5

// cleanMods drops caps lock, num lock (Mod2) and pointer button state.
func cleanMods(state uint16) uint16 {
	return state & usableMods
}
