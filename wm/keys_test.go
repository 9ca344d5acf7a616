package wm

import (
	"errors"
	"testing"

	"github.com/BobdaProgrammer/mswm/config"
	"github.com/BobdaProgrammer/mswm/layout"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeymap resolves "Mod4-<letter>" style chords against a tiny table.
func fakeKeymap(chord string) (uint16, []xproto.Keycode, error) {
	codes := map[string][]xproto.Keycode{
		"Mod4-Return": {36},
		"Mod4-t":      {28},
		"Mod4-q":      {24},
		"Mod4-a":      {38, 200},
	}
	if c, ok := codes[chord]; ok {
		return xproto.ModMask4, c, nil
	}
	return 0, nil, errors.New("unknown key")
}

func TestParseCommand(t *testing.T) {
	var spawned [][]string
	spawn := func(argv []string) { spawned = append(spawned, argv) }

	for _, good := range []string{"spawn xterm", "layout tree", "tile", "raise", "lower", "close", "quit"} {
		_, err := ParseCommand(good, spawn)
		assert.NoError(t, err, good)
	}
	for _, bad := range []string{"", "spawn", "layout", "layout monocle", "layout a b", "dance", "spawn 'xterm"} {
		_, err := ParseCommand(bad, spawn)
		assert.Error(t, err, bad)
	}

	action, err := ParseCommand(`spawn sh -c "echo hi there"`, spawn)
	require.NoError(t, err)
	require.NoError(t, action(nil))
	assert.Equal(t, [][]string{{"sh", "-c", "echo hi there"}}, spawned)
}

func TestNewBindingsReportsBadEntries(t *testing.T) {
	b, err := NewBindings(fakeKeymap, map[string]string{
		"Mod4-Return": "spawn xterm",
		"Mod4-a":      "tile",
		"Mod4-z":      "tile",
		"Mod4-q":      "dance",
	}, func([]string) {})
	require.Error(t, err)

	// every keycode of a key gets the action
	assert.Equal(t, 3, b.Len())
	_, ok := b.Lookup(xproto.ModMask4, 200)
	assert.True(t, ok)
	_, ok = b.Lookup(xproto.ModMask4, 24)
	assert.False(t, ok)
}

func TestLookupIgnoresLockModifiers(t *testing.T) {
	b, err := NewBindings(fakeKeymap, map[string]string{"Mod4-q": "quit"}, func([]string) {})
	require.NoError(t, err)

	for _, state := range []uint16{
		xproto.ModMask4,
		xproto.ModMask4 | xproto.ModMaskLock,
		xproto.ModMask4 | xproto.ModMask2,
		xproto.ModMask4 | xproto.KeyButMaskButton1,
	} {
		_, ok := b.Lookup(state, 24)
		assert.True(t, ok, "state %#x", state)
	}
	_, ok := b.Lookup(xproto.ModMask4|xproto.ModMaskShift, 24)
	assert.False(t, ok)
}

func TestKeyPressSwitchesLayout(t *testing.T) {
	conn := newFakeConn()
	keys, err := NewBindings(fakeKeymap, map[string]string{"Mod4-t": "layout tree"}, func([]string) {})
	require.NoError(t, err)
	wm, err := New(conn, config.Default(), testButtons, keys)
	require.NoError(t, err)
	mustManage(t, wm, 10)

	require.NoError(t, wm.handle(xproto.KeyPressEvent{Detail: 28, State: xproto.ModMask4}))
	assert.Equal(t, layout.Tree, wm.layout)
	assert.Equal(t, []xproto.Window{10}, wm.tiling)

	// keys are grabbed on every managed client
	assert.Len(t, conn.callsFor("GrabKey", 10), 1)
}

func TestGrabIsOrdered(t *testing.T) {
	b, err := NewBindings(fakeKeymap, map[string]string{"Mod4-a": "tile", "Mod4-q": "quit"}, func([]string) {})
	require.NoError(t, err)

	conn := newFakeConn()
	require.NoError(t, b.Grab(conn, 5))

	var codes []uint32
	for _, cl := range conn.callsFor("GrabKey", 5) {
		assert.Equal(t, uint16(xproto.ModMask4), cl.Mask)
		codes = append(codes, cl.Values[0])
	}
	assert.Equal(t, []uint32{24, 38, 200}, codes)
}
