package layout

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xrect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kinds = []Kind{Fibonacci, Tree}

func windows(n int) []xproto.Window {
	wins := make([]xproto.Window, n)
	for i := range wins {
		wins[i] = xproto.Window(100 + i)
	}
	return wins
}

func TestParse(t *testing.T) {
	k, err := Parse("Tree")
	require.NoError(t, err)
	assert.Equal(t, Tree, k)

	k, err = Parse("fibonacci")
	require.NoError(t, err)
	assert.Equal(t, Fibonacci, k)

	_, err = Parse("monocle")
	assert.Error(t, err)
}

func TestArrangeEmpty(t *testing.T) {
	screen := xrect.New(0, 0, 320, 240)
	for _, k := range kinds {
		assert.Empty(t, k.Arrange(screen, 20, nil), k.String())
	}
}

func TestArrangeSingleWindowFillsUsableArea(t *testing.T) {
	screen := xrect.New(0, 0, 320, 240)
	for _, k := range kinds {
		out := k.Arrange(screen, 20, windows(1))
		require.Len(t, out, 1)
		x, y, w, h := out[0].Rect.Pieces()
		assert.Equal(t, []int{0, 20, 320, 220}, []int{x, y, w, h}, k.String())
	}
}

func TestArrangeKeepsEveryWindowOnce(t *testing.T) {
	screen := xrect.New(0, 0, 1920, 1080)
	for _, k := range kinds {
		for n := 1; n <= 12; n++ {
			wins := windows(n)
			out := k.Arrange(screen, 20, wins)
			require.Len(t, out, n)

			got := make([]xproto.Window, 0, n)
			for _, p := range out {
				got = append(got, p.Window)
			}
			assert.ElementsMatch(t, wins, got, "%s with %d windows", k, n)
		}
	}
}

// Paint every placement onto a pixel grid; each pixel below the bar must be
// covered exactly once and nothing may be painted inside the bar.
func TestArrangeCoversAreaWithoutOverlap(t *testing.T) {
	const width, height, bar = 320, 240, 20
	screen := xrect.New(0, 0, width, height)

	for _, k := range kinds {
		for n := 1; n <= 9; n++ {
			var grid [height][width]int
			for _, p := range k.Arrange(screen, bar, windows(n)) {
				x, y, w, h := p.Rect.Pieces()
				for py := y; py < y+h; py++ {
					for px := x; px < x+w; px++ {
						grid[py][px]++
					}
				}
			}

			for py := 0; py < height; py++ {
				for px := 0; px < width; px++ {
					want := 1
					if py < bar {
						want = 0
					}
					if grid[py][px] != want {
						t.Fatalf("%s with %d windows: pixel (%d,%d) painted %d times", k, n, px, py, grid[py][px])
					}
				}
			}
		}
	}
}

func TestArrangeIsDeterministic(t *testing.T) {
	screen := xrect.New(0, 0, 1280, 800)
	wins := windows(7)
	for _, k := range kinds {
		first := k.Arrange(screen, 20, wins)
		second := k.Arrange(screen, 20, wins)
		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].Window, second[i].Window)
			assert.Equal(t, pieces(first[i].Rect), pieces(second[i].Rect))
		}
	}
}

func TestFibonacciSpiral(t *testing.T) {
	out := Fibonacci.Arrange(xrect.New(0, 0, 320, 240), 20, windows(3))
	require.Len(t, out, 3)

	// last window takes the left half, the next one the top of the right
	// half, and the first window whatever is left.
	assert.Equal(t, xproto.Window(102), out[0].Window)
	assert.Equal(t, []int{0, 20, 160, 220}, pieces(out[0].Rect))
	assert.Equal(t, xproto.Window(101), out[1].Window)
	assert.Equal(t, []int{160, 20, 160, 110}, pieces(out[1].Rect))
	assert.Equal(t, xproto.Window(100), out[2].Window)
	assert.Equal(t, []int{160, 130, 160, 110}, pieces(out[2].Rect))
}

func TestTreeBalances(t *testing.T) {
	out := Tree.Arrange(xrect.New(0, 0, 320, 240), 20, windows(4))
	require.Len(t, out, 4)

	// four windows in a 2x2 grid
	for _, p := range out {
		_, _, w, h := p.Rect.Pieces()
		assert.Equal(t, 160, w)
		assert.Equal(t, 110, h)
	}
}

func TestUsableClampsOversizedBar(t *testing.T) {
	assert.Equal(t, []int{0, 50, 100, 0}, pieces(Usable(xrect.New(0, 0, 100, 50), 80)))
}

func pieces(r xrect.Rect) []int {
	x, y, w, h := r.Pieces()
	return []int{x, y, w, h}
}
