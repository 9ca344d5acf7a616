// Package config loads the window manager settings from a YAML file layered
// over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BobdaProgrammer/mswm/layout"
	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Bar struct {
	Height     int    `koanf:"height"`
	TextOffset int    `koanf:"text_offset"`
	Color      uint32 `koanf:"color"`
	TextColor  uint32 `koanf:"text_color"`
	Font       string `koanf:"font"`
	Label      string `koanf:"label"`
}

type Frame struct {
	BorderWidth int    `koanf:"border_width"`
	Color       uint32 `koanf:"color"`
	FocusColor  uint32 `koanf:"focus_color"`
}

type Config struct {
	// Move and Resize are mouse chords such as "Mod4-1".
	Move   string `koanf:"move"`
	Resize string `koanf:"resize"`

	MinWidth  int    `koanf:"min_width"`
	MinHeight int    `koanf:"min_height"`
	Layout    string `koanf:"layout"`

	Bar   Bar   `koanf:"bar"`
	Frame Frame `koanf:"frame"`

	// Keys maps a key chord ("Mod4-Return") to a command ("spawn xterm").
	Keys map[string]string `koanf:"keys"`
}

func Default() Config {
	return Config{
		Move:      "Mod4-1",
		Resize:    "Mod4-3",
		MinWidth:  10,
		MinHeight: 10,
		Layout:    layout.Fibonacci.String(),
		Bar: Bar{
			Height:     20,
			TextOffset: 4,
			Color:      0x224488,
			TextColor:  0xfafafa,
			Font:       "9x15",
			Label:      "MSWM",
		},
		Frame: Frame{
			BorderWidth: 3,
			Color:       0x8bd5ca,
			FocusColor:  0xa6da95,
		},
		Keys: map[string]string{
			"Mod4-Return":  "spawn xterm",
			"Mod4-d":       "spawn dmenu_run",
			"Mod4-f":       "layout fibonacci",
			"Mod4-t":       "layout tree",
			"Mod4-space":   "tile",
			"Mod4-k":       "raise",
			"Mod4-j":       "lower",
			"Mod4-q":       "close",
			"Mod4-Shift-q": "quit",
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/mswm/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "mswm", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("couldn't stat config file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("couldn't load config file %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("couldn't decode config file %s: %w", path, err)
	}

	for chord, command := range cfg.Keys {
		if command == "" {
			delete(cfg.Keys, chord)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := layout.Parse(c.Layout); err != nil {
		return err
	}
	if c.Bar.Height <= 0 {
		return fmt.Errorf("bar height must be positive, got %d", c.Bar.Height)
	}
	if c.MinWidth <= 0 || c.MinHeight <= 0 {
		return fmt.Errorf("minimum window size must be positive, got %dx%d", c.MinWidth, c.MinHeight)
	}
	if c.Move == "" || c.Resize == "" {
		return errors.New("move and resize bindings must be set")
	}
	return nil
}
