// Package main.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/BobdaProgrammer/mswm/config"
	"github.com/BobdaProgrammer/mswm/wm"
	"github.com/joho/godotenv"
	"github.com/k0kubun/pp"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
)

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "mswm",
		Short: "A small tiling window manager for X",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				InitLogger(slog.LevelDebug)
			} else {
				InitLogger(slog.LevelInfo)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			pp.Println(cfg)
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	WM, err := wm.Create(cfg)
	if err != nil {
		if errors.Is(err, wm.ErrAnotherWM) {
			slog.Error("other window manager running on display")
		} else {
			slog.Error("Couldn't initialise window manager", "error", err)
		}
		return err
	}
	defer WM.Close()

	return WM.Run()
}

func InitLogger(level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	})))
}
