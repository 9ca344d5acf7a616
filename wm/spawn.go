package wm

import (
	"log/slog"
	"os/exec"
	"syscall"
)

// Spawner launches a program. It never reports back to the event loop.
type Spawner func(argv []string)

// Spawn starts argv in its own session and reaps it when it exits.
func Spawn(argv []string) {
	if len(argv) == 0 {
		return
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		slog.Error("couldn't run program", "program", argv[0], "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Debug("program exited", "program", argv[0], "error", err)
		}
	}()
}
