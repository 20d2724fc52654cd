package skills

import (
	"fmt"
	log "log/slog"
	"os/exec"
)

// Launcher starts programs and opens URLs on the desktop.
type Launcher interface {
	OpenURL(url string) error
	Start(command string) error
	Available(command string) bool
}

// XDG launches through xdg-open and PATH lookups.
type XDG struct{}

func (XDG) OpenURL(url string) error {
	return detach(exec.Command("xdg-open", url))
}

func (XDG) Start(command string) error {
	return detach(exec.Command(command))
}

func (XDG) Available(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

// detach starts cmd without waiting; the child is reaped in the background.
func detach(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("Launched process exited", "cmd", cmd.Path, "err", err)
		}
	}()
	return nil
}
