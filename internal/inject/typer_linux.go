//go:build linux

package inject

import (
	"os"
	"os/exec"
)

type linuxTyper struct {
	useWayland bool
}

func newTyper() (Typer, error) {
	return &linuxTyper{
		useWayland: os.Getenv("WAYLAND_DISPLAY") != "",
	}, nil
}

func (t *linuxTyper) Type(text string) error {
	if t.useWayland {
		return exec.Command("wtype", text).Run()
	}
	return exec.Command("xdotool", "type", "--clearmodifiers", "--", text).Run()
}

func (t *linuxTyper) TapEnter() error {
	if t.useWayland {
		return exec.Command("wtype", "-k", "Return").Run()
	}
	return exec.Command("xdotool", "key", "--clearmodifiers", "Return").Run()
}
