// Package dialog provides GUI dialogs for configuration and setup help.
package dialog

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/narennaik/convey/internal/config"
)

// SelectHotkey opens a two-step hotkey picker. It returns the chosen
// binding, or the current one with an error if the user cancelled.
func SelectHotkey(current config.HotkeyConfig) (config.HotkeyConfig, error) {
	modOptions := []string{"Ctrl", "Shift", "Alt", "Super (Win/Cmd)"}
	modValues := config.AvailableModifiers()

	currentMods := make([]string, 0, len(current.Modifiers))
	for _, m := range current.Modifiers {
		for i, v := range modValues {
			if m == v {
				currentMods = append(currentMods, modOptions[i])
			}
		}
	}

	selectedMods, err := zenity.ListMultiple(
		"Select modifiers:",
		modOptions,
		zenity.Title("Hotkey - Modifiers"),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err
	}
	if len(selectedMods) == 0 {
		return current, fmt.Errorf("at least one modifier is required")
	}

	newMods := make([]config.Modifier, 0, len(selectedMods))
	for _, s := range selectedMods {
		for i, opt := range modOptions {
			if s == opt {
				newMods = append(newMods, modValues[i])
				break
			}
		}
	}

	keyValues := config.AvailableKeys()
	keyOptions := make([]string, len(keyValues))
	for i, k := range keyValues {
		keyOptions[i] = keyLabel(k)
	}

	selectedKey, err := zenity.List(
		"Select key:",
		keyOptions,
		zenity.Title("Hotkey - Key"),
		zenity.DefaultItems(keyLabel(current.Key)),
	)
	if err != nil {
		return current, err
	}

	newKey := current.Key
	for i, opt := range keyOptions {
		if selectedKey == opt {
			newKey = keyValues[i]
			break
		}
	}

	return config.HotkeyConfig{Modifiers: newMods, Key: newKey}, nil
}

func keyLabel(k config.Key) string {
	switch k {
	case config.KeySpace:
		return "Space"
	case config.KeyReturn:
		return "Return"
	case config.KeyTab:
		return "Tab"
	}
	return strings.ToUpper(string(k))
}

// ShowEngineMissing explains how to install the transcription engine.
func ShowEngineMissing() {
	var hint string
	switch runtime.GOOS {
	case "darwin":
		hint = "Install it with:\n\n    brew install whisper-cpp"
	case "linux":
		hint = "Build whisper.cpp from source or install the whisper-cpp package for your distribution."
	default:
		hint = "Download whisper.cpp from github.com/ggerganov/whisper.cpp and put whisper-cli on your PATH."
	}
	zenity.Error(
		"whisper-cli was not found.\n\n"+hint+
			"\n\nYou can also set an explicit path in the config file.",
		zenity.Title("Convey: transcription engine missing"),
	)
}

// ShowPermissionHelp explains how to grant input monitoring permission.
func ShowPermissionHelp() {
	var hint string
	switch runtime.GOOS {
	case "darwin":
		hint = "Open System Settings > Privacy & Security > Input Monitoring and enable Convey, then restart the app."
	case "linux":
		hint = "Make sure your user can access input devices (typically membership in the input group) and that a display server is running."
	default:
		hint = "Run the app with sufficient privileges to install a keyboard hook."
	}
	zenity.Error(
		"Convey cannot monitor the push-to-talk key.\n\n"+hint,
		zenity.Title("Convey: input permission required"),
	)
}

// ShowInfo shows an informational message.
func ShowInfo(title, message string) {
	zenity.Info(message, zenity.Title(title))
}

// ShowError shows an error message.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title))
}
