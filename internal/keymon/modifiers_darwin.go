//go:build darwin

package keymon

import (
	"golang.design/x/hotkey"

	"github.com/narennaik/convey/internal/config"
)

// modifierMap maps config.Modifier -> hotkey.Modifier for macOS.
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.ModOption,
	config.ModSuper: hotkey.ModCmd,
}
