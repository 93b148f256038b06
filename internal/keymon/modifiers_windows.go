//go:build windows

package keymon

import (
	"golang.design/x/hotkey"

	"github.com/narennaik/convey/internal/config"
)

// modifierMap maps config.Modifier -> hotkey.Modifier for Windows.
var modifierMap = map[config.Modifier]hotkey.Modifier{
	config.ModCtrl:  hotkey.ModCtrl,
	config.ModShift: hotkey.ModShift,
	config.ModAlt:   hotkey.ModAlt,
	config.ModSuper: hotkey.ModWin,
}
