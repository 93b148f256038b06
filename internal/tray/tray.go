// Package tray provides the system tray icon and menu.
package tray

import (
	"github.com/getlantern/systray"

	"github.com/narennaik/convey/embedded"
)

// State is the application state shown in the tray.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
	StateError
)

// Callbacks holds the menu event handlers.
type Callbacks struct {
	OnToggleRecording     func()
	OnAutoPasteToggle     func() bool
	OnEnterDetectToggle   func() bool
	OnNotificationsToggle func() bool
	OnHotkeyClick         func()
	OnQuit                func()
}

// Tray manages the tray icon and menu.
type Tray struct {
	callbacks Callbacks

	status      *systray.MenuItem
	recordBtn   *systray.MenuItem
	autoPaste   *systray.MenuItem
	enterDetect *systray.MenuItem
	notifyOn    *systray.MenuItem
	hotkeyBtn   *systray.MenuItem
	quitBtn     *systray.MenuItem

	initial struct {
		autoPaste      bool
		enterDetection bool
		notifications  bool
	}
}

// New creates a Tray. The initial checkbox states come from the current
// settings.
func New(callbacks Callbacks, autoPaste, enterDetection, notifications bool) *Tray {
	t := &Tray{callbacks: callbacks}
	t.initial.autoPaste = autoPaste
	t.initial.enterDetection = enterDetection
	t.initial.notifications = notifications
	return t
}

// Run starts the tray loop. Blocks until Quit.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(embedded.IconIdle)
	systray.SetTitle("Convey")
	systray.SetTooltip("Convey - hold the hotkey to dictate")

	t.status = systray.AddMenuItem("Ready", "")
	t.status.Disable()

	systray.AddSeparator()

	t.recordBtn = systray.AddMenuItem("Toggle recording", "Start or stop a dictation without the hotkey")

	systray.AddSeparator()

	t.autoPaste = systray.AddMenuItemCheckbox("Auto-paste", "Type recognized text into the focused window", t.initial.autoPaste)
	t.enterDetect = systray.AddMenuItemCheckbox("Detect \"press enter\"", "Tap Enter when dictation ends with the command", t.initial.enterDetection)
	t.notifyOn = systray.AddMenuItemCheckbox("Notifications", "Show system notifications", t.initial.notifications)
	t.hotkeyBtn = systray.AddMenuItem("Change hotkey...", "Pick a different push-to-talk key")

	systray.AddSeparator()

	t.quitBtn = systray.AddMenuItem("Quit", "Exit Convey")

	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.recordBtn.ClickedCh:
			if t.callbacks.OnToggleRecording != nil {
				t.callbacks.OnToggleRecording()
			}

		case <-t.autoPaste.ClickedCh:
			if t.callbacks.OnAutoPasteToggle != nil {
				setChecked(t.autoPaste, t.callbacks.OnAutoPasteToggle())
			}

		case <-t.enterDetect.ClickedCh:
			if t.callbacks.OnEnterDetectToggle != nil {
				setChecked(t.enterDetect, t.callbacks.OnEnterDetectToggle())
			}

		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				setChecked(t.notifyOn, t.callbacks.OnNotificationsToggle())
			}

		case <-t.hotkeyBtn.ClickedCh:
			if t.callbacks.OnHotkeyClick != nil {
				t.callbacks.OnHotkeyClick()
			}

		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
			systray.Quit()
		}
	}
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// SetState updates the icon, tooltip and status line.
func (t *Tray) SetState(state State, detail string) {
	var (
		icon  []byte
		label string
	)
	switch state {
	case StateIdle:
		icon, label = embedded.IconIdle, "Ready"
	case StateRecording:
		icon, label = embedded.IconRecording, "Recording..."
	case StateProcessing:
		icon, label = embedded.IconProcessing, "Transcribing..."
	case StateError:
		icon, label = embedded.IconError, "Error"
		if detail != "" {
			label = "Error: " + detail
		}
	}

	systray.SetIcon(icon)
	systray.SetTooltip("Convey - " + label)
	if t.status != nil {
		t.status.SetTitle(label)
	}
}

func (t *Tray) onExit() {}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}
