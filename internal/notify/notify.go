// Package notify sends system notifications and sound cues.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
)

const appName = "Convey"

// Notifier sends system notifications. Notification failures are ignored,
// they are never worth failing a dictation cycle over.
type Notifier struct {
	mu      sync.Mutex
	enabled bool
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()
}

// Recording announces that recording has started.
func (n *Notifier) Recording() {
	n.notify("Recording", "Release the key to transcribe")
	n.beep(880)
}

// Processing announces that transcription is running.
func (n *Notifier) Processing() {
	n.beep(440)
}

// Success announces a completed transcription.
func (n *Notifier) Success(text string) {
	if len(text) > 100 {
		text = text[:100] + "..."
	}
	n.notify("Done", text)
}

// Error announces a failed cycle.
func (n *Notifier) Error(msg string) {
	n.notify("Error", msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.isEnabled() {
		return
	}
	_ = beeep.Notify(appName+": "+title, message, "")
}

func (n *Notifier) beep(freq float64) {
	if !n.isEnabled() {
		return
	}
	_ = beeep.Beep(freq, 150)
}

func (n *Notifier) isEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}
