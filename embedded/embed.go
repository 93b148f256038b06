// Package embedded holds the application's embedded resources.
package embedded

import (
	_ "embed"
)

// IconIdle is the tray icon in the idle state (gray).
//
//go:embed icon_idle.png
var IconIdle []byte

// IconRecording is the tray icon while recording (red).
//
//go:embed icon_recording.png
var IconRecording []byte

// IconProcessing is the tray icon while transcribing (orange).
//
//go:embed icon_processing.png
var IconProcessing []byte

// IconError is the tray icon while a failure is displayed (dark red).
//
//go:embed icon_error.png
var IconError []byte
