// Package config provides application settings persisted to a JSON file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Modifier represents a hotkey modifier.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key represents a hotkey key.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyA      Key = "a"
	KeyB      Key = "b"
	KeyC      Key = "c"
	KeyD      Key = "d"
	KeyE      Key = "e"
	KeyF      Key = "f"
	KeyG      Key = "g"
	KeyH      Key = "h"
	KeyI      Key = "i"
	KeyJ      Key = "j"
	KeyK      Key = "k"
	KeyL      Key = "l"
	KeyM      Key = "m"
	KeyN      Key = "n"
	KeyO      Key = "o"
	KeyP      Key = "p"
	KeyQ      Key = "q"
	KeyR      Key = "r"
	KeyS      Key = "s"
	KeyT      Key = "t"
	KeyU      Key = "u"
	KeyV      Key = "v"
	KeyW      Key = "w"
	KeyX      Key = "x"
	KeyY      Key = "y"
	KeyZ      Key = "z"
	KeyF1     Key = "f1"
	KeyF2     Key = "f2"
	KeyF3     Key = "f3"
	KeyF4     Key = "f4"
	KeyF5     Key = "f5"
	KeyF6     Key = "f6"
	KeyF7     Key = "f7"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// HotkeyConfig holds the push-to-talk key binding.
type HotkeyConfig struct {
	Modifiers []Modifier `json:"modifiers"`
	Key       Key        `json:"key"`
}

// String returns a human-readable representation of the binding.
func (h HotkeyConfig) String() string {
	result := ""
	for _, m := range h.Modifiers {
		if result != "" {
			result += "+"
		}
		result += string(m)
	}
	if result != "" {
		result += "+"
	}
	result += string(h.Key)
	return result
}

// Output holds the settings the output stage reads once per cycle.
type Output struct {
	// AutoPaste controls whether recognized text is typed into the focused
	// window. When false the text only goes to history.
	AutoPaste bool
	// EnterDetection controls recognition of a trailing "and press enter"
	// voice command.
	EnterDetection bool
}

// configData is the serialized form.
type configData struct {
	Language          string       `json:"language"`
	AutoPaste         bool         `json:"auto_paste"`
	EnterDetection    bool         `json:"enter_detection"`
	Notifications     bool         `json:"notifications"`
	Hotkey            HotkeyConfig `json:"hotkey"`
	ModelPath         string       `json:"model_path,omitempty"`
	WhisperCLIPath    string       `json:"whisper_cli_path,omitempty"`
	TranscribeTimeout int          `json:"transcribe_timeout_seconds,omitempty"`
}

// Config holds the application settings.
type Config struct {
	mu                sync.RWMutex
	language          string
	autoPaste         bool
	enterDetection    bool
	notifications     bool
	hotkey            HotkeyConfig
	modelPath         string
	whisperCLIPath    string
	transcribeTimeout time.Duration
	configPath        string
}

// DefaultTranscribeTimeout is the ceiling on a single engine invocation.
const DefaultTranscribeTimeout = 30 * time.Second

// New creates a Config, loading from the user config dir or falling back to
// defaults.
func New() *Config {
	path := ""
	if dir, err := os.UserConfigDir(); err == nil {
		path = filepath.Join(dir, "convey", "config.json")
	}
	return NewAt(path)
}

// NewAt creates a Config backed by an explicit file path.
func NewAt(path string) *Config {
	c := &Config{
		language:       "auto",
		autoPaste:      true,
		enterDetection: true,
		notifications:  true,
		hotkey: HotkeyConfig{
			Modifiers: []Modifier{ModCtrl, ModShift},
			Key:       KeySpace,
		},
		transcribeTimeout: DefaultTranscribeTimeout,
		configPath:        path,
	}
	c.load()
	return c
}

func (c *Config) load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return // no file yet, keep defaults
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return
	}

	if cfg.Language != "" {
		c.language = cfg.Language
	}
	c.autoPaste = cfg.AutoPaste
	c.enterDetection = cfg.EnterDetection
	c.notifications = cfg.Notifications
	if cfg.Hotkey.Key != "" {
		c.hotkey = cfg.Hotkey
	}
	c.modelPath = cfg.ModelPath
	c.whisperCLIPath = cfg.WhisperCLIPath
	if cfg.TranscribeTimeout > 0 {
		c.transcribeTimeout = time.Duration(cfg.TranscribeTimeout) * time.Second
	}
}

// save persists the settings. Callers hold c.mu.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	cfg := configData{
		Language:          c.language,
		AutoPaste:         c.autoPaste,
		EnterDetection:    c.enterDetection,
		Notifications:     c.notifications,
		Hotkey:            c.hotkey,
		ModelPath:         c.modelPath,
		WhisperCLIPath:    c.whisperCLIPath,
		TranscribeTimeout: int(c.transcribeTimeout / time.Second),
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}

	_ = os.MkdirAll(filepath.Dir(c.configPath), 0o755)
	_ = os.WriteFile(c.configPath, data, 0o644)
}

// Output returns the output-stage settings as one consistent snapshot.
func (c *Config) Output() Output {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Output{AutoPaste: c.autoPaste, EnterDetection: c.enterDetection}
}

// SetAutoPaste enables or disables typing into the focused window.
func (c *Config) SetAutoPaste(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoPaste = enabled
	c.save()
}

// AutoPaste reports whether auto-paste is enabled.
func (c *Config) AutoPaste() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autoPaste
}

// ToggleAutoPaste flips auto-paste and returns the new value.
func (c *Config) ToggleAutoPaste() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoPaste = !c.autoPaste
	c.save()
	return c.autoPaste
}

// SetEnterDetection enables or disables the trailing enter-command.
func (c *Config) SetEnterDetection(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enterDetection = enabled
	c.save()
}

// EnterDetection reports whether enter-command detection is enabled.
func (c *Config) EnterDetection() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enterDetection
}

// ToggleEnterDetection flips enter-command detection and returns the new value.
func (c *Config) ToggleEnterDetection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enterDetection = !c.enterDetection
	c.save()
	return c.enterDetection
}

// SetNotifications enables or disables notifications.
func (c *Config) SetNotifications(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = enabled
	c.save()
}

// ToggleNotifications flips notifications and returns the new value.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = !c.notifications
	c.save()
	return c.notifications
}

// NotificationsEnabled reports whether notifications are enabled.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifications
}

// Language returns the recognition language ("auto" for auto-detect).
func (c *Config) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// SetLanguage sets the recognition language.
func (c *Config) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = lang
	c.save()
}

// Hotkey returns the push-to-talk binding.
func (c *Config) Hotkey() HotkeyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hotkey
}

// SetHotkey sets the push-to-talk binding.
func (c *Config) SetHotkey(hk HotkeyConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hotkey = hk
	c.save()
}

// ModelPath returns the configured whisper model path, empty for auto-detect.
func (c *Config) ModelPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelPath
}

// SetModelPath sets the whisper model path.
func (c *Config) SetModelPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelPath = path
	c.save()
}

// WhisperCLIPath returns the configured whisper-cli override, empty to search.
func (c *Config) WhisperCLIPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.whisperCLIPath
}

// SetWhisperCLIPath sets the whisper-cli override.
func (c *Config) SetWhisperCLIPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.whisperCLIPath = path
	c.save()
}

// TranscribeTimeout returns the engine invocation ceiling.
func (c *Config) TranscribeTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transcribeTimeout
}

// AvailableModifiers returns the supported modifiers.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys returns the supported keys.
func AvailableKeys() []Key {
	return []Key{
		KeySpace, KeyReturn, KeyTab,
		KeyA, KeyB, KeyC, KeyD, KeyE, KeyF, KeyG, KeyH, KeyI, KeyJ, KeyK, KeyL, KeyM,
		KeyN, KeyO, KeyP, KeyQ, KeyR, KeyS, KeyT, KeyU, KeyV, KeyW, KeyX, KeyY, KeyZ,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
}
