// Package keymon turns the global push-to-talk hotkey into an event stream.
//
// The OS delivers hotkey callbacks on its own terms: auto-repeat while the
// key is held produces a burst of key-down callbacks, and installation of
// the hook is process-global. This package narrows all of that to a single
// consumer-side channel of deduplicated Down/Up events.
package keymon

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"github.com/narennaik/convey/internal/config"
)

// Kind identifies a key event.
type Kind int

const (
	// KeyDown is emitted once when the key goes down, repeats suppressed.
	KeyDown Kind = iota
	// KeyUp is emitted when the key is released.
	KeyUp
	// Unavailable is a terminal event: the OS hook could not be installed
	// (typically a missing accessibility permission). No further events
	// follow and the channel is closed.
	Unavailable
)

// Event is one key transition.
type Event struct {
	Kind Kind
	Time time.Time
}

// ErrAlreadyInstalled is returned when a second Source is registered; the
// underlying hook is process-global so only one may exist.
var ErrAlreadyInstalled = errors.New("keymon: hook already installed in this process")

var (
	installMu sync.Mutex
	installed bool
)

// Source emits key events for the registered binding.
type Source struct {
	mu     sync.Mutex
	hk     *hotkey.Hotkey
	events chan Event
	stopCh chan struct{}
	closed bool
}

// New creates an unregistered Source.
func New() *Source {
	return &Source{
		events: make(chan Event, 16),
	}
}

// Register installs the hook for the given binding. On failure it emits a
// terminal Unavailable event and closes the event channel; retrying without
// fixing permissions is pointless, so callers should surface the failure
// instead. Re-registering with a new binding replaces the old one.
func (s *Source) Register(cfg config.HotkeyConfig) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("keymon: source is closed")
	}
	rebinding := s.hk != nil
	s.mu.Unlock()

	if !rebinding {
		installMu.Lock()
		if installed {
			installMu.Unlock()
			return ErrAlreadyInstalled
		}
		installed = true
		installMu.Unlock()
	}

	s.unbind()

	mods := make([]hotkey.Modifier, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		if mod, ok := modifierMap[m]; ok {
			mods = append(mods, mod)
		}
	}
	key, ok := keyMap[cfg.Key]
	if !ok {
		key = hotkey.KeySpace // fallback
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		log.Error().Err(err).Str("hotkey", cfg.String()).Msg("hotkey registration failed")
		s.terminate()
		return err
	}

	stopCh := make(chan struct{})
	s.mu.Lock()
	s.hk = hk
	s.stopCh = stopCh
	s.mu.Unlock()

	log.Info().Str("hotkey", cfg.String()).Msg("hotkey registered")
	go s.listen(hk, stopCh)
	return nil
}

// Events returns the event channel. It is closed after Unavailable or Close.
func (s *Source) Events() <-chan Event {
	return s.events
}

// listen pumps hotkey callbacks into the event channel. A held flag, reset
// only on key-up, collapses the auto-repeat burst into a single KeyDown.
func (s *Source) listen(hk *hotkey.Hotkey, stopCh chan struct{}) {
	var d deduper
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			if d.admit(KeyDown) {
				s.emit(Event{Kind: KeyDown, Time: time.Now()})
			}
		case _, ok := <-hk.Keyup():
			if !ok {
				return
			}
			if d.admit(KeyUp) {
				s.emit(Event{Kind: KeyUp, Time: time.Now()})
			}
		}
	}
}

func (s *Source) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		// Consumer fell behind; dropping is safer than blocking the
		// hook goroutine.
		log.Warn().Int("kind", int(ev.Kind)).Msg("key event dropped")
	}
}

// unbind stops the listener and unregisters the current hotkey, if any.
func (s *Source) unbind() {
	s.mu.Lock()
	stopCh := s.stopCh
	hk := s.hk
	s.stopCh = nil
	s.hk = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	if hk == nil {
		return
	}

	// Unregister can wedge if the platform event loop is gone; don't let
	// that hang a rebind.
	done := make(chan struct{})
	go func() {
		hk.Unregister()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		log.Warn().Msg("hotkey unregister timed out")
	}
}

// terminate emits the terminal Unavailable event and closes the channel.
func (s *Source) terminate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.events <- Event{Kind: Unavailable, Time: time.Now()}
	close(s.events)
}

// Close unregisters the hook and closes the event channel.
func (s *Source) Close() {
	s.unbind()

	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !alreadyClosed {
		close(s.events)
	}

	installMu.Lock()
	installed = false
	installMu.Unlock()
}

// deduper collapses OS key-repeat into single Down/Up transitions.
type deduper struct {
	down bool
}

// admit reports whether the event represents a real transition.
func (d *deduper) admit(k Kind) bool {
	switch k {
	case KeyDown:
		if d.down {
			return false
		}
		d.down = true
		return true
	case KeyUp:
		if !d.down {
			return false
		}
		d.down = false
		return true
	}
	return true
}

// RunOnMainThread pins fn to the main OS thread, required for hotkey and
// tray event loops on macOS.
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// keyMap maps config.Key -> hotkey.Key.
var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace:  hotkey.KeySpace,
	config.KeyReturn: hotkey.KeyReturn,
	config.KeyTab:    hotkey.KeyTab,
	config.KeyA:      hotkey.KeyA,
	config.KeyB:      hotkey.KeyB,
	config.KeyC:      hotkey.KeyC,
	config.KeyD:      hotkey.KeyD,
	config.KeyE:      hotkey.KeyE,
	config.KeyF:      hotkey.KeyF,
	config.KeyG:      hotkey.KeyG,
	config.KeyH:      hotkey.KeyH,
	config.KeyI:      hotkey.KeyI,
	config.KeyJ:      hotkey.KeyJ,
	config.KeyK:      hotkey.KeyK,
	config.KeyL:      hotkey.KeyL,
	config.KeyM:      hotkey.KeyM,
	config.KeyN:      hotkey.KeyN,
	config.KeyO:      hotkey.KeyO,
	config.KeyP:      hotkey.KeyP,
	config.KeyQ:      hotkey.KeyQ,
	config.KeyR:      hotkey.KeyR,
	config.KeyS:      hotkey.KeyS,
	config.KeyT:      hotkey.KeyT,
	config.KeyU:      hotkey.KeyU,
	config.KeyV:      hotkey.KeyV,
	config.KeyW:      hotkey.KeyW,
	config.KeyX:      hotkey.KeyX,
	config.KeyY:      hotkey.KeyY,
	config.KeyZ:      hotkey.KeyZ,
	config.KeyF1:     hotkey.KeyF1,
	config.KeyF2:     hotkey.KeyF2,
	config.KeyF3:     hotkey.KeyF3,
	config.KeyF4:     hotkey.KeyF4,
	config.KeyF5:     hotkey.KeyF5,
	config.KeyF6:     hotkey.KeyF6,
	config.KeyF7:     hotkey.KeyF7,
	config.KeyF8:     hotkey.KeyF8,
	config.KeyF9:     hotkey.KeyF9,
	config.KeyF10:    hotkey.KeyF10,
	config.KeyF11:    hotkey.KeyF11,
	config.KeyF12:    hotkey.KeyF12,
}
