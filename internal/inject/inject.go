// Package inject emits recognized text as synthetic keystrokes into the
// focused application.
package inject

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/narennaik/convey/internal/config"
)

// Typer emits synthetic keystrokes. Implementations are platform-specific.
type Typer interface {
	// Type emits the text, character by character, into the focused field.
	Type(text string) error
	// TapEnter emits a single Enter keystroke.
	TapEnter() error
}

// Injector performs enter-command detection and keystroke emission.
type Injector struct {
	typer Typer
}

// New creates an Injector with the platform Typer.
func New() (*Injector, error) {
	typer, err := newTyper()
	if err != nil {
		return nil, err
	}
	return &Injector{typer: typer}, nil
}

// NewWithTyper creates an Injector around an explicit Typer.
func NewWithTyper(typer Typer) *Injector {
	return &Injector{typer: typer}
}

// Inject types the text into the focused application. With enter detection
// enabled, a trailing "and press enter" command is stripped from the typed
// text and followed by an Enter keystroke. When auto-paste is disabled
// nothing is emitted at all.
func (i *Injector) Inject(text string, out config.Output) error {
	if !out.AutoPaste {
		log.Debug().Msg("auto-paste disabled, skipping injection")
		return nil
	}

	toType := text
	pressEnter := false
	if out.EnterDetection {
		toType, pressEnter = DetectEnterCommand(text)
		if pressEnter {
			log.Info().Str("cleaned", toType).Msg("enter command detected")
		}
	}

	if toType != "" {
		if err := i.typer.Type(toType); err != nil {
			return fmt.Errorf("inject: type text: %w", err)
		}
	}
	if pressEnter {
		if err := i.typer.TapEnter(); err != nil {
			return fmt.Errorf("inject: press enter: %w", err)
		}
	}

	return nil
}
