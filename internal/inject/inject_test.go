package inject

import (
	"errors"
	"testing"

	"github.com/narennaik/convey/internal/config"
)

func TestDetectEnterCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		want       string
		pressEnter bool
	}{
		{"plain phrase", "hello world and press enter", "hello world", true},
		{"then variant", "send it then press enter", "send it", true},
		{"hit return variant", "ok and hit return", "ok", true},
		{"trailing period", "hello world and press enter.", "hello world", true},
		{"trailing punctuation pile", "hello and press enter!?,; ", "hello", true},
		{"mixed case", "Hello World AND PRESS ENTER", "Hello World", true},
		{"misrecognition present", "submit and present enter", "submit", true},
		{"misrecognition president", "submit and president enter", "submit", true},
		{"no command", "hello world", "hello world", false},
		{"phrase inside a word", "grand press enter", "grand press enter", false},
		{"phrase mid-sentence", "press enter and continue typing", "press enter and continue typing", false},
		{"bare enter without and-then", "press enter", "press enter", false},
		{"command only", "and press enter", "", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, pressEnter := DetectEnterCommand(tt.text)
			if got != tt.want || pressEnter != tt.pressEnter {
				t.Errorf("DetectEnterCommand(%q) = (%q, %v), want (%q, %v)",
					tt.text, got, pressEnter, tt.want, tt.pressEnter)
			}
		})
	}
}

type fakeTyper struct {
	typed     []string
	enterTaps int
	typeErr   error
	enterErr  error
}

func (f *fakeTyper) Type(text string) error {
	if f.typeErr != nil {
		return f.typeErr
	}
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeTyper) TapEnter() error {
	if f.enterErr != nil {
		return f.enterErr
	}
	f.enterTaps++
	return nil
}

func TestInjectTypesCleanedTextAndEnter(t *testing.T) {
	t.Parallel()

	typer := &fakeTyper{}
	inj := NewWithTyper(typer)

	err := inj.Inject("hello world and press enter", config.Output{AutoPaste: true, EnterDetection: true})
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	if len(typer.typed) != 1 || typer.typed[0] != "hello world" {
		t.Errorf("typed %v, want [hello world]", typer.typed)
	}
	if typer.enterTaps != 1 {
		t.Errorf("enter taps: got %d, want 1", typer.enterTaps)
	}
}

func TestInjectDetectionDisabledTypesVerbatim(t *testing.T) {
	t.Parallel()

	typer := &fakeTyper{}
	inj := NewWithTyper(typer)

	err := inj.Inject("hello world and press enter", config.Output{AutoPaste: true, EnterDetection: false})
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	if len(typer.typed) != 1 || typer.typed[0] != "hello world and press enter" {
		t.Errorf("typed %v, want the full original text", typer.typed)
	}
	if typer.enterTaps != 0 {
		t.Errorf("enter taps: got %d, want 0", typer.enterTaps)
	}
}

func TestInjectAutoPasteDisabledEmitsNothing(t *testing.T) {
	t.Parallel()

	typer := &fakeTyper{}
	inj := NewWithTyper(typer)

	err := inj.Inject("hello world and press enter", config.Output{AutoPaste: false, EnterDetection: true})
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	if len(typer.typed) != 0 || typer.enterTaps != 0 {
		t.Errorf("expected no keystrokes, got typed=%v taps=%d", typer.typed, typer.enterTaps)
	}
}

func TestInjectCommandOnlyTapsEnterWithoutTyping(t *testing.T) {
	t.Parallel()

	typer := &fakeTyper{}
	inj := NewWithTyper(typer)

	err := inj.Inject("and press enter", config.Output{AutoPaste: true, EnterDetection: true})
	if err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	if len(typer.typed) != 0 {
		t.Errorf("typed %v, want nothing", typer.typed)
	}
	if typer.enterTaps != 1 {
		t.Errorf("enter taps: got %d, want 1", typer.enterTaps)
	}
}

func TestInjectTyperFailure(t *testing.T) {
	t.Parallel()

	typer := &fakeTyper{typeErr: errors.New("permission revoked")}
	inj := NewWithTyper(typer)

	err := inj.Inject("hello", config.Output{AutoPaste: true})
	if err == nil {
		t.Fatal("expected error from failing typer")
	}
}
