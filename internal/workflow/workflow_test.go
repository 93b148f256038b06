package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/narennaik/convey/internal/audio"
	"github.com/narennaik/convey/internal/config"
	"github.com/narennaik/convey/internal/keymon"
	"github.com/narennaik/convey/internal/transcribe"
)

type fakeRecorder struct {
	mu       sync.Mutex
	starts   int
	stops    int
	startErr error
	stopErr  error
	samples  []float32
}

func (f *fakeRecorder) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeRecorder) Stop() ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return f.samples, nil
}

type transcribeResult struct {
	text string
	err  error
}

type transcribeCall struct {
	ctx  context.Context
	done chan transcribeResult
}

// fakeTranscriber hands each call to the test, which decides when and how
// it completes. Completion is independent of cancellation, so stale
// results can be delivered after a supersede.
type fakeTranscriber struct {
	calls chan transcribeCall
}

func newFakeTranscriber() *fakeTranscriber {
	return &fakeTranscriber{calls: make(chan transcribeCall, 4)}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []float32) (string, error) {
	call := transcribeCall{ctx: ctx, done: make(chan transcribeResult, 1)}
	f.calls <- call
	r := <-call.done
	return r.text, r.err
}

func (f *fakeTranscriber) next(t *testing.T) transcribeCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a transcription call")
		return transcribeCall{}
	}
}

type fakeInjector struct {
	mu       sync.Mutex
	injected []string
	err      error
}

func (f *fakeInjector) Inject(text string, out config.Output) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.injected = append(f.injected, text)
	return nil
}

func (f *fakeInjector) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.injected...)
}

type fakeHistory struct {
	mu       sync.Mutex
	appended []string
}

func (f *fakeHistory) Append(text string, completedAt time.Time, duration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, text)
	return nil
}

func (f *fakeHistory) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.appended...)
}

type fakeSettings struct {
	mu  sync.Mutex
	out config.Output
}

func (f *fakeSettings) Output() config.Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out
}

func (f *fakeSettings) set(out config.Output) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = out
}

type fakeSink struct{ ch chan Snapshot }

func (f *fakeSink) Publish(s Snapshot) { f.ch <- s }

// wait consumes published snapshots until one matches the wanted state.
func (f *fakeSink) wait(t *testing.T, want State) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-f.ch:
			if snap.State == want {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

type harness struct {
	keys     chan keymon.Event
	rec      *fakeRecorder
	tr       *fakeTranscriber
	inj      *fakeInjector
	hist     *fakeHistory
	settings *fakeSettings
	sink     *fakeSink
	orch     *Orchestrator
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		keys:     make(chan keymon.Event, 16),
		rec:      &fakeRecorder{samples: make([]float32, audio.SampleRate)},
		tr:       newFakeTranscriber(),
		inj:      &fakeInjector{},
		hist:     &fakeHistory{},
		settings: &fakeSettings{out: config.Output{AutoPaste: true, EnterDetection: true}},
		sink:     &fakeSink{ch: make(chan Snapshot, 64)},
	}
	h.orch = New(Deps{
		Keys:        h.keys,
		Recorder:    h.rec,
		Transcriber: h.tr,
		Injector:    h.inj,
		History:     h.hist,
		Settings:    h.settings,
		Sink:        h.sink,
	}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.orch.Run(ctx)
	return h
}

func (h *harness) press()   { h.keys <- keymon.Event{Kind: keymon.KeyDown, Time: time.Now()} }
func (h *harness) release() { h.keys <- keymon.Event{Kind: keymon.KeyUp, Time: time.Now()} }

func TestSuccessfulCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	h.sink.wait(t, StateTranscribing)

	call := h.tr.next(t)
	call.done <- transcribeResult{text: "hello world"}

	snap := h.sink.wait(t, StateInjecting)
	if snap.Text != "hello world" {
		t.Errorf("injecting snapshot text: got %q, want %q", snap.Text, "hello world")
	}
	h.sink.wait(t, StateIdle)

	if got := h.inj.texts(); len(got) != 1 || got[0] != "hello world" {
		t.Errorf("injected %v, want [hello world]", got)
	}
	if got := h.hist.texts(); len(got) != 1 || got[0] != "hello world" {
		t.Errorf("history %v, want [hello world]", got)
	}
}

func TestTooShortReturnsToIdleSilently(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{})
	h.rec.stopErr = audio.ErrTooShort

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	h.sink.wait(t, StateIdle)

	if got := h.orch.Snapshot(); got.Failure != FailureNone {
		t.Errorf("unexpected failure %q after short recording", got.Failure)
	}
	if len(h.hist.texts()) != 0 {
		t.Error("short recording must not reach history")
	}
}

func TestSupersedeDiscardsStaleResult(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	h.sink.wait(t, StateTranscribing)
	stale := h.tr.next(t)

	// New press while the first transcription is in flight.
	h.press()
	h.sink.wait(t, StateRecording)

	select {
	case <-stale.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("superseded transcription was not cancelled")
	}

	// The stale cycle completes successfully anyway. Nothing may come of it.
	stale.done <- transcribeResult{text: "stale text"}

	h.release()
	h.sink.wait(t, StateTranscribing)
	fresh := h.tr.next(t)
	fresh.done <- transcribeResult{text: "fresh text"}
	h.sink.wait(t, StateIdle)

	if got := h.inj.texts(); len(got) != 1 || got[0] != "fresh text" {
		t.Errorf("injected %v, want only the fresh text", got)
	}
	if got := h.hist.texts(); len(got) != 1 || got[0] != "fresh text" {
		t.Errorf("history %v, want only the fresh text", got)
	}
}

func TestTimeoutFailsThenClears(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: 30 * time.Millisecond})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	call := h.tr.next(t)
	call.done <- transcribeResult{err: transcribe.ErrTimeout}

	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureTimeout {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureTimeout)
	}

	// Auto-clears without further input.
	h.sink.wait(t, StateIdle)

	if len(h.hist.texts()) != 0 || len(h.inj.texts()) != 0 {
		t.Error("failed cycle must not inject or reach history")
	}
}

func TestProcessErrorCarriesStderr(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: time.Minute})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	call := h.tr.next(t)
	call.done <- transcribeResult{err: &transcribe.ProcessError{ExitCode: 3, Stderr: "model load failed"}}

	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureProcess {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureProcess)
	}
}

func TestAutoPasteDisabledStillAppendsHistory(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{})
	h.settings.set(config.Output{AutoPaste: false})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	call := h.tr.next(t)
	call.done <- transcribeResult{text: "kept for later"}
	h.sink.wait(t, StateIdle)

	if got := h.hist.texts(); len(got) != 1 || got[0] != "kept for later" {
		t.Errorf("history %v, want [kept for later]", got)
	}
}

func TestInjectionFailureKeepsHistory(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: time.Minute})
	h.inj.err = errors.New("typing blocked")

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	call := h.tr.next(t)
	call.done <- transcribeResult{text: "precious words"}

	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureInjection {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureInjection)
	}
	if got := h.hist.texts(); len(got) != 1 || got[0] != "precious words" {
		t.Errorf("history %v, want the text despite injection failure", got)
	}
}

func TestDeviceFailureOnStop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: time.Minute})
	h.rec.stopErr = audio.ErrDeviceFailure

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()

	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureDevice {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureDevice)
	}
}

func TestStartFailureReportsDevice(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: time.Minute})
	h.rec.startErr = errors.New("no input device")

	h.press()
	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureDevice {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureDevice)
	}
}

func TestPermissionFailureIsSticky(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: 20 * time.Millisecond})

	h.keys <- keymon.Event{Kind: keymon.Unavailable, Time: time.Now()}
	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailurePermission {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailurePermission)
	}

	// Well past the display interval and still failed.
	time.Sleep(100 * time.Millisecond)
	if got := h.orch.Snapshot(); got.State != StateFailed || got.Failure != FailurePermission {
		t.Errorf("permission failure cleared itself: %+v", got)
	}
}

func TestEngineNotFoundIsStickyUntilNextPress(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: 20 * time.Millisecond})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	h.tr.next(t).done <- transcribeResult{err: transcribe.ErrEngineNotFound}

	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureEngineNotFound {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureEngineNotFound)
	}

	time.Sleep(100 * time.Millisecond)
	if got := h.orch.Snapshot(); got.State != StateFailed {
		t.Errorf("missing-engine failure cleared itself: %+v", got)
	}

	// A new press retries normally, the engine may have been installed.
	h.press()
	h.sink.wait(t, StateRecording)
}

func TestKeyDownWhileRecordingIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{})

	h.press()
	h.sink.wait(t, StateRecording)
	h.press()
	h.release()
	h.sink.wait(t, StateTranscribing)

	h.rec.mu.Lock()
	starts := h.rec.starts
	h.rec.mu.Unlock()
	if starts != 1 {
		t.Errorf("recorder started %d times, want 1", starts)
	}
	h.tr.next(t).done <- transcribeResult{text: "x"}
}

func TestTriggerMatchesKeySemantics(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{})

	h.orch.Trigger(keymon.KeyDown)
	h.sink.wait(t, StateRecording)
	h.orch.Trigger(keymon.KeyUp)
	h.sink.wait(t, StateTranscribing)

	h.tr.next(t).done <- transcribeResult{text: "via tray"}
	h.sink.wait(t, StateIdle)

	if got := h.inj.texts(); len(got) != 1 || got[0] != "via tray" {
		t.Errorf("injected %v, want [via tray]", got)
	}
}

func TestEmptyOutputFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Options{FailedDisplay: time.Minute})

	h.press()
	h.sink.wait(t, StateRecording)
	h.release()
	call := h.tr.next(t)
	call.done <- transcribeResult{err: transcribe.ErrEmptyOutput}

	snap := h.sink.wait(t, StateFailed)
	if snap.Failure != FailureEmptyOutput {
		t.Errorf("failure kind: got %q, want %q", snap.Failure, FailureEmptyOutput)
	}
	if len(h.hist.texts()) != 0 {
		t.Error("empty output must not reach history")
	}
}
