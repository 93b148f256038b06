// Package workflow orchestrates the press-to-paste cycle.
//
// Three independently-paced collaborators meet here: the OS key hook
// (callback-driven), the real-time audio recorder, and the blocking
// transcription subprocess. The orchestrator serializes all of them through
// a single run loop, so every state transition happens on one goroutine and
// observers only ever see complete states.
//
// At most one cycle is live at a time. A key press while a previous cycle's
// transcription is still in flight supersedes it: the subprocess is
// cancelled and its eventual result, success or failure, is discarded by a
// generation check before it can reach history or the injector.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/narennaik/convey/internal/audio"
	"github.com/narennaik/convey/internal/config"
	"github.com/narennaik/convey/internal/keymon"
	"github.com/narennaik/convey/internal/transcribe"
)

// Recorder captures audio between Start and Stop.
type Recorder interface {
	Start() error
	// Stop returns the captured samples, audio.ErrTooShort for captures
	// below the minimum viable duration, or audio.ErrDeviceFailure.
	Stop() ([]float32, error)
}

// Transcriber converts a finite audio buffer to text. It blocks and must
// honor ctx cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Injector types recognized text into the focused application.
type Injector interface {
	Inject(text string, out config.Output) error
}

// History durably records completed transcriptions. Failures are logged but
// never fail the cycle.
type History interface {
	Append(text string, completedAt time.Time, duration time.Duration) error
}

// Settings supplies the output settings, read once per cycle.
type Settings interface {
	Output() config.Output
}

// Sink receives a snapshot on every state transition. Publish is called
// from the run loop and must not block.
type Sink interface {
	Publish(Snapshot)
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Keys        <-chan keymon.Event
	Recorder    Recorder
	Transcriber Transcriber
	Injector    Injector
	History     History
	Settings    Settings
	Sink        Sink
}

// Options tune orchestrator behavior.
type Options struct {
	// FailedDisplay is how long a transient failure stays visible before
	// auto-clearing to idle. Zero means the default.
	FailedDisplay time.Duration
}

// DefaultFailedDisplay is the default failure display interval.
const DefaultFailedDisplay = 4 * time.Second

// internal events delivered to the run loop.
type (
	keyEvent struct{ kind keymon.Kind }

	transcriptionDone struct {
		gen      uint64
		text     string
		took     time.Duration
		audioDur time.Duration
		err      error
	}

	failureExpired struct{ gen uint64 }
)

// Orchestrator owns the workflow state machine.
type Orchestrator struct {
	deps          Deps
	failedDisplay time.Duration

	// events merges manual triggers and async completions into the run
	// loop alongside the key channel.
	events chan any

	// Everything below is owned by the run loop.
	state          State
	session        uuid.UUID
	startedAt      time.Time
	gen            uint64
	cancelInflight context.CancelFunc

	snapshots chan Snapshot // guards the latest published snapshot
}

// New creates an Orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	if opts.FailedDisplay <= 0 {
		opts.FailedDisplay = DefaultFailedDisplay
	}
	o := &Orchestrator{
		deps:          deps,
		failedDisplay: opts.FailedDisplay,
		events:        make(chan any, 64),
		snapshots:     make(chan Snapshot, 1),
	}
	o.snapshots <- Snapshot{State: StateIdle}
	return o
}

// Run consumes events until ctx is cancelled. It must be called exactly
// once.
func (o *Orchestrator) Run(ctx context.Context) {
	keys := o.deps.Keys
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return
		case ev, ok := <-keys:
			if !ok {
				// Source terminated; Unavailable was delivered first.
				keys = nil
				continue
			}
			o.handleKey(ev.Kind)
		case ev := <-o.events:
			switch e := ev.(type) {
			case keyEvent:
				o.handleKey(e.kind)
			case transcriptionDone:
				o.handleDone(e)
			case failureExpired:
				o.handleFailureExpired(e)
			}
		}
	}
}

// Trigger feeds a synthetic key event, giving on-screen controls the same
// semantics as the physical key.
func (o *Orchestrator) Trigger(kind keymon.Kind) {
	o.post(keyEvent{kind: kind})
}

// Snapshot returns the most recently published state.
func (o *Orchestrator) Snapshot() Snapshot {
	snap := <-o.snapshots
	o.snapshots <- snap
	return snap
}

func (o *Orchestrator) post(ev any) {
	select {
	case o.events <- ev:
	default:
		// Run loop gone or badly backed up; stale completions and timer
		// ticks are safe to drop.
		log.Warn().Msg("workflow event dropped")
	}
}

func (o *Orchestrator) handleKey(kind keymon.Kind) {
	switch kind {
	case keymon.Unavailable:
		log.Error().Msg("key hook unavailable, check input monitoring permissions")
		o.fail(FailurePermission, "key monitoring unavailable: missing input permission")
	case keymon.KeyDown:
		o.handleKeyDown()
	case keymon.KeyUp:
		o.handleKeyUp()
	}
}

func (o *Orchestrator) handleKeyDown() {
	switch o.state {
	case StateIdle, StateFailed:
		o.startCycle()
	case StateTranscribing:
		// A new press supersedes the in-flight cycle. Its result will be
		// discarded by the generation check even if the process cannot
		// be killed promptly.
		log.Info().Uint64("gen", o.gen).Msg("cycle superseded by new key press")
		o.cancelTranscription()
		o.startCycle()
	case StateRecording:
		// Key source dedup should prevent this.
	}
}

func (o *Orchestrator) handleKeyUp() {
	if o.state != StateRecording {
		// Spurious release, e.g. after a supersede or at startup.
		return
	}

	samples, err := o.deps.Recorder.Stop()
	switch {
	case err == nil:
		o.startTranscription(samples)
	case errors.Is(err, audio.ErrTooShort), errors.Is(err, audio.ErrNotRecording):
		// Accidental tap; not worth an error state.
		log.Debug().Msg("recording too short, discarded")
		o.toIdle()
	case errors.Is(err, audio.ErrDeviceFailure):
		o.fail(FailureDevice, "audio device failed during recording")
	default:
		o.fail(FailureDevice, "audio capture failed: "+err.Error())
	}
}

// startCycle begins a new recording session, superseding any previous
// generation.
func (o *Orchestrator) startCycle() {
	o.gen++
	o.session = uuid.New()
	o.startedAt = time.Now()

	if err := o.deps.Recorder.Start(); err != nil {
		log.Error().Err(err).Msg("audio capture failed to start")
		o.fail(FailureDevice, "audio device unavailable")
		return
	}

	o.state = StateRecording
	o.publish()
	log.Info().Str("session", o.session.String()).Msg("recording started")
}

func (o *Orchestrator) startTranscription(samples []float32) {
	o.state = StateTranscribing
	o.publish()

	gen := o.gen
	audioDur := audio.Duration(len(samples))
	ctx, cancel := context.WithCancel(context.Background())
	o.cancelInflight = cancel

	log.Info().
		Str("session", o.session.String()).
		Dur("audio", audioDur).
		Msg("transcription started")

	go func() {
		start := time.Now()
		text, err := o.deps.Transcriber.Transcribe(ctx, samples)
		o.post(transcriptionDone{
			gen:      gen,
			text:     text,
			took:     time.Since(start),
			audioDur: audioDur,
			err:      err,
		})
	}()
}

func (o *Orchestrator) handleDone(done transcriptionDone) {
	if done.gen != o.gen {
		// Superseded cycle; success and failure are discarded alike.
		log.Debug().Uint64("gen", done.gen).Msg("stale transcription result discarded")
		return
	}

	o.cancelTranscription()

	if done.err != nil {
		kind, reason := classifyTranscribeError(done.err)
		log.Error().Err(done.err).Msg("transcription failed")
		o.fail(kind, reason)
		return
	}

	log.Info().
		Dur("took", done.took).
		Int("chars", len(done.text)).
		Msg("transcription completed")

	o.state = StateInjecting
	o.publish(func(s *Snapshot) { s.Text = done.text })

	// History first: injection failures must never lose the text.
	if err := o.deps.History.Append(done.text, time.Now(), done.audioDur); err != nil {
		log.Error().Err(err).Msg("history append failed")
	}

	out := o.deps.Settings.Output()
	if err := o.deps.Injector.Inject(done.text, out); err != nil {
		log.Error().Err(err).Msg("injection failed, text kept in history")
		o.fail(FailureInjection, "auto-paste failed, transcription saved to history")
		return
	}

	o.toIdle()
}

func (o *Orchestrator) handleFailureExpired(ev failureExpired) {
	if ev.gen != o.gen || o.state != StateFailed {
		return
	}
	o.toIdle()
}

func (o *Orchestrator) cancelTranscription() {
	if o.cancelInflight != nil {
		o.cancelInflight()
		o.cancelInflight = nil
	}
}

func (o *Orchestrator) toIdle() {
	o.state = StateIdle
	o.session = uuid.UUID{}
	o.publish()
}

func (o *Orchestrator) fail(kind FailureKind, reason string) {
	o.state = StateFailed
	o.publish(func(s *Snapshot) {
		s.Failure = kind
		s.Reason = reason
	})

	// Permission and missing-engine failures stay until the user acts on
	// them; the rest clear after the display interval (or on the next key
	// press).
	if kind != FailurePermission && kind != FailureEngineNotFound {
		gen := o.gen
		time.AfterFunc(o.failedDisplay, func() {
			o.post(failureExpired{gen: gen})
		})
	}
}

// publish records and emits a snapshot of the current state.
func (o *Orchestrator) publish(mutate ...func(*Snapshot)) {
	snap := Snapshot{
		State:     o.state,
		Session:   o.session,
		StartedAt: o.startedAt,
	}
	for _, fn := range mutate {
		fn(&snap)
	}

	<-o.snapshots
	o.snapshots <- snap

	if o.deps.Sink != nil {
		o.deps.Sink.Publish(snap)
	}
}

func (o *Orchestrator) shutdown() {
	o.cancelTranscription()
	if o.state == StateRecording {
		o.deps.Recorder.Stop()
	}
}

func classifyTranscribeError(err error) (FailureKind, string) {
	var procErr *transcribe.ProcessError
	switch {
	case errors.Is(err, transcribe.ErrEngineNotFound):
		return FailureEngineNotFound, "whisper-cli is not installed; install it with `brew install whisper-cpp` or set its path in settings"
	case errors.Is(err, transcribe.ErrModelNotFound):
		return FailureEngineNotFound, "whisper model not found; place ggml-base.bin in resources/models or set its path in settings"
	case errors.Is(err, transcribe.ErrTimeout):
		return FailureTimeout, "transcription timed out"
	case errors.Is(err, transcribe.ErrEmptyOutput):
		return FailureEmptyOutput, "no speech recognized"
	case errors.As(err, &procErr):
		return FailureProcess, procErr.Error()
	default:
		return FailureProcess, err.Error()
	}
}
