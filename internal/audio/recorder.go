// Package audio provides microphone capture for transcription.
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is the capture rate required by the whisper engine.
	SampleRate = 16000
	// Channels is the number of capture channels (mono).
	Channels = 1
	// FramesPerBuffer is the portaudio buffer size.
	FramesPerBuffer = 1024
	// MinSamples is the minimum viable recording (200ms at 16kHz). Shorter
	// captures are discarded instead of being fed to the engine.
	MinSamples = SampleRate / 5
)

// deviceFailureThreshold is how many consecutive read failures mark the
// stream as dead mid-recording.
const deviceFailureThreshold = 50

var (
	// ErrAlreadyRecording is returned by Start while a capture is active.
	// The workflow's single-flight invariant should make this unreachable.
	ErrAlreadyRecording = errors.New("audio: already recording")
	// ErrNotRecording is returned by Stop without a matching Start.
	ErrNotRecording = errors.New("audio: not recording")
	// ErrTooShort is returned by Stop when the capture is below MinSamples.
	ErrTooShort = errors.New("audio: recording too short")
	// ErrDeviceFailure is returned when the input device cannot be opened
	// or disappears mid-recording.
	ErrDeviceFailure = errors.New("audio: input device failure")
)

// Recorder captures 16kHz mono float32 audio from the default input device.
type Recorder struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []float32
	samples []float32
	running bool
	failed  bool
	done    chan struct{}
}

// New initializes portaudio and creates a Recorder.
func New() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceFailure, err)
	}

	return &Recorder{
		buffer: make([]float32, FramesPerBuffer),
	}, nil
}

// Start begins capturing into an in-memory buffer.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRecording
	}

	r.samples = make([]float32, 0, SampleRate*30) // room for 30s
	r.failed = false
	r.done = make(chan struct{})

	stream, err := portaudio.OpenDefaultStream(
		Channels,
		0,
		SampleRate,
		FramesPerBuffer,
		r.buffer,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceFailure, err)
	}

	r.stream = stream
	r.running = true

	if err := stream.Start(); err != nil {
		stream.Close()
		r.stream = nil
		r.running = false
		return fmt.Errorf("%w: %v", ErrDeviceFailure, err)
	}

	go r.recordLoop()

	return nil
}

func (r *Recorder) recordLoop() {
	defer close(r.done)

	failures := 0
	for {
		r.mu.Lock()
		if !r.running {
			r.mu.Unlock()
			return
		}
		stream := r.stream
		r.mu.Unlock()

		if stream == nil {
			return
		}

		available, err := stream.AvailableToRead()
		if err != nil {
			if r.noteFailure(&failures) {
				return
			}
			continue
		}

		if available == 0 {
			r.mu.Lock()
			running := r.running
			r.mu.Unlock()
			if !running {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := stream.Read(); err != nil {
			if r.noteFailure(&failures) {
				return
			}
			continue
		}
		failures = 0

		r.mu.Lock()
		if r.running {
			bufCopy := make([]float32, len(r.buffer))
			copy(bufCopy, r.buffer)
			r.samples = append(r.samples, bufCopy...)
		}
		r.mu.Unlock()
	}
}

// noteFailure counts consecutive stream errors. Past the threshold the
// device is considered gone: capture stops and Stop will report
// ErrDeviceFailure.
func (r *Recorder) noteFailure(failures *int) (dead bool) {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return true
	}

	*failures++
	if *failures >= deviceFailureThreshold {
		r.mu.Lock()
		r.running = false
		r.failed = true
		r.samples = nil
		r.mu.Unlock()
		return true
	}

	time.Sleep(10 * time.Millisecond)
	return false
}

// Stop halts capture and returns the accumulated samples. Captures below
// MinSamples yield ErrTooShort; a stream that died mid-recording yields
// ErrDeviceFailure. Either way the internal buffer is released.
func (r *Recorder) Stop() ([]float32, error) {
	r.mu.Lock()
	if !r.running {
		failed := r.failed
		r.failed = false
		stream := r.stream
		r.stream = nil
		r.mu.Unlock()

		if stream != nil {
			stream.Stop()
			stream.Close()
		}
		if failed {
			return nil, ErrDeviceFailure
		}
		return nil, ErrNotRecording
	}

	r.running = false
	stream := r.stream
	r.stream = nil
	samples := r.samples
	r.samples = nil
	done := r.done
	r.mu.Unlock()

	// Wait for recordLoop to notice (it checks running every 10ms).
	if done != nil {
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	if stream != nil {
		stream.Stop()
		stream.Close()
	}

	if len(samples) < MinSamples {
		return nil, ErrTooShort
	}

	return samples, nil
}

// IsRecording reports whether a capture is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close stops any active capture and releases portaudio.
func (r *Recorder) Close() {
	r.Stop()
	portaudio.Terminate()
}

// Duration converts a sample count to wall time at the capture rate.
func Duration(sampleCount int) time.Duration {
	return time.Duration(sampleCount) * time.Second / SampleRate
}
