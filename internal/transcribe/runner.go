// Package transcribe runs the external whisper-cli engine over a finite
// audio buffer.
//
// The engine is an opaque pre-installed binary: samples go in as a temporary
// WAV artifact, recognized text comes back on stdout. The artifact is
// removed on every exit path so no audio outlives the call.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/narennaik/convey/internal/audio"
)

var (
	// ErrEngineNotFound means the whisper-cli binary is not installed.
	// Fatal and non-retryable; the user needs to install the engine.
	ErrEngineNotFound = errors.New("transcribe: whisper-cli not found")
	// ErrModelNotFound means no whisper model file could be located.
	ErrModelNotFound = errors.New("transcribe: whisper model not found")
	// ErrTimeout means the engine exceeded the configured ceiling and was
	// killed.
	ErrTimeout = errors.New("transcribe: engine timed out")
	// ErrEmptyOutput means the engine exited cleanly but produced no text.
	ErrEmptyOutput = errors.New("transcribe: engine produced no text")
)

// ProcessError reports an engine run that exited non-zero.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("transcribe: engine exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Config controls engine invocations.
type Config struct {
	// CLIPath overrides whisper-cli resolution when non-empty.
	CLIPath string
	// ModelPath overrides model resolution when non-empty.
	ModelPath string
	// Language is the recognition language; "" or "auto" auto-detects.
	Language string
	// Timeout is the per-invocation ceiling; zero means the default.
	Timeout time.Duration
}

// DefaultTimeout bounds a single engine invocation.
const DefaultTimeout = 30 * time.Second

// Runner invokes the engine as a blocking subprocess.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Runner{cfg: cfg}
}

// Transcribe runs the engine over the samples and returns the recognized
// text. Cancelling ctx kills the subprocess; exceeding the configured
// timeout yields ErrTimeout.
func (r *Runner) Transcribe(ctx context.Context, samples []float32) (string, error) {
	cli, err := ResolveCLI(r.cfg.CLIPath)
	if err != nil {
		return "", err
	}
	model, err := ResolveModel(r.cfg.ModelPath)
	if err != nil {
		return "", err
	}

	wavPath := filepath.Join(os.TempDir(), "convey-"+uuid.NewString()+".wav")
	if err := audio.WriteWAV(wavPath, samples); err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	lang := r.cfg.Language
	if lang == "" {
		lang = "auto"
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	// -nt: no timestamps, -np: no progress prints; text only on stdout.
	cmd := exec.CommandContext(runCtx, cli,
		"-m", model,
		"-f", wavPath,
		"-l", lang,
		"-nt", "-np",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	log.Debug().
		Dur("took", time.Since(start)).
		Str("cli", cli).
		Msg("engine run finished")

	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return "", ErrTimeout
	}
	if ctx.Err() != nil {
		// Superseded or shutting down; the caller discards the result.
		return "", ctx.Err()
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return "", &ProcessError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("transcribe: run engine: %w", runErr)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrEmptyOutput
	}

	return text, nil
}
