package transcribe

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// cliFallbacks are well-known install locations checked after PATH.
var cliFallbacks = []string{
	"/opt/homebrew/bin/whisper-cli",
	"/usr/local/bin/whisper-cli",
	"/usr/bin/whisper-cli",
}

// defaultModelFile is the bundled base model name.
const defaultModelFile = "ggml-base.bin"

// ResolveCLI locates the whisper-cli binary. A non-empty override wins: it
// is home-expanded and, when it carries no path separator, also tried as a
// PATH lookup. Otherwise PATH and the fallback locations are searched.
func ResolveCLI(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		candidate := expandHome(override)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if !strings.ContainsRune(override, os.PathSeparator) && !strings.Contains(override, "/") {
			if found, err := exec.LookPath(override); err == nil {
				return found, nil
			}
		}
		return "", fmt.Errorf("%w: configured path %s does not exist", ErrEngineNotFound, candidate)
	}

	if found, err := exec.LookPath("whisper-cli"); err == nil {
		return found, nil
	}

	for _, path := range cliFallbacks {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrEngineNotFound
}

// ResolveModel locates the whisper model file. A non-empty override must
// exist. Otherwise the bundled locations are tried: resources next to the
// executable, the working directory, and the user config dir.
func ResolveModel(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		candidate := expandHome(override)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		return "", fmt.Errorf("%w: configured path %s does not exist", ErrModelNotFound, candidate)
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "resources", "models", defaultModelFile))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "resources", "models", defaultModelFile))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "convey", "models", defaultModelFile))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrModelNotFound
}

// expandHome resolves a leading ~ against $HOME.
func expandHome(path string) string {
	if stripped, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, stripped)
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}
