// Convey - cross-platform push-to-talk dictation.
//
// Lives in the system tray; hold the hotkey, speak, release, and the
// recognized text is typed into the focused window.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/narennaik/convey/internal/app"
	"github.com/narennaik/convey/internal/keymon"
	"github.com/narennaik/convey/internal/logging"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logging.Init(*verbose)
	log.Info().Str("version", Version).Msg("convey starting")

	// The hotkey and tray event loops need the main OS thread on macOS.
	keymon.RunOnMainThread(run)
}

func run() {
	application, err := app.New()
	if err != nil {
		log.Error().Err(err).Msg("initialization failed")
		os.Exit(1)
	}
	defer application.Close()

	application.Run()
}
