package logger

import (
	"io"
	"os"

	"weebasic/pkg/color"

	"github.com/charmbracelet/log"
)

// Init initializes the default logger on stderr
func Init(debug, noColor bool) {
	InitWriter(os.Stderr, debug, noColor)
}

// InitWriter initializes the default logger on w
func InitWriter(w io.Writer, debug, noColor bool) {
	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    debug,
			ReportTimestamp: false, // one-shot CLI, timestamps are noise
			Prefix:          "WEEBASIC",
		}))

	log.SetLevel(log.ErrorLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if noColor {
		color.EnableColor(false)
	}
	log.SetColorProfile(color.Profile())
}
