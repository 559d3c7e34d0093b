// Package color styles diagnostics and listings for the terminal.
package color

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
)

// ANSI palette indices
const (
	Green     = "2"
	Yellow    = "3"
	Blue      = "4"
	Cyan      = "6"
	Gray      = "8"
	BrightRed = "9"
)

var profile = termenv.Ascii

func init() {
	if os.Getenv("NO_COLOR") == "" && isTerminal() {
		profile = termenv.ANSI256
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// EnableColor switches styling on or off
func EnableColor(enable bool) {
	if enable {
		profile = termenv.ANSI256
		return
	}
	profile = termenv.Ascii
}

func IsColorEnabled() bool {
	return profile != termenv.Ascii
}

// Profile returns the active termenv profile
func Profile() termenv.Profile {
	return profile
}

func Colorize(color, text string) string {
	return profile.String(text).Foreground(profile.Color(color)).String()
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func BlueText(text string) string {
	return Colorize(Blue, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	return profile.String(text).Bold().String()
}

func Position(line, col int) string {
	return CyanText(fmt.Sprintf("%d:%d", line, col))
}

// ErrorWithPosition renders a located diagnostic with a preview of the source line
func ErrorWithPosition(file string, line, col int, message, context string) string {
	if context == "" {
		return fmt.Sprintf("%s:%s: %s", file, Position(line, col), BrightRedText(message))
	}

	return fmt.Sprintf("%s:%s: %s\n%s", file, Position(line, col), BrightRedText(message), GrayText(context))
}
