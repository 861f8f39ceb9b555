package ui

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/x/term"
)

var inputDisabled atomic.Bool

// DisableInput makes every prompt fail with ErrInputDisabled.
func DisableInput() {
	inputDisabled.Store(true)
}

// InputEnabled reports whether prompts may be shown: input has not been
// disabled and stdin is a terminal.
func InputEnabled() bool {
	return !inputDisabled.Load() && term.IsTerminal(os.Stdin.Fd())
}

// IsInteractive reports whether stdout is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(os.Stdout.Fd())
}
