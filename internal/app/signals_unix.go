//go:build !windows

package app

import (
	"os"
	"syscall"
)

// contSignals are the signals that mean the process was stopped and
// continued behind the picker's back, so the screen needs a full repaint.
func contSignals() []os.Signal {
	return []os.Signal{syscall.SIGCONT}
}
