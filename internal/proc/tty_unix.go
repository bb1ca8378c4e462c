//go:build !windows

package proc

import "os"

// OpenTTY opens /dev/tty so a command keeps the terminal even when the
// picker's stdin is a pipe and its stdout is captured.
func OpenTTY() *TTY {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return StdTTY()
	}
	return &TTY{In: tty, Out: tty, close: tty.Close}
}
