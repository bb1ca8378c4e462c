//go:build windows

package proc

import "os"

// OpenTTY opens the console.
func OpenTTY() *TTY {
	in, err := os.OpenFile("CONIN$", os.O_RDWR, 0)
	if err != nil {
		return StdTTY()
	}
	out, err := os.OpenFile("CONOUT$", os.O_RDWR, 0)
	if err != nil {
		_ = in.Close()
		return StdTTY()
	}
	return &TTY{In: in, Out: out, close: func() error {
		_ = in.Close()
		return out.Close()
	}}
}
