//go:build !windows

package app

// flushConsoleInput is only needed where the console keeps keystrokes typed
// for a child process.
func flushConsoleInput() error {
	return nil
}
