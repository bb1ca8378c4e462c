//go:build windows

package app

import "golang.org/x/sys/windows"

// flushConsoleInput drops keystrokes an Execute command left unread in the
// console buffer so they do not reach the picker.
func flushConsoleInput() error {
	handle, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return err
	}
	return windows.FlushConsoleInputBuffer(handle)
}
