package app

import "fmt"

// AbortError reports that the user cancelled the picker. Code is the exit
// status the caller should use.
type AbortError struct {
	Code int
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("aborted with code %d", e.Code)
}

// TerminalError reports a failure to acquire or restore the terminal.
type TerminalError struct {
	Op  string
	Err error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal %s: %v", e.Op, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}
