//go:build windows

package proc

import (
	"errors"
	"os"
	"os/exec"
)

// Become runs script attached to the console and exits with its status,
// since Windows cannot replace a process image.
func Become(sh Shell, script string, env []string) error {
	cmd := sh.Command(script, env)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &exitErr):
		os.Exit(exitErr.ExitCode())
	}
	return Wrap(script, err, "")
}
