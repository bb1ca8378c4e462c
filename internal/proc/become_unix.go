//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// Become replaces the current process image with script. It returns only
// on failure.
func Become(sh Shell, script string, env []string) error {
	argv := sh.Args(script)
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return Wrap(script, err, "")
	}
	return Wrap(script, syscall.Exec(path, argv, env), "")
}
