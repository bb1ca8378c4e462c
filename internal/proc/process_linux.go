//go:build linux

package proc

import "syscall"

// Children die with the picker even if it is killed before cleanup runs.
func setPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}
