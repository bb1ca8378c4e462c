//go:build !windows

package proc

import (
	"context"
	"os/exec"
	"syscall"
	"time"
)

type unixController struct{}

func newPlatformController() Controller {
	return unixController{}
}

func (unixController) Start(cmd *exec.Cmd) error {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	setPdeathsig(cmd.SysProcAttr)
	return cmd.Start()
}

// Interrupt sends SIGINT to the process group (negative pid).
func (unixController) Interrupt(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}

func (unixController) Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func (u unixController) Wait(ctx context.Context, cmd *exec.Cmd, grace time.Duration) error {
	return waitWithGrace(ctx, u, cmd, grace)
}
