//go:build windows

package proc

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

type windowsController struct{}

func newPlatformController() Controller {
	return windowsController{}
}

func (windowsController) Start(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
	return cmd.Start()
}

// Interrupt sends CTRL_BREAK_EVENT to the new process group.
func (windowsController) Interrupt(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}

func (windowsController) Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	return cmd.Process.Kill()
}

func (w windowsController) Wait(ctx context.Context, cmd *exec.Cmd, grace time.Duration) error {
	return waitWithGrace(ctx, w, cmd, grace)
}
