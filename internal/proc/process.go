package proc

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultGracePeriod is the time between interrupt and kill. Preview
// commands are replaced on every cursor move, so it is kept short.
const DefaultGracePeriod = 500 * time.Millisecond

var errNotStarted = errors.New("process not started")

// Controller manages the lifecycle of background commands.
type Controller interface {
	// Start puts the command in its own process group and starts it.
	Start(cmd *exec.Cmd) error

	// Interrupt asks the process group to stop.
	Interrupt(cmd *exec.Cmd) error

	// Kill terminates the process group.
	Kill(cmd *exec.Cmd) error

	// Wait waits for the command. If ctx is cancelled first it interrupts,
	// waits up to grace, then kills.
	Wait(ctx context.Context, cmd *exec.Cmd, grace time.Duration) error
}

// NewController returns the controller for this platform.
func NewController() Controller {
	return newPlatformController()
}

func waitWithGrace(ctx context.Context, pc Controller, cmd *exec.Cmd, grace time.Duration) error {
	if cmd.Process == nil {
		return errNotStarted
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	_ = pc.Interrupt(cmd)
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-done:
		return errors.Join(ctx.Err(), err)
	case <-timer.C:
		_ = pc.Kill(cmd)
		return errors.Join(ctx.Err(), <-done)
	}
}
