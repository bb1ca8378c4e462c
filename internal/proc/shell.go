// Package proc runs the external commands a picker spawns: preview and
// source commands in their own process group, and foreground commands
// attached to the terminal.
package proc

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// Shell is the interpreter prefix that receives a command line as its final
// argument, for example ["bash", "-lc"].
type Shell struct {
	Argv []string
}

// ParseShell splits a configured shell string. A bare interpreter gets the
// flag it needs to read a command line.
func ParseShell(spec string) (Shell, error) {
	argv, err := shlex.Split(spec)
	if err != nil {
		return Shell{}, err
	}
	if len(argv) == 0 {
		return Shell{}, errors.New("empty shell")
	}
	if len(argv) == 1 {
		argv = append(argv, commandFlag(argv[0]))
	}
	return Shell{Argv: argv}, nil
}

// DefaultShell returns $SHELL -c, falling back to the platform shell.
func DefaultShell(getenv func(string) string) Shell {
	if sh := strings.TrimSpace(getenv("SHELL")); sh != "" {
		if parsed, err := ParseShell(sh); err == nil {
			return parsed
		}
	}
	return platformShell(getenv)
}

func commandFlag(interpreter string) string {
	name := strings.ToLower(filepath.Base(interpreter))
	name = strings.TrimSuffix(name, ".exe")
	switch name {
	case "cmd":
		return "/C"
	case "powershell", "pwsh":
		return "-Command"
	default:
		return "-c"
	}
}

// Args returns the full argv that runs script.
func (sh Shell) Args(script string) []string {
	args := make([]string, 0, len(sh.Argv)+1)
	args = append(args, sh.Argv...)
	return append(args, script)
}

// Command builds an unstarted command for script with env as its whole
// environment. Cancellation goes through Controller.Wait so the whole
// process group is signalled.
func (sh Shell) Command(script string, env []string) *exec.Cmd {
	args := sh.Args(script)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = env
	return cmd
}

func (sh Shell) String() string {
	return strings.Join(sh.Argv, " ")
}

// Run executes script in its own process group, capturing stdout. It is
// used for short commands whose output is consumed whole.
func (sh Shell) Run(ctx context.Context, script string, env []string) (string, error) {
	cmd := sh.Command(script, env)
	var stdout strings.Builder
	stderr := NewTailBuffer(DefaultStderrLimit)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	pc := NewController()
	if err := pc.Start(cmd); err != nil {
		return "", Wrap(script, err, "")
	}
	if err := pc.Wait(ctx, cmd, DefaultGracePeriod); err != nil {
		return stdout.String(), Wrap(script, err, stderr.String())
	}
	return stdout.String(), nil
}
