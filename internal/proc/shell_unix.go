//go:build !windows

package proc

func platformShell(func(string) string) Shell {
	return Shell{Argv: []string{"/bin/sh", "-c"}}
}
