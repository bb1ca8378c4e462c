//go:build windows

package proc

import "strings"

func platformShell(getenv func(string) string) Shell {
	if comspec := strings.TrimSpace(getenv("COMSPEC")); comspec != "" {
		return Shell{Argv: []string{comspec, "/C"}}
	}
	return Shell{Argv: []string{"cmd.exe", "/C"}}
}
