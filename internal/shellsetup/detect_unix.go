//go:build !windows

package shellsetup

import (
	"os"
	"strconv"
	"strings"
)

// DetectParentShellName reads the parent's command name from /proc. It
// returns "" where /proc is not mounted.
func DetectParentShellName() string {
	ppid := os.Getppid()
	if ppid <= 1 {
		return ""
	}
	data, err := os.ReadFile("/proc/" + strconv.Itoa(ppid) + "/comm")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
