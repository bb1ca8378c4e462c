package proc

import "strings"

type dialect int

const (
	dialectPOSIX dialect = iota
	dialectCmd
	dialectPowerShell
)

func dialectOf(interpreter string) dialect {
	switch commandFlag(interpreter) {
	case "/C":
		return dialectCmd
	case "-Command":
		return dialectPowerShell
	default:
		return dialectPOSIX
	}
}

// Quote makes s a single literal word for the shell's command line.
func (sh Shell) Quote(s string) string {
	if len(sh.Argv) == 0 {
		return posixQuote(s)
	}
	switch dialectOf(sh.Argv[0]) {
	case dialectCmd:
		return cmdQuote(s)
	case dialectPowerShell:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default:
		return posixQuote(s)
	}
}

func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// cmdQuote double-quotes s with backslash rules the child's argv parser
// understands, then carets cmd.exe metacharacters so %VAR% and friends
// stay literal.
func cmdQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for _, r := range s {
		switch r {
		case '\\':
			slashes++
			b.WriteRune(r)
			continue
		case '"':
			b.WriteString(strings.Repeat(`\`, slashes+1))
		}
		slashes = 0
		b.WriteRune(r)
	}
	b.WriteString(strings.Repeat(`\`, slashes))
	b.WriteByte('"')

	quoted := b.String()
	var out strings.Builder
	out.Grow(len(quoted) + 4)
	for _, r := range quoted {
		if strings.ContainsRune(`&|<>()@^%!"`, r) {
			out.WriteByte('^')
		}
		out.WriteRune(r)
	}
	return out.String()
}
