// Package shellsetup prints shell snippets that bind a key to rpick and
// insert the picked records into the command line.
package shellsetup

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
)

type ParentShellFunc func() string

type Config struct {
	DetectParent ParentShellFunc
	Getenv       func(string) string
	// Executable locates the rpick binary embedded in the snippet.
	Executable func() (string, error)
}

const placeholder = "@RPICK@"

const posixWidgetBash = `__rpick_select() {
    command @RPICK@ "$@" | while IFS= read -r item; do
        printf '%q ' "$item"
    done
}

__rpick_widget() {
    local selected
    selected="$(__rpick_select)"
    READLINE_LINE="${READLINE_LINE:0:$READLINE_POINT}$selected${READLINE_LINE:$READLINE_POINT}"
    READLINE_POINT=$(( READLINE_POINT + ${#selected} ))
}

bind -m emacs-standard -x '"\C-t": __rpick_widget'
bind -m vi-insert -x '"\C-t": __rpick_widget'
`

const widgetZsh = `__rpick_widget() {
    local item selected=""
    for item in ${(f)"$(command @RPICK@ < /dev/tty)"}; do
        selected+="${(q)item} "
    done
    LBUFFER+="$selected"
    zle reset-prompt
}

zle -N __rpick_widget
bindkey '^T' __rpick_widget
`

const widgetFish = `function __rpick_widget
    set -l selected (command @RPICK@ | string escape)
    if test (count $selected) -gt 0
        commandline -it -- (string join ' ' $selected)' '
    end
    commandline -f repaint
end

bind \ct __rpick_widget
`

const widgetPwsh = `Set-PSReadLineKeyHandler -Chord Ctrl+t -ScriptBlock {
    $selected = & @RPICK@
    if ($selected) {
        $quoted = $selected | ForEach-Object { "'" + ($_ -replace "'", "''") + "'" }
        [Microsoft.PowerShell.PSConsoleReadLine]::Insert(($quoted -join ' ') + ' ')
    }
}
`

// Write prints the widget for shellOverride, or for the detected shell when
// it is empty.
func Write(w io.Writer, shellOverride string, cfg Config) error {
	parent := cfg.DetectParent
	if parent == nil {
		parent = DetectParentShellName
	}
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	executable := cfg.Executable
	if executable == nil {
		executable = os.Executable
	}

	shell := canonicalShellName(normalizeShellName(shellOverride))
	if shell == "" {
		shell = detectShellInternal(runtime.GOOS, getenv, parent)
	}

	rpath, err := executable()
	if err != nil || rpath == "" {
		rpath = "rpick"
	}

	var snippet string
	switch shell {
	case "bash":
		snippet = strings.ReplaceAll(posixWidgetBash, placeholder, posixQuote(rpath))
	case "zsh":
		snippet = strings.ReplaceAll(widgetZsh, placeholder, posixQuote(rpath))
	case "fish":
		snippet = strings.ReplaceAll(widgetFish, placeholder, posixQuote(rpath))
	case "pwsh":
		snippet = strings.ReplaceAll(widgetPwsh, placeholder, pwshQuote(rpath))
	default:
		return fmt.Errorf("no key binding widget for shell %q (supported: bash, zsh, fish, pwsh)", shell)
	}
	_, err = io.WriteString(w, snippet)
	return err
}

func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func pwshQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func detectShellInternal(goos string, getenv func(string) string, parent ParentShellFunc) string {
	if shell := canonicalShellName(normalizeShellName(getenv("SHELL"))); shell != "" {
		return shell
	}

	if parent != nil {
		if shell := canonicalShellName(normalizeShellName(parent())); shell != "" {
			return shell
		}
	}

	if strings.EqualFold(goos, "windows") {
		if shell := canonicalShellName(normalizeShellName(getenv("COMSPEC"))); shell != "" {
			switch shell {
			case "pwsh", "cmd":
				return shell
			}
		}
		return "pwsh"
	}

	return "bash"
}

func canonicalShellName(name string) string {
	switch name {
	case "powershell":
		return "pwsh"
	default:
		return name
	}
}

func normalizeShellName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	value = extractExecutable(value)
	if value == "" {
		return ""
	}

	value = strings.Trim(value, `"'`)
	value = strings.ReplaceAll(value, "\\", "/")
	base := strings.ToLower(path.Base(value))
	base = strings.TrimSuffix(base, ".exe")
	// Login shells show up as "-zsh" in the parent's command name.
	base = strings.TrimPrefix(base, "-")
	return strings.TrimSpace(base)
}

func extractExecutable(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if strings.HasPrefix(value, "\"") {
		value = value[1:]
		if idx := strings.IndexRune(value, '"'); idx >= 0 {
			return value[:idx]
		}
		return value
	}

	if strings.HasPrefix(value, "'") {
		value = value[1:]
		if idx := strings.IndexRune(value, '\''); idx >= 0 {
			return value[:idx]
		}
		return value
	}

	if idx := strings.IndexAny(value, " \t"); idx >= 0 {
		return value[:idx]
	}

	return value
}
