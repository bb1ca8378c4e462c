package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	switch args[0] {
	case "echo-env":
		fmt.Print(os.Getenv(args[1]))
		os.Exit(0)
	case "fail":
		fmt.Fprint(os.Stderr, "first\nlast words")
		os.Exit(7)
	}
	os.Exit(2)
}

func helperCommand(args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func TestParseShell(t *testing.T) {
	tests := []struct {
		spec   string
		expect []string
	}{
		{"bash -lc", []string{"bash", "-lc"}},
		{"zsh", []string{"zsh", "-c"}},
		{"'/opt/my shell/fish'", []string{"/opt/my shell/fish", "-c"}},
		{"cmd.exe", []string{"cmd.exe", "/C"}},
		{"pwsh", []string{"pwsh", "-Command"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			sh, err := ParseShell(tt.spec)
			if err != nil {
				t.Fatalf("ParseShell(%q): %v", tt.spec, err)
			}
			if !reflect.DeepEqual(sh.Argv, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, sh.Argv)
			}
		})
	}

	if _, err := ParseShell("   "); err == nil {
		t.Fatalf("expected error for empty shell")
	}
	if _, err := ParseShell("bash 'unterminated"); err == nil {
		t.Fatalf("expected error for unbalanced quote")
	}
}

func TestDefaultShell(t *testing.T) {
	skipOnWindows(t)
	env := map[string]string{"SHELL": "/usr/bin/zsh"}
	getenv := func(k string) string { return env[k] }
	if got := DefaultShell(getenv).Args("ls"); !reflect.DeepEqual(got, []string{"/usr/bin/zsh", "-c", "ls"}) {
		t.Fatalf("unexpected argv %v", got)
	}
	delete(env, "SHELL")
	if got := DefaultShell(getenv).String(); got != "/bin/sh -c" {
		t.Fatalf("expected /bin/sh -c, got %q", got)
	}
}

func TestShellRunCapturesOutputAndStatus(t *testing.T) {
	skipOnWindows(t)
	sh := Shell{Argv: []string{"/bin/sh", "-c"}}
	out, err := sh.Run(context.Background(), "printf %s \"$GREETING\"", []string{"GREETING=hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi" {
		t.Fatalf("expected %q, got %q", "hi", out)
	}

	_, err = sh.Run(context.Background(), "echo oops >&2; exit 3", nil)
	var subErr *SubprocessError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected *SubprocessError, got %T (%v)", err, err)
	}
	if subErr.ExitCode != 3 || subErr.Stderr != "oops" {
		t.Fatalf("unexpected error fields: %+v", subErr)
	}
	if !strings.Contains(subErr.Error(), "status 3: oops") {
		t.Fatalf("unexpected message %q", subErr.Error())
	}
}

func TestWaitCancellationKillsGroup(t *testing.T) {
	skipOnWindows(t)
	pc := NewController()
	// The shell forks sleep; only a group signal reaches both.
	cmd := exec.Command("/bin/sh", "-c", "sleep 30; sleep 30")
	if err := pc.Start(cmd); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err := pc.Wait(ctx, cmd, 200*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("wait took too long: %v", elapsed)
	}
	if Wrap("sleep", err, "") != err {
		t.Fatalf("cancellation should pass through Wrap unchanged")
	}
}

func TestWrapHelperFailure(t *testing.T) {
	cmd := helperCommand("fail")
	stderr := NewTailBuffer(0)
	cmd.Stderr = stderr
	err := Wrap("fail", cmd.Run(), stderr.String())
	var subErr *SubprocessError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected *SubprocessError, got %v", err)
	}
	if subErr.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", subErr.ExitCode)
	}
	if !strings.HasSuffix(subErr.Error(), ": last words") {
		t.Fatalf("expected last stderr line in message, got %q", subErr.Error())
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Unwrap should expose *exec.ExitError")
	}
}

func TestWrapSpawnFailure(t *testing.T) {
	err := Wrap("nope", exec.Command("/definitely/not/here").Run(), "")
	var subErr *SubprocessError
	if !errors.As(err, &subErr) || subErr.ExitCode != -1 {
		t.Fatalf("expected spawn failure with exit code -1, got %v", err)
	}
	if Wrap("ok", nil, "") != nil {
		t.Fatalf("nil error should stay nil")
	}
}

func TestHelperEnvironment(t *testing.T) {
	cmd := helperCommand("echo-env", "FZF_QUERY")
	cmd.Env = append(cmd.Env, "FZF_QUERY=needle")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("helper failed: %v", err)
	}
	if string(out) != "needle" {
		t.Fatalf("expected %q, got %q", "needle", out)
	}
}

func TestTailBufferKeepsSuffix(t *testing.T) {
	buf := NewTailBuffer(5)
	_, _ = buf.Write([]byte("abc"))
	_, _ = buf.Write([]byte("defgh"))
	if got := buf.String(); got != "defgh" {
		t.Fatalf("expected %q, got %q", "defgh", got)
	}
}

func TestForegroundRejectsSecondAcquire(t *testing.T) {
	fg := NewForeground(nil)
	release, err := fg.TryAcquire()
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if _, err := fg.TryAcquire(); !errors.Is(err, ErrForegroundBusy) {
		t.Fatalf("expected ErrForegroundBusy, got %v", err)
	}
	release()
	release()
	if fg.Busy() {
		t.Fatalf("gate should be free after release")
	}
	release2, err := fg.TryAcquire()
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release2()
}

func TestForegroundConcurrentAcquire(t *testing.T) {
	fg := NewForeground(nil)
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := fg.TryAcquire(); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != 1 {
		t.Fatalf("expected exactly one grant, got %d", granted)
	}
}

func TestRunAttachedUsesTTY(t *testing.T) {
	skipOnWindows(t)
	fg := NewForeground(nil)
	var out bytes.Buffer
	tty := &TTY{In: strings.NewReader("typed\n"), Out: &out}
	sh := Shell{Argv: []string{"/bin/sh", "-c"}}

	err := fg.RunAttached(sh, "cat; echo err >&2; exit 4", nil, tty)
	var subErr *SubprocessError
	if !errors.As(err, &subErr) || subErr.ExitCode != 4 {
		t.Fatalf("expected exit status 4, got %v", err)
	}
	if out.String() != "typed\nerr\n" {
		t.Fatalf("expected tty output, got %q", out.String())
	}
}

func TestShellQuotePerInterpreter(t *testing.T) {
	tests := []struct {
		name   string
		shell  Shell
		in     string
		expect string
	}{
		{"posix", Shell{Argv: []string{"/bin/sh", "-c"}}, "it's", `'it'\''s'`},
		{"posix no argv", Shell{}, "a b", `'a b'`},
		{"powershell", Shell{Argv: []string{"pwsh", "-Command"}}, "it's", `'it''s'`},
		{"cmd metacharacters", Shell{Argv: []string{"cmd.exe", "/C"}}, `a "b" %PATH%`, `^"a \^"b\^" ^%PATH^%^"`},
		{"cmd trailing backslash", Shell{Argv: []string{"cmd", "/C"}}, `C:\dir\`, `^"C:\dir\\^"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shell.Quote(tt.in); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
