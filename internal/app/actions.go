package app

import (
	"fmt"
	"io"

	"github.com/kk-code-lab/rpick/internal/column"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

// foregroundDoneAction reports the end of an Execute command.
type foregroundDoneAction struct {
	err     error
	release func()
}

func (foregroundDoneAction) Category() statepkg.Category { return statepkg.CategoryInternal }

// command expands a shell template against the highlighted record and the
// selection.
func (app *Application) command(tmpl *column.Template) string {
	return tmpl.Format(app.reducer.TemplateContext(app.state), true)
}

// parkedSequence is the rest of an action list waiting for an Execute
// command to exit.
type parkedSequence struct {
	rest       []statepkg.Action
	eventBound bool
}

// execute hands the terminal to a command and reports whether it started.
// The command runs on its own goroutine so the loop keeps draining results,
// while the caller parks the rest of its action list until
// foregroundDoneAction arrives.
func (app *Application) execute(a statepkg.ExecuteAction) bool {
	release, err := app.fg.TryAcquire()
	if err != nil {
		app.reduce(statepkg.StatusAction{Err: err})
		return false
	}
	script := app.command(a.Command)
	env := app.state.Env()

	if err := app.screen.Suspend(); err != nil {
		release()
		app.reduce(statepkg.StatusAction{Err: &TerminalError{Op: "suspend", Err: err}})
		return false
	}
	app.suspended = true
	app.logger.Debug("execute", "command", script)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		err := app.fg.RunAttached(app.resolved.Shell, script, env, app.tty)
		app.dispatch(foregroundDoneAction{err: err, release: release})
	}()
	return true
}

func (app *Application) foregroundDone(a foregroundDoneAction) {
	a.release()
	app.suspended = false
	if err := app.screen.Resume(); err != nil {
		app.parked = nil
		app.fatal = &TerminalError{Op: "resume", Err: err}
		return
	}
	if err := flushConsoleInput(); err != nil {
		app.logger.Debug("console input not flushed", "error", err)
	}
	// Re-enable mouse reporting after resume
	app.screen.EnableMouse()
	app.screen.Sync()
	if w, h := app.screen.Size(); w > 0 && h > 0 {
		app.reduce(statepkg.ResizeAction{Width: w, Height: h})
	}
	app.reduce(statepkg.StatusAction{Err: a.err})
	app.resumeSequence()
}

// becomeCommand gives up the terminal and replaces the process. It only
// returns when the replacement could not start, or when another command
// still owns the terminal.
func (app *Application) becomeCommand(a statepkg.BecomeAction) {
	release, err := app.fg.TryAcquire()
	if err != nil {
		app.reduce(statepkg.StatusAction{Err: err})
		return
	}
	defer release()

	script := app.command(a.Command)
	env := app.state.Env()
	app.logger.Debug("become", "command", script)

	app.reducer.CancelPreview(app.state)
	app.cancel()
	app.runner.Stop()
	app.loader.Close()
	app.finished = true
	app.screen.Fini()

	if err := app.become(app.resolved.Shell, script, env); err != nil {
		app.fatal = fmt.Errorf("become %q: %w", script, err)
	}
}

// reload replaces the record store with the output of a new source
// command. The runner stops the previous command before spawning this one.
func (app *Application) reload(a statepkg.ReloadAction) {
	script := app.command(a.Command)
	env := app.state.Env()
	inj := app.worker.Restart()
	app.logger.Debug("reload", "command", script, "version", inj.Version())
	app.reduce(statepkg.ReloadStartedAction{Version: inj.Version()})
	app.runner.Command(app.ctx, script, env, inj, app.sourceDone)
}

// print writes a formatted line to the output without terminating.
func (app *Application) print(a statepkg.PrintAction) {
	text := a.Template.Format(app.reducer.TemplateContext(app.state), false)
	sep := "\n"
	if app.resolved.Print0 {
		sep = "\x00"
	}
	if _, err := io.WriteString(app.output, text+sep); err != nil {
		app.reduce(statepkg.StatusAction{Err: fmt.Errorf("print: %w", err)})
	}
}
