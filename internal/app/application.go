package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/config"
	"github.com/kk-code-lab/rpick/internal/logging"
	"github.com/kk-code-lab/rpick/internal/preview"
	"github.com/kk-code-lab/rpick/internal/proc"
	"github.com/kk-code-lab/rpick/internal/search"
	"github.com/kk-code-lab/rpick/internal/source"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
	inputui "github.com/kk-code-lab/rpick/internal/ui/input"
	renderui "github.com/kk-code-lab/rpick/internal/ui/render"
)

// Result is what an accepted picker returns.
type Result struct {
	Items []string
	Query string
}

// Application represents the running picker.
type Application struct {
	screen   tcell.Screen
	state    *statepkg.PickerState
	reducer  *statepkg.Reducer
	renderer *renderui.Renderer
	input    *inputui.InputHandler
	worker   *search.Worker
	loader   *preview.Loader
	runner   *source.Runner
	fg       *proc.Foreground
	actionCh chan statepkg.Action
	resolved *config.Resolved
	logger   *slog.Logger

	src    io.Reader
	output io.Writer
	tty    *proc.TTY
	become func(sh proc.Shell, script string, env []string) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// suspended is set while an Execute command owns the terminal, and
	// parked holds the rest of the action list it interrupted.
	suspended bool
	parked    *parkedSequence
	finished  bool
	fatal     error
	closeOnce sync.Once
}

func newApplication(ctx context.Context, cfg runConfig) (*Application, error) {
	resolved := cfg.resolved
	if resolved == nil {
		var err error
		if resolved, err = config.Default().Resolve(os.Getenv); err != nil {
			return nil, err
		}
	}
	logger := logging.OrDiscard(cfg.logger)

	screen := cfg.screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, &TerminalError{Op: "open", Err: err}
		}
	}
	if err := screen.Init(); err != nil {
		return nil, &TerminalError{Op: "init", Err: err}
	}
	// Parse mouse sequences so modified clicks don't leak as key events.
	screen.EnableMouse()

	opts := resolved.Options
	state := statepkg.NewPickerState(opts)
	w, h := screen.Size()
	state.ScreenWidth = w
	state.ScreenHeight = h

	app := &Application{
		screen:   screen,
		state:    state,
		resolved: resolved,
		logger:   logger,
		actionCh: make(chan statepkg.Action, 64),
		src:      cfg.input,
		output:   cfg.output,
		tty:      cfg.tty,
		become:   cfg.become,
		fg:       proc.NewForeground(logger),
	}
	if app.output == nil {
		app.output = os.Stdout
	}
	if app.become == nil {
		app.become = proc.Become
	}
	app.ctx, app.cancel = context.WithCancel(ctx)

	app.worker = search.NewWorker(search.Options{
		Model:  opts.Columns,
		Active: opts.Active,
		Case:   resolved.Case,
		Logger: logger,
	})
	app.loader = preview.NewLoader(preview.Options{Shell: resolved.Shell, Logger: logger})
	app.runner = source.NewRunner(resolved.Shell, logger)
	app.reducer = statepkg.NewReducer(app.worker, app.loader, app.dispatch, logger)

	app.renderer = renderui.NewRenderer(screen, app.worker)
	app.renderer.SetCaseMode(resolved.Case)
	app.input = inputui.NewInputHandler(resolved.Binds)
	app.input.SetState(state)
	return app, nil
}

// dispatch queues an action from any goroutine. It never blocks the caller.
func (app *Application) dispatch(action statepkg.Action) {
	select {
	case app.actionCh <- action:
	default:
		go func() {
			select {
			case app.actionCh <- action:
			case <-app.ctx.Done():
			}
		}()
	}
}

// startSource feeds the first worker version from stdin or the source
// command.
func (app *Application) startSource() {
	inj := app.worker.Injector()
	if app.src != nil {
		app.runner.Stdin(app.ctx, app.src, inj, app.sourceDone)
		return
	}
	app.runner.Command(app.ctx, app.resolved.SourceCommand, app.state.Env(), inj, app.sourceDone)
}

func (app *Application) sourceDone(version uint64, err error) {
	app.dispatch(statepkg.SourceDoneAction{Version: version, Err: err})
}

// Close cancels outstanding work and releases the terminal.
func (app *Application) Close() error {
	app.closeOnce.Do(func() {
		app.reducer.CancelPreview(app.state)
		app.cancel()
		app.runner.Stop()
		app.loader.Close()
		app.worker.Close()
		app.wg.Wait()
		if !app.finished {
			app.finished = true
			app.screen.Fini()
		}
	})
	return nil
}

// result converts the terminal outcome into Run's return values.
func (app *Application) result() (Result, error) {
	if app.fatal != nil {
		return Result{}, app.fatal
	}
	out := app.state.Outcome
	query := app.state.QueryString()
	switch out.Kind {
	case statepkg.OutcomeAccept:
		if path := app.resolved.HistoryFile; path != "" {
			if err := config.AppendHistory(path, query); err != nil {
				app.logger.Warn("history not saved", "path", path, "error", err)
			}
		}
		// Each accepted record is formatted on its own.
		ctx := app.reducer.TemplateContext(app.state)
		ctx.Selected = nil
		items := make([]string, 0, len(out.Records))
		for _, rec := range out.Records {
			target := rec.Target()
			ctx.Current = &target
			items = append(items, app.resolved.Output.Format(ctx, false))
		}
		return Result{Items: items, Query: query}, nil
	case statepkg.OutcomeAbort:
		return Result{Query: query}, &AbortError{Code: out.Code}
	default:
		return Result{Query: query}, app.ctx.Err()
	}
}
