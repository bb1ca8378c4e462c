package app

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/binds"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

const (
	pollInterval      = time.Second / 60
	animationInterval = 100 * time.Millisecond
)

// Run starts a picker and blocks until it is accepted, aborted, or ctx is
// cancelled. An abort is returned as *AbortError.
func Run(ctx context.Context, opts ...Option) (Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	app, err := newApplication(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = app.Close()
	}()

	app.run()
	return app.result()
}

func (app *Application) run() {
	app.startSource()
	app.runSequence([]statepkg.Action{statepkg.StartAction{}})
	app.renderer.Render(app.state)
	renderPending := false

	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := app.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-app.ctx.Done():
				return
			}
		}
	}()

	var sigContCh chan os.Signal
	if sigs := contSignals(); len(sigs) > 0 {
		sigContCh = make(chan os.Signal, 1)
		signal.Notify(sigContCh, sigs...)
		defer signal.Stop(sigContCh)
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	var tickCh <-chan time.Time
	if every := app.state.Options().TickEvery; every > 0 && app.resolved.Binds.Bound(binds.EventTrigger(statepkg.EventTick)) {
		tick := time.NewTicker(every)
		defer tick.Stop()
		tickCh = tick.C
	}

	var animationTimer *time.Timer
	var animationCh <-chan time.Time

	startAnimation := func() {
		if animationCh != nil {
			return
		}
		if animationTimer == nil {
			animationTimer = time.NewTimer(animationInterval)
		} else {
			animationTimer.Reset(animationInterval)
		}
		animationCh = animationTimer.C
	}

	stopAnimation := func() {
		if animationTimer == nil {
			return
		}
		if !animationTimer.Stop() {
			select {
			case <-animationTimer.C:
			default:
			}
		}
		animationCh = nil
	}
	defer stopAnimation()

	for !app.done() {
		if renderPending && !app.suspended {
			app.renderer.Render(app.state)
			renderPending = false
		}

		if app.shouldAnimate() {
			startAnimation()
		} else {
			stopAnimation()
		}

		select {
		case <-app.ctx.Done():
			return
		case ev := <-eventChan:
			if app.handleEvent(ev) {
				renderPending = true
			}
		case <-poll.C:
			if snap, ok := app.worker.Poll(); ok {
				app.runSequence([]statepkg.Action{statepkg.SnapshotAction{Snapshot: snap}})
				renderPending = true
			}
		case <-animationCh:
			animationCh = nil
			renderPending = true
		case <-tickCh:
			if app.parked == nil {
				app.runSequence([]statepkg.Action{statepkg.TickAction{}})
				renderPending = true
			}
		case action := <-app.actionCh:
			app.runSequence([]statepkg.Action{action})
			renderPending = true
		case <-sigContCh:
			if app.resumeAfterStop() {
				renderPending = true
			}
		}

		if app.processActions() {
			renderPending = true
		}
	}
}

func (app *Application) done() bool {
	return app.fatal != nil || app.finished || app.state.Terminated()
}

func (app *Application) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		if !app.suspended {
			app.screen.Sync()
		}
		app.runSequence(app.input.Translate(ev))
	case *tcell.EventKey, *tcell.EventMouse:
		if app.suspended {
			return false
		}
		app.runSequence(app.input.Translate(ev))
	case *tcell.EventInterrupt:
		return true
	default:
		return false
	}
	return true
}

// processActions drains queued actions without blocking.
func (app *Application) processActions() bool {
	changed := false
	for !app.done() {
		select {
		case action := <-app.actionCh:
			app.runSequence([]statepkg.Action{action})
			changed = true
		default:
			return changed
		}
	}
	return changed
}

func (app *Application) shouldAnimate() bool {
	snap := app.state.Snapshot
	return !app.suspended && (snap.Running || !snap.Sealed)
}

// runSequence applies actions in order, stopping at termination, then fires
// the synthetic events they raised. An Execute parks the rest of the list
// until the command exits.
func (app *Application) runSequence(actions []statepkg.Action) {
	if app.runActions(actions, false) {
		app.fireEvents()
	}
}

// runActions reports whether the list ran to the end. eventBound marks a
// list fired by a synthetic event, so a parked rest resumes with events
// suppressed.
func (app *Application) runActions(actions []statepkg.Action, eventBound bool) bool {
	for i, action := range actions {
		if app.done() {
			return false
		}
		if a, ok := action.(statepkg.ExecuteAction); ok {
			if app.execute(a) {
				app.parked = &parkedSequence{rest: actions[i+1:], eventBound: eventBound}
				return false
			}
			continue
		}
		app.apply(action)
	}
	return !app.done()
}

// fireEvents runs the actions bound to pending synthetic events. Event-bound
// lists run with events suppressed so they cannot trigger themselves. While
// a sequence is parked the events stay queued.
func (app *Application) fireEvents() {
	if app.parked != nil {
		return
	}
	events := app.state.TakeEvents()
	if len(events) == 0 {
		return
	}
	var actions []statepkg.Action
	for _, ev := range events {
		actions = append(actions, app.input.Event(ev)...)
	}
	app.state.SuppressEvents(true)
	defer app.state.SuppressEvents(false)
	app.runActions(actions, true)
}

// resumeSequence continues the list an Execute parked.
func (app *Application) resumeSequence() {
	p := app.parked
	app.parked = nil
	if p == nil {
		return
	}
	app.state.SuppressEvents(p.eventBound)
	finished := app.runActions(p.rest, p.eventBound)
	app.state.SuppressEvents(false)
	if finished {
		app.fireEvents()
	}
}

// apply runs one action: system actions here, everything else through the
// reducer. Execute goes through runActions, which owns parking.
func (app *Application) apply(action statepkg.Action) {
	switch a := action.(type) {
	case statepkg.BecomeAction:
		app.becomeCommand(a)
	case statepkg.ReloadAction:
		app.reload(a)
	case statepkg.PrintAction:
		app.print(a)
	case foregroundDoneAction:
		app.foregroundDone(a)
	default:
		app.reduce(action)
	}
}

func (app *Application) reduce(action statepkg.Action) {
	if _, err := app.reducer.Reduce(app.state, action); err != nil {
		app.state.StatusErr = err
	}
	if app.state.RedrawRequested {
		app.state.RedrawRequested = false
		if !app.suspended {
			app.screen.Sync()
		}
	}
}
