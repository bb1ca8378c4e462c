//go:build !windows

package app

import (
	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rpick/internal/state"
)

// resumeAfterStop repaints after the process was stopped and continued.
// The terminal may have been reset by the shell meanwhile.
func (app *Application) resumeAfterStop() bool {
	if app.suspended {
		return false
	}
	// Re-enable mouse reporting after resume
	app.screen.EnableMouse()
	app.screen.Sync()
	_ = app.screen.PostEvent(tcell.NewEventInterrupt("resume"))
	if w, h := app.screen.Size(); w > 0 && h > 0 {
		app.runSequence([]statepkg.Action{statepkg.ResizeAction{Width: w, Height: h}})
	}
	return true
}
