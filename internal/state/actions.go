package state

import (
	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/search"
)

// Category groups actions by what they touch.
type Category int

const (
	CategorySelection Category = iota
	CategoryNavigation
	CategoryPreview
	CategoryInput
	CategoryUI
	CategorySystem
	// CategoryInternal actions are produced by the loop and cannot be bound.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategorySelection:
		return "selection"
	case CategoryNavigation:
		return "navigation"
	case CategoryPreview:
		return "preview"
	case CategoryInput:
		return "input"
	case CategoryUI:
		return "ui"
	case CategorySystem:
		return "system"
	default:
		return "internal"
	}
}

// Action is a state mutation request. The set is closed: every action is
// one of the structs below.
type Action interface {
	Category() Category
}

// ===== SELECTION =====

type SelectAction struct{}
type DeselectAction struct{}
type ToggleAction struct{}
type CycleAllAction struct{}
type ClearAllAction struct{}
type AcceptAction struct{}
type QuitAction struct {
	Code int
}

func (SelectAction) Category() Category   { return CategorySelection }
func (DeselectAction) Category() Category { return CategorySelection }
func (ToggleAction) Category() Category   { return CategorySelection }
func (CycleAllAction) Category() Category { return CategorySelection }
func (ClearAllAction) Category() Category { return CategorySelection }
func (AcceptAction) Category() Category   { return CategorySelection }
func (QuitAction) Category() Category     { return CategorySelection }

// ===== NAVIGATION =====

type UpAction struct {
	Count int
}
type DownAction struct {
	Count int
}

// PosAction highlights position Index; negative values count from the end.
type PosAction struct {
	Index int
}
type ForwardCharAction struct{}
type BackwardCharAction struct{}
type ForwardWordAction struct{}
type BackwardWordAction struct{}

// InputPosAction moves the query cursor; -1 is the end of the line.
type InputPosAction struct {
	Index int
}

func (UpAction) Category() Category           { return CategoryNavigation }
func (DownAction) Category() Category         { return CategoryNavigation }
func (PosAction) Category() Category          { return CategoryNavigation }
func (ForwardCharAction) Category() Category  { return CategoryNavigation }
func (BackwardCharAction) Category() Category { return CategoryNavigation }
func (ForwardWordAction) Category() Category  { return CategoryNavigation }
func (BackwardWordAction) Category() Category { return CategoryNavigation }
func (InputPosAction) Category() Category     { return CategoryNavigation }

// ===== PREVIEW =====

type CyclePreviewAction struct{}

// SetPreviewAction shows source Index, or the first source when HasIndex is
// false.
type SetPreviewAction struct {
	Index    int
	HasIndex bool
}

// SwitchPreviewAction switches to source Index, toggling visibility when it
// is already active or no index is given.
type SwitchPreviewAction struct {
	Index    int
	HasIndex bool
}

// PreviewAction runs a one-off command in the preview pane.
type PreviewAction struct {
	Command *column.Template
}
type PreviewUpAction struct {
	Count int
}
type PreviewDownAction struct {
	Count int
}
type PreviewHalfPageUpAction struct{}
type PreviewHalfPageDownAction struct{}
type ToggleWrapPreviewAction struct{}

// HelpAction toggles the help overlay; an empty Text shows the bind table.
type HelpAction struct {
	Text string
}

func (CyclePreviewAction) Category() Category        { return CategoryPreview }
func (SetPreviewAction) Category() Category          { return CategoryPreview }
func (SwitchPreviewAction) Category() Category       { return CategoryPreview }
func (PreviewAction) Category() Category             { return CategoryPreview }
func (PreviewUpAction) Category() Category           { return CategoryPreview }
func (PreviewDownAction) Category() Category         { return CategoryPreview }
func (PreviewHalfPageUpAction) Category() Category   { return CategoryPreview }
func (PreviewHalfPageDownAction) Category() Category { return CategoryPreview }
func (ToggleWrapPreviewAction) Category() Category   { return CategoryPreview }
func (HelpAction) Category() Category                { return CategoryPreview }

// ===== INPUT =====

type InputAction struct {
	Char rune
}
type SetInputAction struct {
	Text string
}
type CancelAction struct{}
type DeleteCharAction struct{}
type DeleteWordAction struct{}
type DeleteLineStartAction struct{}
type DeleteLineEndAction struct{}
type HistoryUpAction struct{}
type HistoryDownAction struct{}
type ToggleWrapAction struct{}

func (InputAction) Category() Category           { return CategoryInput }
func (SetInputAction) Category() Category        { return CategoryInput }
func (CancelAction) Category() Category          { return CategoryInput }
func (DeleteCharAction) Category() Category      { return CategoryInput }
func (DeleteWordAction) Category() Category      { return CategoryInput }
func (DeleteLineStartAction) Category() Category { return CategoryInput }
func (DeleteLineEndAction) Category() Category   { return CategoryInput }
func (HistoryUpAction) Category() Category       { return CategoryInput }
func (HistoryDownAction) Category() Category     { return CategoryInput }
func (ToggleWrapAction) Category() Category      { return CategoryInput }

// ===== UI =====

// SetHeaderAction replaces the header; without text the configured header
// comes back. SetFooterAction and SetPromptAction behave the same way.
type SetHeaderAction struct {
	Text    string
	HasText bool
}
type SetFooterAction struct {
	Text    string
	HasText bool
}
type SetPromptAction struct {
	Text    string
	HasText bool
}
type ColumnAction struct {
	Index int
}
type CycleColumnAction struct{}
type RedrawAction struct{}

// OverlayAction toggles a full-screen view of preview source Index.
type OverlayAction struct {
	Index    int
	HasIndex bool
}

func (SetHeaderAction) Category() Category   { return CategoryUI }
func (SetFooterAction) Category() Category   { return CategoryUI }
func (SetPromptAction) Category() Category   { return CategoryUI }
func (ColumnAction) Category() Category      { return CategoryUI }
func (CycleColumnAction) Category() Category { return CategoryUI }
func (RedrawAction) Category() Category      { return CategoryUI }
func (OverlayAction) Category() Category     { return CategoryUI }

// ===== SYSTEM =====
// System actions are carried out by the application loop; the reducer only
// records their outcome.

type ExecuteAction struct {
	Command *column.Template
}
type BecomeAction struct {
	Command *column.Template
}
type ReloadAction struct {
	Command *column.Template
}
type PrintAction struct {
	Template *column.Template
}

func (ExecuteAction) Category() Category { return CategorySystem }
func (BecomeAction) Category() Category  { return CategorySystem }
func (ReloadAction) Category() Category  { return CategorySystem }
func (PrintAction) Category() Category   { return CategorySystem }

// ===== INTERNAL =====

// StartAction runs once before the first frame.
type StartAction struct{}

// SnapshotAction delivers a worker ranking.
type SnapshotAction struct {
	Snapshot search.Snapshot
}

type ResizeAction struct {
	Width  int
	Height int
}

// PreviewLoadStartAction fires when a preview debounce timer expires.
type PreviewLoadStartAction struct {
	Source     int
	Generation uint64
}

// PreviewLoadResultAction carries streamed preview output.
type PreviewLoadResultAction struct {
	Result PreviewResult
}

// ReloadStartedAction reports that the store was replaced by version
// Version.
type ReloadStartedAction struct {
	Version uint64
}

// SourceDoneAction reports the end of a source command.
type SourceDoneAction struct {
	Version uint64
	Err     error
}

// StatusAction shows Err on the status line; nil clears it.
type StatusAction struct {
	Err error
}

type TickAction struct{}

func (StartAction) Category() Category             { return CategoryInternal }
func (SnapshotAction) Category() Category          { return CategoryInternal }
func (ResizeAction) Category() Category            { return CategoryInternal }
func (PreviewLoadStartAction) Category() Category  { return CategoryInternal }
func (PreviewLoadResultAction) Category() Category { return CategoryInternal }
func (ReloadStartedAction) Category() Category     { return CategoryInternal }
func (SourceDoneAction) Category() Category        { return CategoryInternal }
func (StatusAction) Category() Category            { return CategoryInternal }
func (TickAction) Category() Category              { return CategoryInternal }
