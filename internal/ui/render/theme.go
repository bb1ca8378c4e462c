package render

import "github.com/gdamore/tcell/v2"

// ColorTheme defines picker colors.
type ColorTheme struct {
	Background   tcell.Color
	Foreground   tcell.Color
	PromptFg     tcell.Color
	InfoFg       tcell.Color
	SpinnerFg    tcell.Color
	ErrorFg      tcell.Color
	HeaderFg     tcell.Color
	CursorFg     tcell.Color
	MarkerFg     tcell.Color
	SelectionBg  tcell.Color
	SelectionFg  tcell.Color
	MatchFg      tcell.Color
	SeparatorFg  tcell.Color
	PreviewBg    tcell.Color
	PreviewFg    tcell.Color
	ScrollInfoFg tcell.Color
	HelpTitleBg  tcell.Color
	HelpTitleFg  tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		Background:   tcell.ColorDefault,
		Foreground:   tcell.ColorDefault,
		PromptFg:     tcell.Color33,
		InfoFg:       tcell.ColorLightSlateGray,
		SpinnerFg:    tcell.Color44,
		ErrorFg:      tcell.ColorRed,
		HeaderFg:     tcell.Color109,
		CursorFg:     tcell.Color161,
		MarkerFg:     tcell.Color168,
		SelectionBg:  tcell.Color236, // dark grey bar behind the cursor row
		SelectionFg:  tcell.Color254,
		MatchFg:      tcell.Color108,
		SeparatorFg:  tcell.Color59,
		PreviewBg:    tcell.ColorDefault,
		PreviewFg:    tcell.ColorDefault,
		ScrollInfoFg: tcell.Color110,
		HelpTitleBg:  tcell.Color33,
		HelpTitleFg:  tcell.ColorWhite,
	}
}
