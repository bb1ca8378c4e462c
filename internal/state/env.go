package state

import (
	"os"
	"strconv"
)

// Env is the FZF_* environment passed to child commands, appended to the
// process environment.
func (s *PickerState) Env() []string {
	env := os.Environ()
	pos := 0
	if s.Highlight >= 0 {
		pos = s.Highlight + 1
	}
	env = append(env,
		"FZF_LINES="+strconv.Itoa(s.ScreenHeight),
		"FZF_COLUMNS="+strconv.Itoa(s.ScreenWidth),
		"FZF_TOTAL_COUNT="+strconv.Itoa(s.Snapshot.Total),
		"FZF_MATCH_COUNT="+strconv.Itoa(len(s.Snapshot.Matches)),
		"FZF_SELECT_COUNT="+strconv.Itoa(s.Selection.Len()),
		"FZF_POS="+strconv.Itoa(pos),
		"FZF_QUERY="+s.QueryString(),
		"FZF_PROMPT="+s.Prompt,
	)
	if name := s.ColumnName(); name != "" {
		env = append(env, "FZF_ACTIVE_COLUMN="+name)
	}
	g := s.Geometry()
	if g.PreviewShown() {
		env = append(env,
			"FZF_PREVIEW_LINES="+strconv.Itoa(g.Preview.H),
			"FZF_PREVIEW_COLUMNS="+strconv.Itoa(g.Preview.W),
		)
	}
	return env
}
