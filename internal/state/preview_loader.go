package state

// PreviewLoader runs preview commands asynchronously.
type PreviewLoader interface {
	Start(req PreviewRequest)
	Cancel(source int, generation uint64)
}

// PreviewRequest describes one preview run for one target.
type PreviewRequest struct {
	Source     int
	Generation uint64
	Target     int
	Command    string
	Columns    int
	Lines      int
	Env        []string
	Callback   func(PreviewResult)
}

// PreviewResult carries streamed output. Done is set on the final delivery.
type PreviewResult struct {
	Source     int
	Generation uint64
	Target     int
	Lines      []string
	Err        error
	Done       bool
}
