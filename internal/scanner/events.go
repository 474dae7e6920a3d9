package scanner

// Event is sent on a run's event channel.
type Event interface {
	isEvent()
}

// ProgressEvent carries one inspected file.
type ProgressEvent struct {
	RunID    string
	Progress ScanProgress
}

func (ProgressEvent) isEvent() {}

// CompletedEvent is the last event of a run, sent exactly once.
type CompletedEvent struct {
	RunID   string
	Outcome Outcome
}

func (CompletedEvent) isEvent() {}
