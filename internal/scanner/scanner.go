package scanner

import (
	"context"
)

// Scanner runs one scan to a terminal outcome, reporting progress for
// every inspected file in walker order. Run must not be called
// concurrently on the same Scanner.
type Scanner interface {
	Run(ctx context.Context, req *Request, onProgress func(ScanProgress)) Outcome
}

// task is one mask-matching file queued for inspection. done receives
// exactly one inspection.
type task struct {
	path string
	done chan inspection
}

func newTask(path string) *task {
	return &task{path: path, done: make(chan inspection, 1)}
}
