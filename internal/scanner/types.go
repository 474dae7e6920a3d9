package scanner

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects what a scan reports.
type Mode int

const (
	// ModeViewAll reports every inspected file.
	ModeViewAll Mode = iota
	// ModeValidate reports only files whose charset is known and not accepted.
	ModeValidate
)

func (m Mode) String() string {
	switch m {
	case ModeViewAll:
		return "view"
	case ModeValidate:
		return "validate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "view", "viewall", "all" and "validate" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "view", "viewall", "view-all", "all":
		return ModeViewAll, nil
	case "validate", "check":
		return ModeValidate, nil
	}
	return ModeViewAll, fmt.Errorf("unknown mode %q (want view or validate)", s)
}

// FileResult is one reported file.
type FileResult struct {
	Name    string
	Dir     string
	Charset string
	// Err is set when the file could not be read; Charset is then Unknown.
	Err error
}

// ScanProgress is emitted once per inspected file, in walker order.
type ScanProgress struct {
	// Result is nil when the inspected file is not reported (Validate mode).
	Result    *FileResult
	Completed int64
	Total     int64
}

// Percent returns Completed/Total as a percentage. An empty tree is 100%.
func (p ScanProgress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Completed) * 100 / float64(p.Total)
}

// Status is the terminal state of a run.
type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome summarizes a finished run.
type Outcome struct {
	Status    Status
	Err       error // set only for StatusFailed
	Total     int64
	Completed int64
	Reported  int64
	Elapsed   time.Duration
}
