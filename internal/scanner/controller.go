package scanner

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// eventBuffer is the per-run event channel capacity.
const eventBuffer = 256

// Controller owns at most one running scan. Start and Cancel never block
// on the scan itself; results arrive on the channel returned by Start.
type Controller struct {
	mu      sync.Mutex
	fs      afero.Fs
	scanner Scanner
	active  *run
}

type run struct {
	id     string
	cancel context.CancelFunc
}

// NewController creates a controller validating requests against fs and
// running them on s.
func NewController(fs afero.Fs, s Scanner) *Controller {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Controller{fs: fs, scanner: s}
}

// Start validates req and launches a run in the background. The returned
// channel receives ProgressEvents in order, then exactly one
// CompletedEvent, and is then closed. The caller must drain it.
//
// Start fails with ErrAlreadyRunning while a run is active, and with
// ErrInvalidDirectory or ErrEmptyAcceptedSet for a bad request.
func (c *Controller) Start(ctx context.Context, req Request) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, ErrAlreadyRunning
	}
	if err := req.Validate(c.fs); err != nil {
		return nil, err
	}
	req.Prepare()

	// created before the goroutine so an immediate Cancel is honored
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{id: uuid.NewString(), cancel: cancel}
	c.active = r

	events := make(chan Event, eventBuffer)
	go c.runScan(runCtx, r, &req, events)

	logrus.WithFields(logrus.Fields{"run": r.id, "root": req.Root, "mode": req.Mode}).Debug("Run started")
	return events, nil
}

func (c *Controller) runScan(ctx context.Context, r *run, req *Request, events chan<- Event) {
	defer close(events)

	outcome := c.scanner.Run(ctx, req, func(p ScanProgress) {
		events <- ProgressEvent{RunID: r.id, Progress: p}
	})

	c.mu.Lock()
	if c.active == r {
		c.active = nil
	}
	c.mu.Unlock()
	r.cancel()

	logrus.WithFields(logrus.Fields{"run": r.id, "status": outcome.Status}).Debug("Run finished")
	events <- CompletedEvent{RunID: r.id, Outcome: outcome}
}

// Cancel asks the active run to stop. It is a no-op when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.cancel()
	}
}

// Running reports whether a run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// RunID returns the active run's ID, or "" when idle.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.id
}
