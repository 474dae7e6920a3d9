package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"CharsetFinder/internal/detect"
)

const statsInterval = 500 * time.Millisecond

// Config configures an Engine. Zero values select defaults.
type Config struct {
	Fs        afero.Fs       // nil - OS filesystem
	Detector  detect.Factory // nil - detect.DefaultBackend
	Threads   int            // detection workers; <= 0 - GOMAXPROCS
	CacheSize int            // detection cache entries; <= 0 - disabled
	Stats     *AppStats
}

// Engine counts, walks, filters and detects. Detection runs on a bounded
// worker pool while results are emitted strictly in walker order.
type Engine struct {
	walker    *Walker
	inspector *inspector
	threads   int
	stats     *AppStats
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Detector == nil {
		f, err := detect.New(detect.DefaultBackend)
		if err != nil {
			return nil, err
		}
		cfg.Detector = f
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	if cfg.Stats == nil {
		cfg.Stats = &AppStats{}
	}
	cache, err := NewDetectionCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	w := NewWalker(cfg.Fs)
	return &Engine{
		walker:    w,
		inspector: &inspector{fs: w.fs, detector: cfg.Detector, cache: cache},
		threads:   cfg.Threads,
		stats:     cfg.Stats,
	}, nil
}

// Fs returns the filesystem the engine scans.
func (e *Engine) Fs() afero.Fs { return e.walker.fs }

// Stats returns the counters accumulated across runs.
func (e *Engine) Stats() *AppStats { return e.stats }

// Cache returns the detection cache, nil when disabled.
func (e *Engine) Cache() *DetectionCache { return e.inspector.cache }

// Run is the main pipeline: count, then walk -> queue -> pool -> ordered emit.
// An unprepared req is prepared on a copy; req itself is never written.
func (e *Engine) Run(ctx context.Context, req *Request, onProgress func(ScanProgress)) (out Outcome) {
	start := time.Now()
	defer func() { out.Elapsed = time.Since(start) }()
	e.stats.Runs.Add(1)

	if req.matcher == nil {
		prepared := *req
		prepared.Prepare()
		req = &prepared
	}
	root := e.walker.Abs(req.Root)
	depth := req.maxDepth()
	log := logrus.WithFields(logrus.Fields{"root": root, "mode": req.Mode})

	total, err := e.walker.Count(ctx, root, depth)
	if err != nil {
		if ctx.Err() != nil {
			out.Status = StatusCancelled
			return out
		}
		out.Status = StatusFailed
		out.Err = fmt.Errorf("%w: %v", ErrRootEnumeration, err)
		return out
	}
	out.Total = total
	log.WithField("total", total).Info("Scan started")

	pool, err := ants.NewPoolWithFunc(e.threads, func(i interface{}) {
		t := i.(*task)
		defer func() {
			if r := recover(); r != nil {
				t.done <- inspection{charset: detect.Unknown, err: fmt.Errorf("%w: detector panic: %v", ErrFileUnreadable, r)}
			}
		}()
		t.done <- e.inspector.inspect(ctx, t.path)
	})
	if err != nil {
		out.Status = StatusFailed
		out.Err = fmt.Errorf("pool: %w", err)
		return out
	}
	defer pool.Release()

	var candidates, masked atomic.Int64
	queue := make(chan *task, e.threads*2)

	// walker
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		return e.walker.Walk(gctx, root, depth, func(path string) error {
			// files created after the count pass are not part of this run
			if candidates.Load() >= total {
				return errStopWalk
			}
			candidates.Add(1)
			if !req.matches(baseName(path)) {
				masked.Add(1)
				return nil
			}
			t := newTask(path)
			select {
			case queue <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
			if err := pool.Invoke(t); err != nil {
				t.done <- inspection{charset: detect.Unknown, err: fmt.Errorf("submit task: %w", err)}
			}
			return nil
		})
	})

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var completed, reported, errorsC, hits int64
	cancelled, closing := false, false
	for !closing && !cancelled {
		select {
		case t, ok := <-queue:
			if !ok {
				closing = true
				break
			}
			res := <-t.done
			if res.cancelled || ctx.Err() != nil {
				cancelled = true
				break
			}
			completed++
			if res.err != nil {
				errorsC++
			}
			if res.cached {
				hits++
			}
			p := ScanProgress{Completed: completed, Total: total}
			if fr, ok := req.classify(t.path, res); ok {
				reported++
				p.Result = &fr
			}
			onProgress(p)
		case <-ticker.C:
			log.Infof("Stats: candidates=%d/%d masked=%d inspected=%d reported=%d errors=%d",
				candidates.Load(), total, masked.Load(), completed, reported, errorsC)
		case <-ctx.Done():
			cancelled = true
		}
	}

	walkErr := g.Wait()
	for t := range queue {
		<-t.done
	}

	e.stats.Candidates.Add(candidates.Load())
	e.stats.Masked.Add(masked.Load())
	e.stats.Inspected.Add(completed)
	e.stats.Reported.Add(reported)
	e.stats.Errors.Add(errorsC)
	e.stats.CacheHits.Add(hits)

	out.Completed, out.Reported = completed, reported
	switch {
	case cancelled:
		out.Status = StatusCancelled
	case walkErr != nil && ctx.Err() != nil:
		out.Status = StatusCancelled
	case walkErr != nil:
		out.Status = StatusFailed
		out.Err = fmt.Errorf("%w: %v", ErrRootEnumeration, walkErr)
	default:
		out.Status = StatusCompleted
	}
	log.WithFields(logrus.Fields{
		"status":    out.Status,
		"inspected": completed,
		"reported":  reported,
		"errors":    errorsC,
	}).Info("Scan finished")
	return out
}

var _ Scanner = (*Engine)(nil)
