package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CharsetFinder/internal/detect"
)

// stubDetector reports the file content as the charset name.
type stubDetector struct {
	buf   bytes.Buffer
	onEnd func(content string)
}

func (d *stubDetector) Feed(p []byte) { d.buf.Write(p) }

func (d *stubDetector) Finish() string {
	s := strings.TrimSpace(d.buf.String())
	if d.onEnd != nil {
		d.onEnd(s)
	}
	if s == "" {
		return detect.Unknown
	}
	return s
}

func stubFactory() detect.Detector { return &stubDetector{} }

func newTestEngine(t *testing.T, fs afero.Fs, factory detect.Factory, threads int) *Engine {
	t.Helper()
	eng, err := NewEngine(Config{Fs: fs, Detector: factory, Threads: threads})
	require.NoError(t, err)
	return eng
}

func runEngine(ctx context.Context, eng *Engine, req *Request) ([]ScanProgress, Outcome) {
	var events []ScanProgress
	out := eng.Run(ctx, req, func(p ScanProgress) { events = append(events, p) })
	return events, out
}

func reportedNames(events []ScanProgress) []string {
	var out []string
	for _, p := range events {
		if p.Result != nil {
			out = append(out, p.Result.Name+"="+p.Result.Charset)
		}
	}
	return out
}

func requireMonotonic(t *testing.T, events []ScanProgress) {
	t.Helper()
	for i, p := range events {
		require.Equal(t, int64(i+1), p.Completed, "completed must grow by one per event")
		require.LessOrEqual(t, p.Completed, p.Total)
	}
}

func sampleTree(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"/data/a.txt":     "UTF-8",
		"/data/b.TXT":     "UTF-16",
		"/data/c.bin":     "windows-1252",
		"/data/e.txt":     "",
		"/data/sub/d.txt": "Shift_JIS",
	})
	return fs
}

func TestEngine_ViewAll(t *testing.T) {
	eng := newTestEngine(t, sampleTree(t), stubFactory, 2)

	req := &Request{Root: "/data", Recursive: true, MaskText: "*.txt"}
	events, out := runEngine(context.Background(), eng, req)

	require.Equal(t, StatusCompleted, out.Status)
	require.NoError(t, out.Err)
	assert.Equal(t, int64(5), out.Total, "total counts files before mask filtering")
	assert.Equal(t, int64(4), out.Completed)
	assert.Equal(t, int64(4), out.Reported)
	requireMonotonic(t, events)
	assert.Equal(t, []string{"a.txt=UTF-8", "b.TXT=UTF-16", "e.txt=Unknown", "d.txt=Shift_JIS"}, reportedNames(events))
	assert.Equal(t, filepath.Clean("/data/sub"), events[3].Result.Dir)
	assert.Equal(t, int64(1), eng.Stats().Masked.Load())
}

func TestEngine_NonRecursive(t *testing.T) {
	eng := newTestEngine(t, sampleTree(t), stubFactory, 1)

	events, out := runEngine(context.Background(), eng, &Request{Root: "/data", MaskText: "*"})
	require.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, int64(4), out.Total)
	assert.Equal(t, []string{"a.txt=UTF-8", "b.TXT=UTF-16", "c.bin=windows-1252", "e.txt=Unknown"}, reportedNames(events))
}

func TestEngine_Validate(t *testing.T) {
	eng := newTestEngine(t, sampleTree(t), stubFactory, 3)

	req := &Request{Root: "/data", Recursive: true, MaskText: "*.txt", Mode: ModeValidate, Accepted: []string{"utf-8", "shift_jis"}}
	events, out := runEngine(context.Background(), eng, req)

	require.Equal(t, StatusCompleted, out.Status)
	requireMonotonic(t, events)
	assert.Len(t, events, 4, "every inspected file advances progress")
	assert.Equal(t, []string{"b.TXT=UTF-16"}, reportedNames(events), "Unknown and accepted charsets are not flagged")
	assert.Equal(t, int64(1), out.Reported)
}

func TestEngine_EmptyMaskMatchesNothing(t *testing.T) {
	eng := newTestEngine(t, sampleTree(t), stubFactory, 1)

	events, out := runEngine(context.Background(), eng, &Request{Root: "/data", Recursive: true})
	require.Equal(t, StatusCompleted, out.Status)
	assert.Empty(t, events)
	assert.Equal(t, int64(5), out.Total)
}

func TestEngine_UnreadableFiles(t *testing.T) {
	mem := sampleTree(t)
	fs := &faultyFs{Fs: mem, deny: map[string]bool{filepath.Clean("/data/b.TXT"): true}}

	t.Run("view all reports unknown", func(t *testing.T) {
		eng := newTestEngine(t, fs, stubFactory, 2)
		events, out := runEngine(context.Background(), eng, &Request{Root: "/data", MaskText: "*.txt"})
		require.Equal(t, StatusCompleted, out.Status)
		require.Len(t, events, 3)
		res := events[1].Result
		require.NotNil(t, res)
		assert.Equal(t, "b.TXT", res.Name)
		assert.Equal(t, detect.Unknown, res.Charset)
		assert.True(t, errors.Is(res.Err, ErrFileUnreadable))
		assert.Equal(t, int64(1), eng.Stats().Errors.Load())
	})

	t.Run("skip unreadable", func(t *testing.T) {
		eng := newTestEngine(t, fs, stubFactory, 2)
		events, out := runEngine(context.Background(), eng, &Request{Root: "/data", MaskText: "*.txt", SkipUnreadable: true})
		require.Equal(t, StatusCompleted, out.Status)
		requireMonotonic(t, events)
		assert.Equal(t, []string{"a.txt=UTF-8", "e.txt=Unknown"}, reportedNames(events))
		assert.Equal(t, int64(3), out.Completed)
	})

	t.Run("validate never flags unreadable", func(t *testing.T) {
		eng := newTestEngine(t, fs, stubFactory, 2)
		events, _ := runEngine(context.Background(), eng, &Request{Root: "/data", MaskText: "*.txt", Mode: ModeValidate, Accepted: []string{"UTF-8"}})
		assert.Empty(t, reportedNames(events))
	})
}

func TestEngine_RootFailure(t *testing.T) {
	eng := newTestEngine(t, afero.NewMemMapFs(), stubFactory, 1)

	events, out := runEngine(context.Background(), eng, &Request{Root: "/nope", MaskText: "*"})
	assert.Empty(t, events)
	require.Equal(t, StatusFailed, out.Status)
	assert.True(t, errors.Is(out.Err, ErrRootEnumeration))
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	eng := newTestEngine(t, sampleTree(t), stubFactory, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, out := runEngine(ctx, eng, &Request{Root: "/data", MaskText: "*"})
	assert.Empty(t, events)
	assert.Equal(t, StatusCancelled, out.Status)
	assert.NoError(t, out.Err)
}

func TestEngine_CancelMidScan(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"/data/1.txt": "A",
		"/data/2.txt": "cancel",
		"/data/3.txt": "C",
		"/data/4.txt": "D",
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	factory := func() detect.Detector {
		return &stubDetector{onEnd: func(s string) {
			if s == "cancel" {
				cancel()
			}
		}}
	}
	eng := newTestEngine(t, fs, factory, 1)

	events, out := runEngine(ctx, eng, &Request{Root: "/data", MaskText: "*.txt"})
	require.Equal(t, StatusCancelled, out.Status)
	require.LessOrEqual(t, len(events), 1)
	for _, name := range reportedNames(events) {
		assert.Equal(t, "1.txt=A", name, "no result after cancellation")
	}
}

func TestEngine_OrderedWithManyWorkers(t *testing.T) {
	fs := afero.NewMemMapFs()
	var want []string
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("f%02d.txt", i)
		writeTree(t, fs, map[string]string{"/data/" + name: fmt.Sprintf("CS%d", i%3)})
		want = append(want, fmt.Sprintf("%s=CS%d", name, i%3))
	}
	factory := func() detect.Detector {
		return &stubDetector{onEnd: func(s string) {
			// later files finish first
			if s == "CS0" {
				time.Sleep(2 * time.Millisecond)
			}
		}}
	}
	eng := newTestEngine(t, fs, factory, 8)

	events, out := runEngine(context.Background(), eng, &Request{Root: "/data", MaskText: "*.TXT"})
	require.Equal(t, StatusCompleted, out.Status)
	requireMonotonic(t, events)
	assert.Equal(t, want, reportedNames(events))
}

func TestEngine_CacheIdempotent(t *testing.T) {
	fs := sampleTree(t)
	eng, err := NewEngine(Config{Fs: fs, Detector: stubFactory, Threads: 2, CacheSize: 16})
	require.NoError(t, err)

	req := Request{Root: "/data", Recursive: true, MaskText: "*.txt"}
	first, _ := runEngine(context.Background(), eng, &req)
	req2 := req
	second, out := runEngine(context.Background(), eng, &req2)

	require.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, reportedNames(first), reportedNames(second))
	assert.Equal(t, int64(4), eng.Stats().CacheHits.Load())
	assert.Equal(t, 4, eng.Cache().Len())
	assert.Equal(t, int64(2), eng.Stats().Runs.Load())
}

func TestEngine_RequestNotModified(t *testing.T) {
	eng := newTestEngine(t, sampleTree(t), stubFactory, 2)

	req := &Request{Root: "/data", Recursive: true, MaskText: "*.txt", Mode: ModeValidate, Accepted: []string{"UTF-8"}}
	before := *req
	events, out := runEngine(context.Background(), eng, req)

	require.Equal(t, StatusCompleted, out.Status)
	assert.Len(t, events, 4)
	assert.Equal(t, before, *req)
	assert.Nil(t, req.matcher)
	assert.Nil(t, req.accepted)
}
