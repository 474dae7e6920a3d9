//go:build !windows

package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CharsetFinder/internal/detect"
)

func TestEngine_NamedPipeIsNotOpened(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("UTF-8"), 0644))
	if err := syscall.Mkfifo(filepath.Join(dir, "pipe.txt"), 0644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}
	eng := newTestEngine(t, nil, stubFactory, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		events []ScanProgress
		out    Outcome
	}
	done := make(chan result, 1)
	go func() {
		events, out := runEngine(ctx, eng, &Request{Root: dir, MaskText: "*.txt"})
		done <- result{events, out}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run blocked on a named pipe")
	}

	require.Equal(t, StatusCompleted, res.out.Status)
	assert.Equal(t, int64(2), res.out.Total)
	assert.Equal(t, []string{"a.txt=UTF-8", "pipe.txt=" + detect.Unknown}, reportedNames(res.events))
	assert.True(t, errors.Is(res.events[1].Result.Err, ErrFileUnreadable))

	skip, out := runEngine(ctx, eng, &Request{Root: dir, MaskText: "*.txt", SkipUnreadable: true})
	require.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, []string{"a.txt=UTF-8"}, reportedNames(skip))
	assert.Equal(t, int64(2), out.Completed)
}

func TestEngine_SymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("UTF-8"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "b.txt"), []byte("KOI8-R"), 0644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))
	eng := newTestEngine(t, nil, stubFactory, 2)

	for _, recursive := range []bool{false, true} {
		events, out := runEngine(context.Background(), eng, &Request{Root: link, Recursive: recursive, MaskText: "*.txt"})
		require.Equal(t, StatusCompleted, out.Status)
		assert.Equal(t, int64(2), out.Total)
		assert.Equal(t, out.Total, out.Completed)
		assert.Equal(t, []string{"a.txt=UTF-8", "b.txt=KOI8-R"}, reportedNames(events))
		assert.Equal(t, eng.walker.Abs(link), events[0].Result.Dir)
	}
}
