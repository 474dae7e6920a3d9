package scanner

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// maxRootLinks bounds symlink hops when resolving a root.
const maxRootLinks = 40

// Walker enumerates candidate files under a root. Every non-directory
// entry is a candidate. Unreadable subdirectories are skipped; an
// unreadable root is an error.
type Walker struct {
	fs afero.Fs
}

// NewWalker returns a Walker over fs; nil means the OS filesystem.
func NewWalker(fs afero.Fs) *Walker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Walker{fs: fs}
}

func (w *Walker) isOS() bool {
	_, ok := w.fs.(*afero.OsFs)
	return ok
}

// Abs makes root absolute on the OS filesystem and cleans it elsewhere.
func (w *Walker) Abs(root string) string {
	if w.isOS() {
		if abs, err := filepath.Abs(root); err == nil {
			return abs
		}
	}
	return filepath.Clean(root)
}

// resolve follows symlinks at root so the walk descends into the target
// directory instead of reporting the link itself. Errors leave root as is;
// the walk then reports them.
func (w *Walker) resolve(root string) string {
	if w.isOS() {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			return resolved
		}
		return root
	}
	lst, okL := w.fs.(afero.Lstater)
	lr, okR := w.fs.(afero.LinkReader)
	if !okL || !okR {
		return root
	}
	for i := 0; i < maxRootLinks; i++ {
		info, lstatCalled, err := lst.LstatIfPossible(root)
		if err != nil || !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
			return root
		}
		target, err := lr.ReadlinkIfPossible(root)
		if err != nil {
			return root
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(root), target)
		}
		root = filepath.Clean(target)
	}
	return root
}

// Walk calls fn for every candidate file, in lexical order per directory,
// down to maxDepth levels below root (0 - unlimited). Returning errStopWalk
// from fn ends the walk with a nil error.
//
// A symlinked root is followed; reported paths stay under root as given.
func (w *Walker) Walk(ctx context.Context, root string, maxDepth int, fn func(path string) error) error {
	root = w.Abs(root)
	resolved := w.resolve(root)
	err := afero.Walk(w.fs, resolved, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == resolved {
				return err
			}
			logrus.WithFields(logrus.Fields{"path": path, "err": err}).Debug(ErrDirectoryUnreadable)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		r := rel(resolved, path)
		if info.IsDir() {
			if path != resolved && maxDepth > 0 && depthCount(r) >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if maxDepth > 0 && depthCount(r) > maxDepth {
			return nil
		}
		return fn(filepath.Join(root, r))
	})
	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

// Count returns the number of candidate files Walk would visit. Unlimited
// OS scans are counted in parallel with fastwalk.
func (w *Walker) Count(ctx context.Context, root string, maxDepth int) (int64, error) {
	root = w.Abs(root)
	if maxDepth == 0 && w.isOS() {
		return w.fastCount(ctx, w.resolve(root))
	}
	var n int64
	err := w.Walk(ctx, root, maxDepth, func(string) error {
		n++
		return nil
	})
	return n, err
}

func (w *Walker) fastCount(ctx context.Context, root string) (int64, error) {
	// fastwalk reports an unreadable root like any other directory
	if _, err := afero.ReadDir(w.fs, root); err != nil {
		return 0, err
	}
	var n atomic.Int64
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, root, func(path string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == root {
				return err
			}
			logrus.WithFields(logrus.Fields{"path": path, "err": err}).Debug(ErrDirectoryUnreadable)
			return nil
		}
		if !d.IsDir() {
			n.Add(1)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n.Load(), nil
}

func rel(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return r
}

func depthCount(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}

func baseName(path string) string { return filepath.Base(path) }

func dirName(path string) string { return filepath.Dir(path) }
