package scanner

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"CharsetFinder/internal/detect"
)

const readChunk = 32 * 1024

// inspection is the outcome of detecting one file.
type inspection struct {
	charset   string
	err       error
	cached    bool
	cancelled bool // run cancelled before the file was opened
}

// inspector opens files and feeds them to fresh detectors.
type inspector struct {
	fs       afero.Fs
	detector detect.Factory
	cache    *DetectionCache
}

// inspect detects the charset of path. Cancellation is checked once,
// before the file is opened; a file being read runs to completion.
func (in *inspector) inspect(ctx context.Context, path string) inspection {
	if ctx.Err() != nil {
		return inspection{cancelled: true}
	}
	st, err := in.fs.Stat(path)
	if err != nil {
		return unreadable(path, err)
	}
	// pipes, sockets and devices may block or never end
	if !st.Mode().IsRegular() {
		return unreadable(path, fmt.Errorf("not a regular file (%s)", st.Mode().Type()))
	}
	if cs, ok := in.cache.Get(path, st); ok {
		return inspection{charset: cs, cached: true}
	}

	f, err := in.fs.Open(path)
	if err != nil {
		return unreadable(path, err)
	}
	defer f.Close()

	cs, err := feedDetector(f, in.detector())
	if err != nil {
		return unreadable(path, err)
	}
	in.cache.Add(path, st, cs)
	return inspection{charset: cs}
}

// feedDetector streams r into d in read order and returns d.Finish().
func feedDetector(r io.Reader, d detect.Detector) (string, error) {
	buf := make([]byte, readChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Feed(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return detect.Unknown, err
		}
	}
	return d.Finish(), nil
}

func unreadable(path string, err error) inspection {
	logrus.WithFields(logrus.Fields{"file": path, "err": err}).Warn("Error reading file")
	return inspection{charset: detect.Unknown, err: fmt.Errorf("%w: %v", ErrFileUnreadable, err)}
}
