// Package detect wraps charset detection libraries behind a two-phase
// Feed/Finish contract. A Detector is used for exactly one file and never
// fails: Unknown is the only negative outcome.
package detect

import (
	"fmt"
	"sort"
	"strings"
)

// Unknown is reported when no charset could be determined.
const Unknown = "Unknown"

// Detector consumes the bytes of one file in read order.
type Detector interface {
	// Feed may be called any number of times with consecutive chunks.
	Feed(p []byte)
	// Finish is called once after the last Feed and returns a charset
	// identifier or Unknown.
	Finish() string
}

// Factory creates a fresh Detector. Detectors carry no cross-file state.
type Factory func() Detector

const (
	BackendChardet = "chardet"
	BackendMime    = "mime"
)

// DefaultBackend is the statistical detector.
const DefaultBackend = BackendChardet

var backends = map[string]Factory{
	BackendChardet: func() Detector { return newChardetDetector() },
	BackendMime:    func() Detector { return newMimeDetector() },
}

// New returns the factory for a named backend. Names are case-insensitive;
// an empty name selects DefaultBackend.
func New(backend string) (Factory, error) {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == "" {
		name = DefaultBackend
	}
	f, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown detector backend %q (available: %s)", backend, strings.Join(Backends(), ", "))
	}
	return f, nil
}

// Backends lists the registered backend names.
func Backends() []string {
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Detect runs a fresh detector from f over b in one chunk.
func Detect(f Factory, b []byte) string {
	d := f()
	d.Feed(b)
	return d.Finish()
}
