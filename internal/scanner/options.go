package scanner

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"CharsetFinder/internal/detect"
)

// Request describes one scan. It is copied by the controller and not
// modified once the run starts.
type Request struct {
	Root      string
	Recursive bool
	Depth     int // max depth when Recursive; 0 - unlimited
	MaskText  string
	Mode      Mode
	Accepted  []string
	// SkipUnreadable drops files that fail to read instead of reporting
	// them as Unknown.
	SkipUnreadable bool

	matcher  *Matcher
	accepted map[string]struct{}
}

// Validate checks the request against fs. All violations are returned
// together; use errors.Is to test for a specific one.
func (r *Request) Validate(fs afero.Fs) error {
	var result *multierror.Error
	if r.Root == "" {
		result = multierror.Append(result, fmt.Errorf("%w: empty path", ErrInvalidDirectory))
	} else if st, err := fs.Stat(r.Root); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %v", ErrInvalidDirectory, err))
	} else if !st.IsDir() {
		result = multierror.Append(result, fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, r.Root))
	}
	if r.Mode == ModeValidate && len(nonEmpty(r.Accepted)) == 0 {
		result = multierror.Append(result, ErrEmptyAcceptedSet)
	}
	if r.Depth < 0 {
		result = multierror.Append(result, fmt.Errorf("depth must be >= 0, got %d", r.Depth))
	}
	return result.ErrorOrNil()
}

// Prepare compiles the mask and the canonical accepted set.
func (r *Request) Prepare() {
	r.matcher = CompileMasks(r.MaskText)
	if r.matcher.Len() == 0 {
		logrus.Warn("Mask list is empty, no file will match")
	}
	r.accepted = make(map[string]struct{}, len(r.Accepted))
	for _, cs := range nonEmpty(r.Accepted) {
		if !detect.IsKnown(cs) {
			logrus.WithField("charset", cs).Warn("Accepted charset is not reported by any detector")
		}
		r.accepted[acceptKey(cs)] = struct{}{}
	}
}

// maxDepth maps Recursive/Depth to the walker depth limit.
func (r *Request) maxDepth() int {
	if !r.Recursive {
		return 1
	}
	return r.Depth
}

// matches requires a prepared request; unprepared ones match nothing.
func (r *Request) matches(name string) bool {
	if r.matcher == nil {
		return false
	}
	return r.matcher.Matches(name)
}

// flagged reports whether a detected charset violates the accepted set.
// Unknown is never a violation.
func (r *Request) flagged(charset string) bool {
	if charset == detect.Unknown {
		return false
	}
	_, ok := r.accepted[acceptKey(charset)]
	return !ok
}

// classify decides whether an inspected file is reported.
func (r *Request) classify(path string, in inspection) (FileResult, bool) {
	res := FileResult{Name: baseName(path), Dir: dirName(path), Charset: in.charset, Err: in.err}
	if in.err != nil {
		res.Charset = detect.Unknown
		return res, r.Mode == ModeViewAll && !r.SkipUnreadable
	}
	if r.Mode == ModeViewAll {
		return res, true
	}
	return res, r.flagged(in.charset)
}

func acceptKey(charset string) string {
	return strings.ToUpper(detect.Canonical(charset))
}

func nonEmpty(s []string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}
