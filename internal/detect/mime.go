package detect

import (
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

// mimeSampleSize matches mimetype's default read limit.
const mimeSampleSize = 3072

// mimeDetector reports the charset parameter mimetype attaches to text
// types. Files sniffed as non-text yield Unknown.
type mimeDetector struct {
	head sample
}

func newMimeDetector() *mimeDetector {
	return &mimeDetector{head: sample{max: mimeSampleSize}}
}

func (d *mimeDetector) Feed(p []byte) { d.head.write(p) }

func (d *mimeDetector) Finish() string {
	if d.head.n == 0 {
		return Unknown
	}
	if cs, ok := sniffBOM(d.head.buf); ok {
		return cs
	}
	_, params, err := mime.ParseMediaType(mimetype.Detect(d.head.buf).String())
	if err != nil {
		return Unknown
	}
	cs, ok := params["charset"]
	if !ok || cs == "" {
		return Unknown
	}
	return Canonical(cs)
}
