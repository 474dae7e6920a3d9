package detect

import (
	"bytes"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// chardetSampleSize bounds the bytes handed to the statistical detector.
const chardetSampleSize = 256 * 1024

// chardetDetector checks UTF-8 validity over the whole stream and falls back
// to saintfish/chardet on a bounded sample for everything else.
type chardetDetector struct {
	head    sample
	pending []byte // incomplete trailing rune carried into the next Feed
	invalid bool
	hasNUL  bool
}

func newChardetDetector() *chardetDetector {
	return &chardetDetector{head: sample{max: chardetSampleSize}}
}

func (d *chardetDetector) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	d.head.write(p)
	if !d.hasNUL && bytes.IndexByte(p, 0) >= 0 {
		d.hasNUL = true
	}
	if d.invalid {
		return
	}

	buf := p
	if len(d.pending) > 0 {
		buf = append(d.pending, p...)
		d.pending = nil
	}
	cut := incompleteTail(buf)
	if !utf8.Valid(buf[:cut]) {
		d.invalid = true
		return
	}
	if cut < len(buf) {
		d.pending = append([]byte(nil), buf[cut:]...)
	}
}

func (d *chardetDetector) Finish() string {
	if d.head.n == 0 {
		return Unknown
	}
	if cs, ok := sniffBOM(d.head.buf); ok {
		return cs
	}
	if d.hasNUL {
		// no BOM and NUL bytes: binary, or UTF-16/32 we cannot tell apart
		return Unknown
	}
	if !d.invalid && len(d.pending) == 0 {
		// 7-bit ASCII is valid UTF-8
		return "UTF-8"
	}
	res, err := chardet.NewTextDetector().DetectBest(d.head.buf)
	if err != nil || res == nil || res.Charset == "" || res.Confidence <= 0 {
		return Unknown
	}
	return Canonical(res.Charset)
}

// incompleteTail returns the index where a trailing, not yet complete UTF-8
// sequence starts, or len(b) when b ends on a rune boundary.
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax+1; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return len(b)
}
