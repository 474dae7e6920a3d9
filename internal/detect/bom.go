package detect

import "bytes"

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// sniffBOM reports the charset announced by a byte order mark at the start
// of head. UTF-32 marks are checked first since the UTF-16 LE mark is a
// prefix of the UTF-32 LE one.
func sniffBOM(head []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(head, bomUTF8):
		return "UTF-8", true
	case bytes.HasPrefix(head, bomUTF32LE), bytes.HasPrefix(head, bomUTF32BE):
		return "UTF-32", true
	case bytes.HasPrefix(head, bomUTF16LE), bytes.HasPrefix(head, bomUTF16BE):
		return "UTF-16", true
	}
	return "", false
}

// sample keeps the first max bytes fed to a detector.
type sample struct {
	buf []byte
	max int
	n   int64
}

func (s *sample) write(p []byte) {
	s.n += int64(len(p))
	if room := s.max - len(s.buf); room > 0 {
		if len(p) > room {
			p = p[:room]
		}
		s.buf = append(s.buf, p...)
	}
}
