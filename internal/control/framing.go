package control

import "bytes"

// LineReader splits a stream of partial reads into newline-terminated lines.
// At most limit bytes of an unterminated line are held; a longer line is
// dropped in full, including the remainder that arrives in later reads.
type LineReader struct {
	pending    []byte
	limit      int
	discarding bool
}

func NewLineReader(limit int) *LineReader {
	if limit <= 0 {
		limit = 2048
	}
	return &LineReader{limit: limit}
}

// Feed consumes data and returns the lines it completed, in arrival order,
// without their terminators. dropped reports whether an oversized line was
// discarded.
func (r *LineReader) Feed(data []byte) (lines []string, dropped bool) {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')

		if r.discarding {
			if i < 0 {
				return lines, dropped
			}
			data = data[i+1:]
			r.discarding = false
			continue
		}

		if i < 0 {
			r.pending = append(r.pending, data...)
			if len(r.pending) > r.limit {
				r.pending = r.pending[:0]
				r.discarding = true
				dropped = true
			}
			return lines, dropped
		}

		if len(r.pending)+i > r.limit {
			dropped = true
		} else {
			lines = append(lines, string(append(r.pending, data[:i]...)))
		}
		r.pending = r.pending[:0]
		data = data[i+1:]
	}
	return lines, dropped
}

// Reset drops any incomplete line, including one being discarded.
func (r *LineReader) Reset() {
	r.pending = r.pending[:0]
	r.discarding = false
}

// Pending is the number of buffered bytes of an incomplete line.
func (r *LineReader) Pending() int {
	return len(r.pending)
}
