// Package frame turns a raw transport byte stream into complete,
// trimmed, UTF-8 validated text lines over a fixed-capacity buffer.
// Nothing here grows: a line that does not fit is lost in full.
package frame

import (
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// DefaultCapacity bounds one accumulated line, terminator excluded.
const DefaultCapacity = 512

// Stats counts lines the framer dropped on the floor. Diagnostic only;
// none of these are surfaced to the peer because no correlation id is
// recoverable from a broken line.
type Stats struct {
	Oversize    uint64
	InvalidUTF8 uint64
	Empty       uint64
}

// Framer accumulates bytes until a line feed and emits the finished
// line. Partial lines are retained across Feed calls; the only way
// buffered bytes are lost is the overflow path.
type Framer struct {
	buf        []byte
	discarding bool
	stats      Stats
}

func New(capacity int) *Framer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Framer{buf: make([]byte, 0, capacity)}
}

// Feed consumes one transport chunk and returns the completed lines in
// arrival order. One trailing CR per line is tolerated; empty lines,
// non-UTF-8 lines, and lines exceeding capacity are silently dropped.
func (f *Framer) Feed(p []byte) []string {
	var lines []string
	for _, b := range p {
		if b == '\n' {
			if f.discarding {
				// tail of an oversized line; the line is already gone
				f.discarding = false
				continue
			}
			if line, ok := f.complete(); ok {
				lines = append(lines, line)
			}
			continue
		}
		if f.discarding {
			continue
		}
		if len(f.buf) == cap(f.buf) {
			f.stats.Oversize++
			log.Warn().Int("capacity", cap(f.buf)).Msg("line too long, dropping")
			f.buf = f.buf[:0]
			f.discarding = true
			continue
		}
		f.buf = append(f.buf, b)
	}
	return lines
}

// complete finalizes the buffered bytes as one candidate line and
// resets the buffer.
func (f *Framer) complete() (string, bool) {
	line := f.buf
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	defer func() { f.buf = f.buf[:0] }()

	if len(line) == 0 {
		f.stats.Empty++
		return "", false
	}
	if !utf8.Valid(line) {
		f.stats.InvalidUTF8++
		log.Warn().Int("bytes", len(line)).Msg("non-UTF8 line, ignoring")
		return "", false
	}
	return string(line), true
}

func (f *Framer) Stats() Stats {
	return f.stats
}
