package sse

import (
	"bufio"
	"io"
)

const maxLineSize = 2 * 1024 * 1024

// Reader pulls events from a byte stream. Next returns io.EOF once the input
// is exhausted and any trailing event has been delivered.
type Reader struct {
	scanner *bufio.Scanner
	parser  Parser
	eof     bool
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, maxLineSize)
	return &Reader{scanner: sc}
}

func (r *Reader) Next() (Event, error) {
	for !r.eof && r.scanner.Scan() {
		if ev, ok := r.parser.Feed(r.scanner.Text()); ok {
			return ev, nil
		}
	}

	if !r.eof {
		r.eof = true
		if err := r.scanner.Err(); err != nil {
			return Event{}, err
		}
		if ev, ok := r.parser.Flush(); ok {
			return ev, nil
		}
	}
	return Event{}, io.EOF
}
