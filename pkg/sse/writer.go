package sse

import (
	"bytes"
	"io"
	"strings"
)

// Writer frames events onto w and flushes after every frame so the client
// sees each one immediately.
type Writer struct {
	w     io.Writer
	flush func() error
}

// NewWriter wraps w. flush may be nil when w is unbuffered.
func NewWriter(w io.Writer, flush func() error) *Writer {
	return &Writer{w: w, flush: flush}
}

func (w *Writer) WriteEvent(ev Event) error {
	if _, err := w.w.Write(Format(ev)); err != nil {
		return err
	}
	return w.doFlush()
}

// WriteKeepAlive sends a comment line, which parsers ignore.
func (w *Writer) WriteKeepAlive() error {
	if _, err := io.WriteString(w.w, ": ping\n\n"); err != nil {
		return err
	}
	return w.doFlush()
}

func (w *Writer) doFlush() error {
	if w.flush == nil {
		return nil
	}
	return w.flush()
}

// Format renders one event frame. Multi-line data becomes one data line per
// line so it survives a round trip through Parser.
func Format(ev Event) []byte {
	var buf bytes.Buffer
	if ev.Name != "" {
		buf.WriteString("event: ")
		buf.WriteString(ev.Name)
		buf.WriteByte('\n')
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
