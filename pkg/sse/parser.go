// Package sse reads and writes the text/event-stream wire format.
package sse

import "strings"

const (
	// DoneSentinel is the data payload that ends a stream.
	DoneSentinel = "[DONE]"
	// DoneEventName names the terminal event sent to clients.
	DoneEventName = "done"
)

type Event struct {
	Name   string
	Data   string
	IsDone bool
}

// Done is the terminal event written once a stream completes.
func Done() Event {
	return Event{Name: DoneEventName, Data: DoneSentinel, IsDone: true}
}

// Parser turns lines into events. It is a two-state machine (idle or
// accumulating) and holds nothing beyond the pending event, so a fresh
// Parser, or one after Reset, is independent of any earlier stream.
type Parser struct {
	name string
	data []string
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes one line without its terminator. It returns an event when
// the line completes one.
func (p *Parser) Feed(line string) (Event, bool) {
	switch {
	case strings.TrimSpace(line) == "":
		return p.emit()
	case strings.HasPrefix(line, "event:"):
		p.name = strings.TrimSpace(line[len("event:"):])
	case strings.HasPrefix(line, "data:"):
		p.data = append(p.data, strings.TrimSpace(line[len("data:"):]))
	}
	// comments, id:, retry: and anything unknown are ignored
	return Event{}, false
}

// Flush emits the pending event at end of input, if there is one.
func (p *Parser) Flush() (Event, bool) {
	return p.emit()
}

func (p *Parser) Reset() {
	p.name = ""
	p.data = nil
}

func (p *Parser) emit() (Event, bool) {
	// A name without data carries over to the next event.
	if len(p.data) == 0 {
		return Event{}, false
	}
	data := strings.TrimRight(strings.Join(p.data, "\n"), " \t\r\n")
	ev := Event{
		Name:   p.name,
		Data:   data,
		IsDone: strings.EqualFold(strings.TrimSpace(data), DoneSentinel),
	}
	p.Reset()
	return ev, true
}
