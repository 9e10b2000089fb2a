package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/relay"
	"chatbots-be/pkg/sse"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type written struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu      sync.Mutex
	writes  []written
	closed  chan struct{}
	once    sync.Once
	readErr chan error
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{}), readErr: make(chan error, 1)}
}

func (c *fakeConn) SetReadLimit(int64) {}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) WriteMessage(kind int, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return errors.New("use of closed connection")
	default:
	}
	c.writes = append(c.writes, written{kind: kind, data: append([]byte(nil), p...)})
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case err := <-c.readErr:
		return 0, nil, err
	case <-c.closed:
		return 0, nil, io.EOF
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) frames(t *testing.T) []Frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Frame
	for _, w := range c.writes {
		if w.kind != websocket.TextMessage {
			continue
		}
		var f Frame
		require.NoError(t, json.Unmarshal(w.data, &f))
		out = append(out, f)
	}
	return out
}

func (c *fakeConn) lastKind() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		return -1
	}
	return c.writes[len(c.writes)-1].kind
}

type scriptedStream struct {
	events []sse.Event
	err    error
	// block waits for cancellation after sending events.
	block bool
}

func (s *scriptedStream) Relay(ctx context.Context, sink relay.Sink) error {
	for _, ev := range s.events {
		if err := sink.Send(ev); err != nil {
			return apperror.Cancelled(err)
		}
	}
	if s.block {
		<-ctx.Done()
		return apperror.Cancelled(ctx.Err())
	}
	return s.err
}

func TestServeStreamWritesFramesAndCloses(t *testing.T) {
	conn := newFakeConn()
	stream := &scriptedStream{events: []sse.Event{
		{Name: relay.CorrelationEventName, Data: "chatbot-1-response-x"},
		{Data: `{"delta":"Hi"}`},
		sse.Done(),
	}}

	err := ServeStream(context.Background(), conn, stream, "abc", logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, []Frame{
		{Event: "response_id", Data: "chatbot-1-response-x"},
		{Data: `{"delta":"Hi"}`},
		{Event: "done", Data: "[DONE]"},
	}, conn.frames(t))
	assert.Equal(t, websocket.CloseMessage, conn.lastKind())
}

func TestServeStreamCancelsWhenPeerLeaves(t *testing.T) {
	conn := newFakeConn()
	stream := &scriptedStream{events: []sse.Event{{Name: "response_id", Data: "r"}}, block: true}

	done := make(chan error, 1)
	go func() {
		done <- ServeStream(context.Background(), conn, stream, "abc", logger.NewNopLogger())
	}()

	conn.readErr <- errors.New("websocket: close 1001 (going away)")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, apperror.ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream was not cancelled after the peer disconnected")
	}
	assert.Len(t, conn.frames(t), 1)
}

func TestServeStreamReportsUpstreamFailure(t *testing.T) {
	conn := newFakeConn()
	stream := &scriptedStream{err: apperror.UpstreamUnavailable(io.ErrUnexpectedEOF, "Reading the upstream stream failed")}

	err := ServeStream(context.Background(), conn, stream, "abc", logger.NewNopLogger())
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
	assert.Equal(t, websocket.CloseMessage, conn.lastKind())
}
