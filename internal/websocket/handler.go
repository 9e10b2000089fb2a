package websocket

import (
	"context"
	"time"

	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/relay"

	"github.com/gofiber/websocket/v2"
)

// Stream is an opened relay stream.
type Stream interface {
	Relay(ctx context.Context, sink relay.Sink) error
}

// ServeStream relays stream over conn and closes the socket afterwards. The
// stream is cancelled as soon as the peer disconnects.
func ServeStream(ctx context.Context, conn Conn, stream Stream, sessionId string, log logger.ILogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := NewClient(conn, sessionId, log)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		client.readPump(cancel)
	}()

	err := stream.Relay(ctx, client)
	switch {
	case err == nil:
		writeClose(conn, websocket.CloseNormalClosure, "")
	case apperror.KindOf(err) != apperror.ErrCancelled:
		writeClose(conn, websocket.CloseInternalServerErr, "upstream stream failed")
	}
	conn.Close()
	<-readerDone
	return err
}

func writeClose(conn Conn, code int, text string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}
