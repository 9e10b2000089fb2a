package controller

import (
	"bufio"
	"context"

	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/pkg/ratelimit"
	"chatbots-be/internal/relay"
	appws "chatbots-be/internal/websocket"
	"chatbots-be/pkg/sse"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	localStream       = "relay_stream"
	localStreamCtx    = "relay_stream_ctx"
	localStreamCancel = "relay_stream_cancel"
)

type IStreamController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
}

type streamController struct {
	base    context.Context
	relay   *relay.StreamRelay
	limiter *ratelimit.FixedWindowLimiter
	logger  logger.ILogger
}

// NewStreamController wires the relay endpoints. Every stream is cancelled
// when base is done. limiter may be nil.
func NewStreamController(base context.Context, relay *relay.StreamRelay, limiter *ratelimit.FixedWindowLimiter, logger logger.ILogger) IStreamController {
	return &streamController{base: base, relay: relay, limiter: limiter, logger: logger}
}

func (c *streamController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbots/:chatbotId/sessions/:sessionId")
	h.Get("/stream", ratelimit.Middleware(c.limiter, "stream"), c.Stream)
	h.Get("/ws", ratelimit.Middleware(c.limiter, "stream"), c.openSocket, websocket.New(c.serveSocket))
}

// sseSink writes relay events as text/event-stream frames.
type sseSink struct {
	w *sse.Writer
}

func (s sseSink) Send(ev sse.Event) error { return s.w.WriteEvent(ev) }
func (s sseSink) KeepAlive() error        { return s.w.WriteKeepAlive() }

// Stream answers with an event stream. Errors found while opening the
// upstream are returned as a normal error response; once the first byte is
// written the outcome is only visible in the stream itself.
func (c *streamController) Stream(ctx *fiber.Ctx) error {
	stream, streamCtx, cancel, err := c.open(ctx)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		// A write error surfaces as a cancelled stream; Relay logs the outcome.
		_ = stream.Relay(streamCtx, sseSink{w: sse.NewWriter(w, w.Flush)})
	})
	return nil
}

// open resolves the stream before anything is written. The returned context
// outlives the handler and must be cancelled by the caller. It is not tied to
// the request, since fasthttp runs the body writer after the handler returns.
func (c *streamController) open(ctx *fiber.Ctx) (*relay.Stream, context.Context, context.CancelFunc, error) {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return nil, nil, nil, err
	}
	sessionId := stringParam(ctx, "sessionId")

	streamCtx, cancel := context.WithCancel(c.base)
	stream, err := c.relay.Open(streamCtx, chatbotId, sessionId)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return stream, streamCtx, cancel, nil
}

// openSocket opens the upstream before the upgrade, so failures still get a
// JSON error response.
func (c *streamController) openSocket(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	stream, streamCtx, cancel, err := c.open(ctx)
	if err != nil {
		return err
	}
	ctx.Locals(localStream, stream)
	ctx.Locals(localStreamCtx, streamCtx)
	ctx.Locals(localStreamCancel, cancel)

	if err := ctx.Next(); err != nil {
		stream.Close()
		cancel()
		return err
	}
	return nil
}

func (c *streamController) serveSocket(conn *websocket.Conn) {
	stream, _ := conn.Locals(localStream).(*relay.Stream)
	streamCtx, _ := conn.Locals(localStreamCtx).(context.Context)
	cancel, _ := conn.Locals(localStreamCancel).(context.CancelFunc)
	if stream == nil || streamCtx == nil || cancel == nil {
		conn.Close()
		return
	}
	defer cancel()

	_ = appws.ServeStream(streamCtx, conn, stream, stream.SessionId, c.logger)
}
