// Package relay bridges an upstream event stream to a waiting client.
//
// A relay runs in two steps. Open does everything that can still fail with a
// proper error response: it reads the conversation from the store, builds the
// upstream request and waits for the upstream to accept it. Stream.Relay then
// writes the correlation event, forwards upstream events one by one and ends
// with a done event. Once Relay has started, failures can only end the stream.
package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/repository/contract"
	"chatbots-be/pkg/llm"
	"chatbots-be/pkg/sse"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	CorrelationEventName = "response_id"
	logModule            = "Relay"
)

type State int32

const (
	StateInitializing State = iota
	StateAwaitingUpstream
	StateRelaying
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAwaitingUpstream:
		return "awaiting_upstream"
	case StateRelaying:
		return "relaying"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Sink is the client side of a stream. Both methods must push the bytes out
// before returning; an error means the client is gone.
type Sink interface {
	Send(ev sse.Event) error
	KeepAlive() error
}

type Options struct {
	// KeepAliveInterval is the idle time after which a keep-alive is sent.
	// Zero disables keep-alives.
	KeepAliveInterval time.Duration
	// PreserveEventNames forwards upstream event names. By default relayed
	// events are unnamed.
	PreserveEventNames bool
}

type StreamRelay struct {
	store         contract.EntityStore
	provider      llm.StreamingProvider
	builder       *RequestBuilder
	logger        logger.ILogger
	tracer        trace.Tracer
	opts          Options
	newResponseId func(chatbotId int64) string
}

func NewStreamRelay(
	store contract.EntityStore,
	provider llm.StreamingProvider,
	builder *RequestBuilder,
	logger logger.ILogger,
	opts Options,
) *StreamRelay {
	return &StreamRelay{
		store:         store,
		provider:      provider,
		builder:       builder,
		logger:        logger,
		tracer:        otel.Tracer("chatbots-be/relay"),
		opts:          opts,
		newResponseId: NewResponseId,
	}
}

// Open prepares a stream for chatbotId and the session with the external
// identifier sessionId. Nothing has been sent to the client when it returns,
// so any error can still be reported as a normal response. ctx bounds the
// whole stream, including the later Relay call.
func (r *StreamRelay) Open(ctx context.Context, chatbotId int64, sessionId string) (*Stream, error) {
	s := &Stream{
		ChatbotId: chatbotId,
		SessionId: sessionId,
		logger:    r.logger,
		opts:      r.opts,
	}
	s.setState(StateInitializing)

	ctx, span := r.tracer.Start(ctx, "relay.open", trace.WithAttributes(
		attribute.Int64("chatbot.id", chatbotId),
		attribute.String("session.id", sessionId),
	))
	defer span.End()

	fail := func(err error) (*Stream, error) {
		if apperror.KindOf(err) == apperror.ErrCancelled {
			s.setState(StateCancelled)
		} else {
			s.setState(StateFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	// Every store read happens here, before any network I/O.
	conv, err := r.store.LoadConversation(chatbotId, sessionId)
	if err != nil {
		return fail(err)
	}

	if !r.provider.Configured() {
		return fail(apperror.ConfigurationMissing("Upstream API key is not configured"))
	}

	s.ResponseId = r.newResponseId(chatbotId)
	req := r.builder.Build(conv, s.ResponseId)
	span.SetAttributes(
		attribute.String("response.id", s.ResponseId),
		attribute.String("llm.model", req.Model),
		attribute.Int("conversation.messages", len(conv.Messages)),
	)

	s.setState(StateAwaitingUpstream)
	body, err := r.provider.OpenStream(ctx, req)
	if err != nil {
		return fail(classifyOpenError(ctx, err))
	}
	s.body = body

	r.logger.Debug(logModule, "Upstream stream opened", map[string]interface{}{
		"chatbot_id":  chatbotId,
		"session_id":  sessionId,
		"response_id": s.ResponseId,
		"model":       req.Model,
	})
	return s, nil
}

func classifyOpenError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apperror.Cancelled(err)
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		return apperror.ConfigurationMissing("Upstream API key is not configured")
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return apperror.UpstreamUnavailable(err, "Upstream rejected the request with status %d", statusErr.StatusCode)
	}
	return apperror.UpstreamUnavailable(err, "Upstream request failed")
}

// Stream is one accepted upstream response waiting to be relayed.
type Stream struct {
	ResponseId string
	ChatbotId  int64
	SessionId  string

	body      io.ReadCloser
	state     atomic.Int32
	logger    logger.ILogger
	opts      Options
	closeOnce sync.Once
}

func (s *Stream) State() State {
	return State(s.state.Load())
}

func (s *Stream) setState(state State) {
	s.state.Store(int32(state))
}

// Close releases the upstream connection. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.body != nil {
			err = s.body.Close()
		}
	})
	return err
}

type readResult struct {
	event sse.Event
	err   error
}

// Relay forwards the stream to sink until the upstream signals the end, the
// upstream fails, the sink fails or ctx is cancelled. It returns nil on a
// completed stream and an apperror otherwise. The upstream connection is
// released and the reader goroutine has exited by the time it returns.
func (s *Stream) Relay(ctx context.Context, sink Sink) (err error) {
	stop := make(chan struct{})
	events := make(chan readResult)
	readerDone := make(chan struct{})

	defer func() {
		close(stop)
		// Unblocks a Read still waiting on the network.
		s.Close()
		<-readerDone
		s.logOutcome(err)
	}()

	go func() {
		defer close(readerDone)
		rd := sse.NewReader(s.body)
		for {
			ev, err := rd.Next()
			select {
			case events <- readResult{event: ev, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	if ctx.Err() != nil {
		return s.cancelled(ctx.Err())
	}
	if err := sink.Send(sse.Event{Name: CorrelationEventName, Data: s.ResponseId}); err != nil {
		return s.cancelled(err)
	}
	s.setState(StateRelaying)

	var keepAlive <-chan time.Time
	var ticker *time.Ticker
	if s.opts.KeepAliveInterval > 0 {
		ticker = time.NewTicker(s.opts.KeepAliveInterval)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return s.cancelled(ctx.Err())

		case <-keepAlive:
			if err := sink.KeepAlive(); err != nil {
				return s.cancelled(err)
			}

		case res := <-events:
			// Cancellation wins over anything the upstream still delivered.
			if ctx.Err() != nil {
				return s.cancelled(ctx.Err())
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return s.complete(sink)
				}
				return s.failed(apperror.UpstreamUnavailable(res.err, "Reading the upstream stream failed"))
			}
			if res.event.IsDone {
				return s.complete(sink)
			}

			out := sse.Event{Data: res.event.Data}
			if s.opts.PreserveEventNames {
				out.Name = res.event.Name
			}
			if err := sink.Send(out); err != nil {
				return s.cancelled(err)
			}
			if ticker != nil {
				ticker.Reset(s.opts.KeepAliveInterval)
			}
		}
	}
}

func (s *Stream) complete(sink Sink) error {
	if err := sink.Send(sse.Done()); err != nil {
		return s.cancelled(err)
	}
	s.setState(StateCompleted)
	return nil
}

func (s *Stream) cancelled(cause error) error {
	s.setState(StateCancelled)
	return apperror.Cancelled(cause)
}

func (s *Stream) failed(err error) error {
	s.setState(StateFailed)
	return err
}

func (s *Stream) logOutcome(err error) {
	details := map[string]interface{}{
		"chatbot_id":  s.ChatbotId,
		"session_id":  s.SessionId,
		"response_id": s.ResponseId,
		"state":       s.State().String(),
	}
	switch {
	case err == nil:
		s.logger.Info(logModule, "Stream completed", details)
	case apperror.KindOf(err) == apperror.ErrCancelled:
		s.logger.Info(logModule, "Stream cancelled by client", details)
	default:
		details["error"] = err.Error()
		s.logger.Error(logModule, "Stream failed", details)
	}
}
