package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chat-forwarder/internal/domain"
)

// ResponseMode selects how a successful backend body is returned to the client.
type ResponseMode string

const (
	// ResponseModeRelay returns the backend JSON unchanged.
	ResponseModeRelay ResponseMode = "relay"
	// ResponseModeContent returns only {"content": <backend content>}.
	ResponseModeContent ResponseMode = "content"
)

// ParseResponseMode accepts "relay" (also the empty string) or "content".
func ParseResponseMode(s string) (ResponseMode, error) {
	switch ResponseMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ResponseModeRelay:
		return ResponseModeRelay, nil
	case ResponseModeContent:
		return ResponseModeContent, nil
	default:
		return "", fmt.Errorf("usecase: unknown response mode %q", s)
	}
}

// Backend posts a payload to the chatbot backend.
type Backend interface {
	Chat(ctx context.Context, payload domain.BackendPayload) (domain.BackendReply, error)
}

// ExchangeRecorder stores an audit record of a forwarded exchange.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, ex domain.Exchange) error
}

// NopRecorder discards exchanges.
type NopRecorder struct{}

func (NopRecorder) RecordExchange(context.Context, domain.Exchange) error { return nil }

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type diagnosticBodier interface {
	DiagnosticBody() string
}

// ForwardService relays the last chat message to the backend. It holds no
// per-request state and is safe for concurrent use.
type ForwardService struct {
	backend  Backend
	recorder ExchangeRecorder
	mode     ResponseMode
}

// ForwardInput is one inbound chat request. RequestID tags logs and records.
type ForwardInput struct {
	Messages  []domain.Message
	RequestID string
}

// ForwardOutput holds the JSON body returned to the client.
type ForwardOutput struct {
	Body json.RawMessage
}

// NewForwardService creates a ForwardService. Use NopRecorder when exchanges
// are not stored.
func NewForwardService(b Backend, r ExchangeRecorder, mode ResponseMode) (*ForwardService, error) {
	if b == nil {
		return nil, errors.New("usecase: backend must not be nil")
	}
	if r == nil {
		return nil, errors.New("usecase: exchange recorder must not be nil")
	}
	if mode != ResponseModeRelay && mode != ResponseModeContent {
		return nil, fmt.Errorf("usecase: unknown response mode %q", mode)
	}
	return &ForwardService{backend: b, recorder: r, mode: mode}, nil
}

// Forward sends the last message's content to the backend and shapes the
// reply according to the service's ResponseMode.
func (s *ForwardService) Forward(ctx context.Context, in ForwardInput) (ForwardOutput, error) {
	if len(in.Messages) == 0 {
		return ForwardOutput{}, newError(ErrorInvalidInput, ReasonEmptyMessages, nil)
	}
	last := in.Messages[len(in.Messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return ForwardOutput{}, newError(ErrorInvalidInput, ReasonEmptyContent, nil)
	}
	payload := domain.BackendPayload{Content: last.Content}

	reply, err := s.backend.Chat(ctx, payload)
	if err != nil {
		failure, status, diagnostic := classifyBackendError(err)
		logBackendFailure(ctx, in.RequestID, failure, status, diagnostic)
		s.record(ctx, domain.Exchange{
			RequestID:     in.RequestID,
			Content:       payload.Content,
			BackendStatus: status,
			Reply:         diagnostic,
			Outcome:       domain.OutcomeFailed,
		})
		return ForwardOutput{}, failure
	}

	body, err := shapeResponse(s.mode, reply.Body)
	if err != nil {
		slog.ErrorContext(ctx, "backend response could not be shaped",
			"request_id", in.RequestID, "mode", string(s.mode), "err", err)
		s.record(ctx, domain.Exchange{
			RequestID:     in.RequestID,
			Content:       payload.Content,
			BackendStatus: reply.StatusCode,
			Reply:         string(reply.Body),
			Outcome:       domain.OutcomeFailed,
		})
		return ForwardOutput{}, err
	}

	s.record(ctx, domain.Exchange{
		RequestID:     in.RequestID,
		Content:       payload.Content,
		BackendStatus: reply.StatusCode,
		Reply:         string(body),
		Outcome:       domain.OutcomeForwarded,
	})
	return ForwardOutput{Body: body}, nil
}

// record never fails the request.
func (s *ForwardService) record(ctx context.Context, ex domain.Exchange) {
	if err := s.recorder.RecordExchange(ctx, ex); err != nil {
		slog.WarnContext(ctx, "failed to record exchange", "request_id", ex.RequestID, "err", err)
	}
}

func classifyBackendError(err error) (*Error, int, string) {
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		diagnostic := ""
		var bodier diagnosticBodier
		if errors.As(err, &bodier) {
			diagnostic = bodier.DiagnosticBody()
		}
		return newError(ErrorUpstream, ReasonBackendHTTPError, err), statusErr.HTTPStatusCode(), diagnostic
	}
	if errors.Is(err, domain.ErrMalformedBackendResponse) {
		return newError(ErrorUpstream, ReasonBackendMalformed, err), 0, ""
	}
	return newError(ErrorUpstream, ReasonBackendUnreachable, err), 0, ""
}

func logBackendFailure(ctx context.Context, requestID string, failure *Error, status int, diagnostic string) {
	if failure.Reason == ReasonBackendHTTPError {
		slog.WarnContext(ctx, "backend returned error status",
			"request_id", requestID, "status", status, "body", diagnostic)
		return
	}
	slog.ErrorContext(ctx, "backend request failed",
		"request_id", requestID, "reason", failure.Reason, "err", failure.Err)
}

func shapeResponse(mode ResponseMode, raw json.RawMessage) (json.RawMessage, error) {
	if mode != ResponseModeContent {
		return raw, nil
	}

	var data struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, newError(ErrorUpstream, ReasonBackendMalformed, err)
	}
	if len(data.Content) == 0 || string(data.Content) == "null" {
		return nil, newError(ErrorUpstream, ReasonBackendMissingContent, nil)
	}
	out, err := json.Marshal(domain.ContentResponse{Content: data.Content})
	if err != nil {
		return nil, newError(ErrorInternal, ReasonResponseEncodingFailed, err)
	}
	return out, nil
}
