package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Client-facing error messages.
const (
	msgInvalidBody     = "invalid request body"
	msgMessagesMissing = "messages required"
	msgContentMissing  = "message content required"
	msgBackendFailed   = "Failed to fetch from backend"
	msgMethodNotAllow  = "method not allowed"
	msgInternal        = "internal server error"
)

type Forwarder interface {
	Forward(ctx context.Context, in usecase.ForwardInput) (usecase.ForwardOutput, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler adapts API Gateway proxy events to the forward use case.
type Handler struct {
	forwarder Forwarder
}

func NewHandler(f Forwarder) (*Handler, error) {
	if f == nil {
		return nil, errors.New("handler: forwarder must not be nil")
	}
	return &Handler{forwarder: f}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(event.Headers)
	logger := slog.With("request_id", correlationID)

	if event.HTTPMethod != "" && !strings.EqualFold(event.HTTPMethod, http.MethodPost) {
		return errorJSON(http.StatusMethodNotAllowed, msgMethodNotAllow, correlationID), nil
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			logger.WarnContext(ctx, "invalid base64 request body", "err", err)
			return errorJSON(http.StatusBadRequest, msgInvalidBody, correlationID), nil
		}
		body = decoded
	}

	var req domain.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "err", err)
		return errorJSON(http.StatusBadRequest, msgInvalidBody, correlationID), nil
	}

	out, err := h.forwarder.Forward(ctx, usecase.ForwardInput{
		Messages:  req.Messages,
		RequestID: correlationID,
	})
	if err != nil {
		status, msg := mapError(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "chat request failed", "status", status, "err", err)
		} else {
			logger.InfoContext(ctx, "chat request rejected", "status", status, "err", err)
		}
		return errorJSON(status, msg, correlationID), nil
	}

	logger.InfoContext(ctx, "chat request forwarded", "messages", len(req.Messages))
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(correlationID),
		Body:       string(out.Body),
	}, nil
}

func mapError(err error) (int, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, msgInternal
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		if ucErr.Reason == usecase.ReasonEmptyContent {
			return http.StatusBadRequest, msgContentMissing
		}
		return http.StatusBadRequest, msgMessagesMissing
	case usecase.ErrorUpstream:
		return http.StatusInternalServerError, msgBackendFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// correlationIDFrom reads the inbound correlation header case-insensitively.
func correlationIDFrom(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}

func responseHeaders(correlationID string) map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}
}

func errorJSON(status int, msg, correlationID string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(errorResponse{Error: msg})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(correlationID),
		Body:       string(body),
	}
}
