package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
)

// ChatPath is the assistant endpoint relative to the base URL.
const ChatPath = "/chat"

var (
	ErrUnexpectedStatus  = errors.New("assistant returned an error status")
	ErrMalformedResponse = errors.New("assistant returned a malformed response")
)

// HTTPTransport exchanges chat turns with the assistant over JSON HTTP.
type HTTPTransport struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPTransport builds a transport for the assistant at baseURL. A zero
// timeout leaves the deadline to the caller's context.
func NewHTTPTransport(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPTransport{
		client: client,
		logger: logger.Named("assistant_transport"),
	}
}

// Exchange posts one turn and decodes the reply.
func (t *HTTPTransport) Exchange(ctx context.Context, req chat.Request) (chat.Response, error) {
	if req.History == nil {
		req.History = []chat.Message{}
	}

	res, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(ChatPath)
	if err != nil {
		return chat.Response{}, fmt.Errorf("post %s: %w", ChatPath, err)
	}

	if !res.IsSuccess() {
		t.logger.Warn("assistant returned error status",
			zap.Int("status", res.StatusCode()),
			zap.String("body", truncate(res.String(), 256)),
		)
		return chat.Response{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode())
	}

	var out chat.Response
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		t.logger.Warn("assistant response is not valid json", zap.Error(err))
		return chat.Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Response == "" {
		return chat.Response{}, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
