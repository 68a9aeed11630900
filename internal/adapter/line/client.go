package line

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/couchcryptid/quake-alert-service/internal/domain"
)

// Client sends messages to every follower of a LINE Official Account through
// the Messaging API broadcast endpoint.
type Client struct {
	api    *messaging_api.MessagingApiAPI
	logger *slog.Logger
}

// NewClient creates a broadcast client authenticated with a channel access
// token. endpoint is the API base URL, e.g. https://api.line.me.
func NewClient(token, endpoint string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(token,
		messaging_api.WithEndpoint(endpoint),
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// Broadcast delivers msg to all subscribers. A non-2xx answer or a failed
// request is reported as *domain.BroadcastError.
func (c *Client) Broadcast(ctx context.Context, msg *messaging_api.FlexMessage) error {
	req := &messaging_api.BroadcastRequest{
		Messages: []messaging_api.MessageInterface{msg},
	}

	resp, _, err := c.api.WithContext(ctx).BroadcastWithHttpInfo(req, uuid.NewString())
	if resp == nil {
		return &domain.BroadcastError{Err: err}
	}
	defer resp.Body.Close()

	if err != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.BroadcastError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}

	c.logger.Info("flex message broadcast", "alt_text", msg.AltText, "request_id", resp.Header.Get("X-Line-Request-Id"))
	return nil
}
