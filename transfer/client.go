package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// maxResponseBytes bounds how much of a response body is read into memory.
const maxResponseBytes = 8 << 20

// Client talks to the remote image-processing service.
type Client struct {
	cfg  types.AppConfig
	http *http.Client
}

// NewClient builds a client for the service described by cfg. A nil httpClient
// uses the shared client from tool.GetHttpClient.
func NewClient(cfg types.AppConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = tool.GetHttpClient()
	}
	cfg.Backend = strings.TrimRight(cfg.Backend, "/")
	return &Client{cfg: cfg, http: httpClient}
}

// Backend returns the service base URL.
func (c *Client) Backend() string {
	return c.cfg.Backend
}

// ResponseError is a non-success answer from the service.
type ResponseError struct {
	StatusCode int
	Status     string
	// Message is the text extracted from the response body, if any.
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed: %s", e.Status)
}

// do sends req and returns the body of a 2xx response. Other responses become
// a *ResponseError carrying the body text.
func (c *Client) do(req *http.Request, what string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s cancelled: %w", what, ctxErr)
		}
		return nil, fmt.Errorf("failed to send %s request: %v", what, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		tool.DefaultLogger.Warnf("Failed to read %s response body: %v", what, readErr)
	} else if len(body) > 0 {
		tool.DefaultLogger.Debugf("%s response (%d): %s", what, resp.StatusCode, string(body))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    normalize.MessageFromBody(body),
		}
	}
	return body, nil
}

// parse decodes a success body. Bodies that are not JSON resolve to an empty payload.
func parse(body []byte, what string) normalize.Payload {
	payload, err := normalize.Parse(body)
	if err != nil {
		tool.DefaultLogger.Warnf("Ignoring undecodable %s response: %v", what, err)
		return normalize.Payload{Shape: normalize.ShapeEmpty}
	}
	return payload
}

func (c *Client) endpoint(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return tool.BuildEndpointURL(c.cfg.Backend, path)
}
