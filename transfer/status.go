package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/tool"
)

// PollStatus fetches the current state of every listed item in one request.
func (c *Client) PollStatus(ctx context.Context, ids []string) (normalize.Payload, error) {
	if len(ids) == 0 {
		return normalize.Payload{}, fmt.Errorf("invalid parameters: ids must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return normalize.Payload{}, err
	}
	url, err := tool.BuildStatusURL(c.cfg.Backend, c.cfg.StatusPath, ids)
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("failed to build status URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("failed to create status request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	body, err := c.do(req, "status")
	if err != nil {
		return normalize.Payload{}, err
	}
	return parse(body, "status"), nil
}

// Health checks the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	path := c.cfg.HealthPath
	if path == "" {
		path = "/health"
	}
	url, err := c.endpoint(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to build health URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %v", err)
	}
	if _, err := c.do(req, "health"); err != nil {
		return err
	}
	return nil
}
