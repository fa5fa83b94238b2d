package transfer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/types"
)

// RequestProcessing asks the service to process every listed item in one batch.
func (c *Client) RequestProcessing(ctx context.Context, ids []string) (normalize.Payload, error) {
	if len(ids) == 0 {
		return normalize.Payload{}, fmt.Errorf("invalid parameters: ids must not be empty")
	}
	url, err := c.endpoint(ctx, c.cfg.ProcessPath)
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("failed to build process URL: %w", err)
	}
	payload, err := sonic.Marshal(types.ProcessRequest{IDs: ids})
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("failed to marshal process request: %v", err)
	}
	req, err := tool.NewHTTPReqWithApplication(http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload)))
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("failed to create process request: %v", err)
	}
	body, err := c.do(req, "process")
	if err != nil {
		return normalize.Payload{}, err
	}
	tool.DefaultLogger.Infof("Requested processing of %d items", len(ids))
	return parse(body, "process"), nil
}
