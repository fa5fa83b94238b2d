package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/moyoez/cutqueue/normalize"
	"github.com/moyoez/cutqueue/tool"
)

// BatchDownloadURL returns the batch archive location: the server supplied one
// when known, otherwise one derived from the processed ids.
func (c *Client) BatchDownloadURL(serverURL string, processedIDs []string) (string, error) {
	if serverURL != "" {
		return tool.ResolveURL(c.cfg.Backend+"/", serverURL), nil
	}
	return tool.BuildBatchDownloadURL(c.cfg.Backend, c.cfg.BatchDownloadPath, processedIDs)
}

// ItemDownloadURL returns the location of one variant of an item, preferring a
// server supplied download field.
func (c *Client) ItemDownloadURL(serverURL, serverID, variant string) (string, error) {
	if serverURL != "" {
		return tool.ResolveURL(c.cfg.Backend+"/", serverURL), nil
	}
	return tool.BuildItemDownloadURL(c.cfg.Backend, c.cfg.ItemDownloadPath, serverID, variant)
}

// Download saves the resource at url into dir as fileName, picking a free name
// when one already exists. It returns the written path.
func (c *Client) Download(ctx context.Context, url, dir, fileName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send download request: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", &ResponseError{StatusCode: resp.StatusCode, Status: resp.Status, Message: normalize.MessageFromBody(body)}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir failed: %w", err)
	}
	target := tool.NextAvailablePath(dir, fileName)
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file failed: %w", err)
	}
	if _, err := tool.CopyWithContext(ctx, file, resp.Body); err != nil {
		_ = file.Close()
		if rmErr := os.Remove(target); rmErr != nil {
			tool.DefaultLogger.Errorf("Failed to remove partial file: %v", rmErr)
		}
		return "", fmt.Errorf("write file failed: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %v", err)
	}
	tool.DefaultLogger.Infof("Downloaded %s to %s", url, filepath.Base(target))
	return target, nil
}
