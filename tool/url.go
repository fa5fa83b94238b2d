package tool

import (
	"fmt"
	"net/url"
	"strings"
)

// Item download variants.
const (
	VariantOriginal  = "original"
	VariantProcessed = "processed"
)

// BuildEndpointURL joins the service base URL and an endpoint path.
func BuildEndpointURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", base)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// path may carry escaped segments, e.g. an id filled into a template
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("failed to unescape path %q: %v", path, err)
	}
	u.RawPath = strings.TrimRight(u.EscapedPath(), "/") + path
	u.Path = strings.TrimRight(u.Path, "/") + unescaped
	return u.String(), nil
}

// BuildStatusURL builds the status poll URL carrying ids as a comma separated query parameter.
func BuildStatusURL(base, path string, ids []string) (string, error) {
	return buildIDsURL(base, path, ids)
}

// BuildBatchDownloadURL derives a batch archive location from processed item ids.
func BuildBatchDownloadURL(base, path string, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("no processed items to download")
	}
	return buildIDsURL(base, path, ids)
}

// BuildItemDownloadURL fills {id} and {variant} in the item download template.
func BuildItemDownloadURL(base, template, id, variant string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("item has no server identifier")
	}
	path := strings.NewReplacer("{id}", url.PathEscape(id), "{variant}", variant).Replace(template)
	return BuildEndpointURL(base, path)
}

// ResolveURL makes a server supplied location absolute against base.
// Absolute references are returned unchanged.
func ResolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func buildIDsURL(base, path string, ids []string) (string, error) {
	raw, err := BuildEndpointURL(base, path)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint URL: %v", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
