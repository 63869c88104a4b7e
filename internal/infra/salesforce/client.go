// Package salesforce is the HTTP adapter for the Salesforce APIs consumed by
// the tool façade: SOAP/OAuth login, global describe, per-object describe,
// and SOQL query execution. Salesforce is treated as the authoritative
// backend — no retries, no response caching, no local SOQL validation, and
// remote error messages pass through verbatim.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerAccept      = "Accept"
	headerAuthz       = "Authorization"
	headerContentType = "Content-Type"
)

// defaultHTTPClient bounds each remote round trip. This is a transport-level
// bound, not a per-tool policy: no internal retry, backoff, or cancellation.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// Client is an authenticated Salesforce session. It is created by Login or
// LoginJWT, owned by the process, and only invalidated by process restart.
type Client struct {
	httpClient  *http.Client
	instanceURL string
	sessionID   string
	apiVersion  string
}

// InstanceURL returns the org instance the session is bound to.
func (c *Client) InstanceURL() string { return c.instanceURL }

// DescribeGlobal fetches the org-wide schema description.
func (c *Client) DescribeGlobal(ctx context.Context) (*GlobalDescribe, error) {
	var out GlobalDescribe
	if err := c.doGet(ctx, c.restURL("sobjects")+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DescribeSObject fetches the describe payload for one object. The name is
// an opaque key passed straight through: Salesforce decides whether it
// exists, and its error surfaces unmodified.
func (c *Client) DescribeSObject(ctx context.Context, name string) (*ObjectDescribe, error) {
	var out ObjectDescribe
	if err := c.doGet(ctx, c.restURL("sobjects", url.PathEscape(name), "describe")+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query executes a SOQL query. The query string is not parsed, escaped, or
// validated locally; Salesforce is the sole authority on its syntax.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	var out QueryResult
	endpoint := c.restURL("query") + "/?q=" + url.QueryEscape(soql)
	if err := c.doGet(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// restURL joins path parts under the versioned REST root.
func (c *Client) restURL(parts ...string) string {
	u := c.instanceURL + "/services/data/v" + c.apiVersion
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// doGet performs an authenticated GET and decodes the JSON response into out.
// Non-2xx responses become *APIError carrying the remote error array.
func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("salesforce: build request: %w", err)
	}
	req.Header.Set(headerAuthz, "Bearer "+c.sessionID)
	req.Header.Set(headerAccept, mimeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("salesforce: get %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("salesforce: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("salesforce: decode response: %w", err)
	}
	return nil
}
