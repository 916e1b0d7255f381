package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"esp-users-audit/pkg/config"
)

const usersPath = "/api/v2/users"

// maxErrorBody bounds how much of a non-JSON:API error body is kept
const maxErrorBody = 4096

// Client talks to the ESP REST API
type Client struct {
	config     *config.Config
	httpClient *http.Client
	signer     *Signer
	now        func() time.Time
}

// New creates a client for the configured ESP host and credentials
func New(cfg *config.Config) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
		},
		signer: &Signer{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		},
		now: time.Now,
	}
}

// ListUsers returns the users of the caller's organization in server order.
// include names the relationships to expand, see UserIncludes.
func (c *Client) ListUsers(ctx context.Context, include ...string) ([]User, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	uri := usersPath
	if len(include) > 0 {
		// Commas stay literal so the signed request URI matches what the server sees
		uri += "?include=" + strings.Join(include, ",")
	}

	doc, err := c.get(ctx, "list users", uri)
	if err != nil {
		return nil, err
	}

	users, err := decodeUsers(doc)
	if err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}

	log.Debug().Int("count", len(users)).Msg("Users fetched")
	return users, nil
}

// get performs a signed GET and decodes the JSON:API document
func (c *Client) get(ctx context.Context, operation, requestURI string) (*document, error) {
	url := c.config.Host + requestURI
	log.Debug().Str("url", url).Str("operation", operation).Msg("Calling ESP API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", ContentType)
	c.signer.Sign(req, nil, c.now())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", operation, err)
	}
	defer resp.Body.Close()

	log.Debug().Str("url", url).Int("status", resp.StatusCode).Msg("ESP API responded")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s failed: reading response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newResponseError(resp, operation, body)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%s failed: decoding response: %w", operation, err)
	}
	return &doc, nil
}

func newResponseError(resp *http.Response, operation string, body []byte) *APIError {
	status := http.StatusText(resp.StatusCode)
	if status == "" {
		status = resp.Status
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err == nil {
		if details := doc.errorDetails(); len(details) > 0 {
			return NewAPIError(resp.StatusCode, status, operation, details...)
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	if text == "" {
		return NewAPIError(resp.StatusCode, status, operation)
	}
	return NewAPIError(resp.StatusCode, status, operation, text)
}
