package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNotFound is returned when the API has no challenge for an id.
var ErrNotFound = errors.New("challenge: not found")

const defaultTimeout = 10 * time.Second

// Config holds the upstream API location and machine credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Audience     string
	Timeout      time.Duration
}

// Client calls the Challenge and Resource APIs.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewClient builds a client that authenticates with the client-credentials
// grant when a client id is configured.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		if cfg.Audience != "" {
			cc.EndpointParams = url.Values{"audience": {cfg.Audience}}
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
		httpClient = cc.Client(ctx)
		httpClient.Timeout = timeout
	}
	return NewClientWith(httpClient, cfg.BaseURL, logger)
}

// NewClientWith uses an already configured HTTP client.
func NewClientWith(httpClient *http.Client, baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// GetChallenge fetches a challenge by v5 uuid or by legacy numeric id.
func (c *Client) GetChallenge(ctx context.Context, id string) (*Challenge, error) {
	if IsUUID(id) {
		var ch Challenge
		if err := c.get(ctx, "/challenges/"+url.PathEscape(id), nil, &ch); err != nil {
			return nil, err
		}
		return &ch, nil
	}

	var list []Challenge
	if err := c.get(ctx, "/challenges", url.Values{"legacyId": {id}}, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// GetResources returns a member's resources on a challenge.
func (c *Client) GetResources(ctx context.Context, challengeID, memberID string) ([]Resource, error) {
	var resources []Resource
	q := url.Values{"challengeId": {challengeID}, "memberId": {memberID}}
	if err := c.get(ctx, "/resources", q, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// GetResourceRoles returns every resource role.
func (c *Client) GetResourceRoles(ctx context.Context) ([]ResourceRole, error) {
	var roles []ResourceRole
	if err := c.get(ctx, "/resource-roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	c.logger.Debug("upstream call",
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return fmt.Errorf("GET %s: status %d: %s", path, res.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
