package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fxamacker/cbor/v2"
	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultRateLimit = 8 // requests per second

// Client talks to the platform's identity and checkout endpoints.
//
// Responses are negotiated CBOR-first with a JSON fallback; requests are
// paced through a shared rate limiter so burst-heavy flows (polling,
// parallel bootstrap) stay friendly to the platform.
type Client struct {
	authBase   string
	apiBase    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	mu     sync.RWMutex
	tokens oauth2.TokenSource
}

// Opts contains configuration options for creating a Client.
type Opts struct {
	AuthURL    string
	APIURL     string
	HTTPClient *http.Client
	Logger     *log.Logger
	RateLimit  float64
}

// NewClient creates a platform client for the given endpoint bases.
func NewClient(opts Opts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	return &Client{
		authBase:   strings.TrimRight(opts.AuthURL, "/"),
		apiBase:    strings.TrimRight(opts.APIURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:     opts.Logger,
	}
}

// SetToken installs a bearer credential for subsequent requests.
func (c *Client) SetToken(tok models.AccessToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = oauth2.StaticTokenSource(tok.Token())
}

// ClearToken removes the bearer credential; requests continue anonymously.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = nil
}

// do performs a request against the platform and decodes the response
// into result (when non-nil) based on the response content type.
func (c *Client) do(ctx context.Context, method, rawURL string, body any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/cbor, application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	tokens := c.tokens
	c.mu.RUnlock()
	if tokens != nil {
		tok, err := tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to read bearer token: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result == nil {
		return nil
	}

	ct := resp.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/cbor") {
		if err := cbor.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode cbor response: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
