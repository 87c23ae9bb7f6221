package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrichment/internal/resilience"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client performs email verification and discovery against the Hunter.io API.
type Client interface {
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
	FindEmail(ctx context.Context, domain, firstName, lastName string) (*Finding, error)
}

// Verification is the result of GET /email-verifier.
type Verification struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Result string `json:"result"`
	Score  int    `json:"score"`
}

// Valid reports whether Hunter judged the address deliverable.
func (v *Verification) Valid() bool {
	return v.Status == "valid"
}

// Finding is the result of GET /email-finder.
type Finding struct {
	Email   string `json:"email"`
	Score   int    `json:"score"`
	Pattern string `json:"pattern"`
}

type verifierResponse struct {
	Data Verification `json:"data"`
}

type finderResponse struct {
	Data Finding `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter.io API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	params := url.Values{}
	params.Set("email", email)

	var result verifierResponse
	if err := c.get(ctx, "/email-verifier", params, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

func (c *httpClient) FindEmail(ctx context.Context, domain, firstName, lastName string) (*Finding, error) {
	params := url.Values{}
	params.Set("domain", domain)
	params.Set("first_name", firstName)
	params.Set("last_name", lastName)

	var result finderResponse
	if err := c.get(ctx, "/email-finder", params, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

// retryDo executes the request with exponential backoff retries on transient
// failures (timeouts, 429, 5xx).
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "hunter: read response")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("hunter: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "hunter: create request")
	}

	body, status, err := c.retryDo(ctx, req)
	if err != nil {
		return eris.Wrap(err, "hunter: send request")
	}

	if status != http.StatusOK {
		return eris.Errorf("hunter: unexpected status %d: %s", status, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "hunter: unmarshal response")
	}
	return nil
}
