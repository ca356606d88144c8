// Package carrier talks to the SMS carrier vendor that owns the numbers we
// resell. The client is an injected dependency with an explicit token
// refresh contract; nothing here is process-global.
package carrier

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// VendorNumber is a number record as the vendor reports it.
type VendorNumber struct {
	NumberID     string   `json:"number_id"`
	PhoneNumber  string   `json:"phone_number"`
	MonthlyPrice *float64 `json:"monthly_price,omitempty"`
	Registered   bool     `json:"registered"`
}

// Client is the carrier vendor surface the sync job and admin tooling
// depend on.
type Client interface {
	ListOwnedNumbers(ctx context.Context) ([]VendorNumber, error)
	RegisterNumber(ctx context.Context, phoneNumber string) (string, error)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type listNumbersResponse struct {
	Numbers []VendorNumber `json:"numbers"`
}

type registerResponse struct {
	NumberID string `json:"number_id"`
}

type vendorClient struct {
	httpClient *resty.Client
	apiKey     string
	apiSecret  string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewVendorClient(baseURL, apiKey, apiSecret string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &vendorClient{
		httpClient: client,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
	}
}

// token returns a valid bearer token, refreshing when missing or within a
// minute of expiry. Refresh is serialized; concurrent callers share the
// result.
func (c *vendorClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.expiresAt) > time.Minute {
		return c.accessToken, nil
	}

	var tok tokenResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"api_key": c.apiKey, "api_secret": c.apiSecret}).
		SetResult(&tok).
		Post("/v1/auth/token")
	if err != nil {
		return "", fmt.Errorf("carrier token request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("carrier token request returned %d", resp.StatusCode())
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	log.Printf("refreshed carrier vendor token, valid until %s", c.expiresAt.Format(time.RFC3339))
	return c.accessToken, nil
}

// invalidateToken drops the cached token so the next call refreshes.
func (c *vendorClient) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func (c *vendorClient) ListOwnedNumbers(ctx context.Context) ([]VendorNumber, error) {
	var result listNumbersResponse
	resp, err := c.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&result).Get("/v1/numbers")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("carrier list numbers returned %d", resp.StatusCode())
	}
	return result.Numbers, nil
}

func (c *vendorClient) RegisterNumber(ctx context.Context, phoneNumber string) (string, error) {
	var result registerResponse
	resp, err := c.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(map[string]string{"phone_number": phoneNumber}).
			SetResult(&result).
			Post("/v1/numbers/register")
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("carrier register returned %d for %s", resp.StatusCode(), phoneNumber)
	}
	return result.NumberID, nil
}

// authorized runs a request with a bearer token, refreshing once on 401.
func (c *vendorClient) authorized(ctx context.Context, do func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := do(c.httpClient.R().SetContext(ctx).SetAuthToken(tok))
		if err != nil {
			return nil, fmt.Errorf("carrier request failed: %w", err)
		}
		if resp.StatusCode() == http.StatusUnauthorized && attempt == 0 {
			c.invalidateToken()
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("carrier request unauthorized after token refresh")
}
