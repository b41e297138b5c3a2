package providers

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout,
// mirroring the teacher service's httpclient.NewDefaultHTTPClient.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// httpDoer is satisfied by both RateLimitedClient and AuthenticatedClient,
// letting a provider accept either kind of transport interchangeably.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedClient wraps an *http.Client with a token-bucket limiter so a
// single provider never exceeds its API's request budget, even when the
// federation fans out many lookups concurrently.
type RateLimitedClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewRateLimitedClient builds a client allowing ratePerSecond requests per
// second, with a burst of burst.
func NewRateLimitedClient(timeout time.Duration, ratePerSecond float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		http:    NewDefaultHTTPClient(timeout),
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Do waits for rate-limiter permission (respecting the request's context
// deadline) and then performs the request.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}
