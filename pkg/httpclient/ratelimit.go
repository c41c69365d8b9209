package httpclient

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// RateLimitedClient paces outgoing requests with a token bucket shared by
// every caller of the wrapped Doer.
type RateLimitedClient struct {
	next    Doer
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps next so that at most rps requests per second
// are sent, with bursts up to burst. A burst below one is treated as one.
func NewRateLimitedClient(next Doer, rps float64, burst int) *RateLimitedClient {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Do waits for a token and then forwards the request. A request whose
// context ends while waiting is never sent.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.FromStatus(http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please slow down.")
	}
	return c.next.Do(ctx, req)
}
