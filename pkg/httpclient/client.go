package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ComprasSanchez/pedidos-sucursales/config"
)

// MaxBodySize caps how much of a supplier response is read into memory
const MaxBodySize = 8 << 20

// Client is the outbound HTTP client shared by one supplier integration.
// Requests are traced through otelhttp and, when configured, throttled by a
// token bucket limiter.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New builds a client for the endpoint. A nil transport uses a pooled default.
func New(cfg config.EndpointConfig, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		http:    &http.Client{Transport: otelhttp.NewTransport(transport)},
		limiter: limiter,
		timeout: cfg.Timeout(),
	}
}

// Timeout is the per-call deadline callers should apply to their context
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do waits for the limiter and sends the request
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	return c.http.Do(req)
}

// ReadBody drains and closes the response body up to MaxBodySize
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
