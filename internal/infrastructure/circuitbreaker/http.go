package circuitbreaker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxBodySize bounds documents fetched over HTTP.
const maxBodySize = 4 << 20

// HTTPClient fetches documents over HTTP behind a circuit breaker.
type HTTPClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewHTTPClient(client *http.Client, breaker *gobreaker.CircuitBreaker, log *zap.Logger) *HTTPClient {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &HTTPClient{
		client:  client,
		breaker: breaker,
		log:     log,
	}
}

// Get returns the body of url. 5xx answers count as breaker failures;
// other non-2xx answers are errors that leave the breaker alone.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	var status int
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("server error: %d", resp.StatusCode)
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	})

	if err != nil {
		if IsOpen(err) {
			c.log.Warn("Circuit breaker open, request blocked",
				zap.String("url", url),
				zap.String("breaker", c.breaker.Name()),
			)
		}
		return nil, err
	}

	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", status, url)
	}
	return result.([]byte), nil
}
