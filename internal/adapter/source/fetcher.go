package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/infrastructure/circuitbreaker"
)

// Fetcher reads documents from the local disk or, for http(s) locations,
// through a breaker-protected HTTP client.
type Fetcher struct {
	http    *circuitbreaker.HTTPClient
	timeout time.Duration
	log     *zap.Logger
}

func NewFetcher(http *circuitbreaker.HTTPClient, timeout time.Duration, log *zap.Logger) *Fetcher {
	return &Fetcher{
		http:    http,
		timeout: timeout,
		log:     log,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if f.http == nil {
			return nil, fmt.Errorf("remote sources are disabled: %s", location)
		}
		if f.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}
		return f.http.Get(ctx, location)
	}

	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
