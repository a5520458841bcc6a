// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// PingChecker wraps a PingFunc. A failing ping yields onFailure.
type PingChecker struct {
	name      string
	ping      PingFunc
	onFailure Status
	timeout   time.Duration
}

// NewPingChecker creates a checker that is unhealthy when ping fails.
// The Redis cache registers its HealthCheck this way.
func NewPingChecker(name string, ping PingFunc) *PingChecker {
	return &PingChecker{name: name, ping: ping, onFailure: StatusUnhealthy, timeout: 2 * time.Second}
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: c.onFailure, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewHTTPChecker probes url with a GET. Any response below 500 counts as
// reachable. Provider outages only degrade readiness: the relay still serves
// cached data and reports upstream errors per request.
func NewHTTPChecker(name, url string, client Doer) *PingChecker {
	return &PingChecker{
		name:      name,
		onFailure: StatusDegraded,
		timeout:   5 * time.Second,
		ping: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("status %d", resp.StatusCode)
			}
			return nil
		},
	}
}
