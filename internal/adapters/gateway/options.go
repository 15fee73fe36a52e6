package gateway

import (
	"net/http"
	"time"

	"github.com/okian/timeclock/pkg/logger"
)

// Option applies a configuration option to the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. WithTimeout is
// ignored when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLocation sets the zone timestamps are converted into.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}
