// internal/common/http/client.go
package http

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "nominee-applications/1.0"

// Client is the outbound HTTP client shared by delivery backends.
type Client struct {
	rc *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Client{rc: rc}
}

// R starts a request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx)
}

// SetBaseURL points relative request URLs at base.
func (c *Client) SetBaseURL(base string) *Client {
	c.rc.SetBaseURL(base)
	return c
}
