package http_client

import (
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultIdleTimeout = 90 * time.Second
)

// Transport is a pooled HTTP transport.
type Transport struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	rt *http.Transport
}

// NewTransport creates a transport with the given pool limits.
func NewTransport(maxIdle, maxIdlePerHost int, idleTimeout time.Duration) (*Transport, error) {
	if maxIdle < 0 || maxIdlePerHost < 0 {
		return nil, fmt.Errorf("idle connection limits must not be negative, got %d and %d", maxIdle, maxIdlePerHost)
	}
	return &Transport{
		MaxIdleConns:        maxIdle,
		MaxIdleConnsPerHost: maxIdlePerHost,
		IdleConnTimeout:     idleTimeout,
		rt: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        maxIdle,
			MaxIdleConnsPerHost: maxIdlePerHost,
			IdleConnTimeout:     idleTimeout,
		},
	}, nil
}

// RoundTripper returns the underlying transport.
func (t *Transport) RoundTripper() http.RoundTripper {
	return t.rt
}

// Client is an *http.Client that adds fixed headers to every request.
type Client struct {
	Timeout   time.Duration
	Transport *Transport
	Headers   http.Header

	hc *http.Client
}

// NewClient creates a client with the given timeout over transport.
func NewClient(timeout time.Duration, transport *Transport) (*Client, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("client timeout must be positive, got %s", timeout)
	}
	hc := &http.Client{Timeout: timeout}
	if transport != nil {
		hc.Transport = transport.RoundTripper()
	}
	return &Client{
		Timeout:   timeout,
		Transport: transport,
		Headers:   make(http.Header),
		hc:        hc,
	}, nil
}

// SetHeader adds a header sent with every request and returns c.
func (c *Client) SetHeader(key, value string) *Client {
	c.Headers.Set(key, value)
	return c
}

// Do sends req with the client's headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for k, vs := range c.Headers {
		if req.Header.Get(k) == "" {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	return c.hc.Do(req)
}

// Close drops idle connections.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}
