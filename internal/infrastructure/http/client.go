package infrastructure

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"douyin_youtube_tool/config"
)

// HTTPClient provides a pooled HTTP client shared by the outbound
// integrations. The client itself carries no deadline: short API calls go
// through DoAPI, which applies the configured request budget, while media
// downloads and upload chunks bound their own requests through contexts so
// a long transfer is never cut off by the API budget.
type HTTPClient struct {
	client *http.Client
	config *config.Config
}

// NewHTTPClient creates a new optimized HTTP client for I/O bound operations
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
		DisableKeepAlives: false,
		ForceAttemptHTTP2: true,
		WriteBufferSize:   64 * 1024,
		ReadBufferSize:    64 * 1024,
	}

	client := &http.Client{
		Transport: transport,
	}

	return &HTTPClient{
		client: client,
		config: cfg,
	}
}

// Get performs a GET request with the configured API budget
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.DoAPI(req)
}

// Do performs a custom HTTP request bounded only by the request's own context
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// DoAPI performs a short API request with the configured client timeout
// layered on top of the request's own context. The deadline stays armed until
// the response body is closed, so it covers the body read as well.
func (c *HTTPClient) DoAPI(req *http.Request) (*http.Response, error) {
	timeout := c.config.HTTPClientTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &deadlineBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// GetClient returns the underlying HTTP client
func (c *HTTPClient) GetClient() *http.Client {
	return c.client
}

// deadlineBody releases the request deadline when the body is closed.
type deadlineBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *deadlineBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
