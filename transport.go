package contractsteps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var errNilResponse = errors.New("transport returned nil response")

// ErrNoTransport is returned when request is sent without transport.
var ErrNoTransport = errors.New("missing transport")

// Response is an observed HTTP response.
type Response struct {
	StatusCode int
	Body       string
	Header     http.Header
}

// Transport executes requests.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc is a Transport implemented with a function.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests with http.Client.
//
// Timeouts and redirect policy are configured on Client.
type HTTPTransport struct {
	Client *http.Client
	Logger *zap.Logger
}

// NewHTTPTransport creates an instance of HTTP transport with default client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		Client: http.DefaultClient,
		Logger: zap.NewNop(),
	}
}

// Do sends request and reads response body.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	r, err := http.NewRequestWithContext(ctx, req.Method, req.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}

	for k, v := range req.header {
		r.Header.Set(k, v)
	}

	logger.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL()),
		zap.Int("bodySize", len(req.Body)))

	resp, err := client.Do(r)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("received response",
		zap.String("url", req.URL()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bodySize", len(respBody)))

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Header:     resp.Header,
	}, nil
}

// Send executes request once with transport.
//
// A second send of the same request fails with *BuilderFinalizedError,
// transport failure is reported as *NoResponseError and is not retried.
func Send(ctx context.Context, t Transport, req *Request) (*Response, error) {
	if t == nil {
		return nil, ErrNoTransport
	}

	if req.sent {
		return nil, &BuilderFinalizedError{Op: "send"}
	}

	req.sent = true

	resp, err := t.Do(ctx, req)
	if err == nil && resp == nil {
		err = errNilResponse
	}

	if err != nil {
		return nil, &NoResponseError{Method: req.Method, URL: req.URL(), Err: err}
	}

	return resp, nil
}
