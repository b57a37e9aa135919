package cloudsync

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Request is one abstract HTTP exchange issued by a provider.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
}

// Response carries the status and eagerly-read body of an exchange.
// Header names are lowercased.
type Response struct {
	OK         bool
	Status     int
	StatusText string
	Headers    map[string]string
	Body       string
}

// Transport is the HTTP port consumed by providers. An implementation may
// route through a proxy or an extension background context; providers only
// depend on this interface.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

const defaultHTTPTimeout = 15 * time.Second

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with the given client; nil gets a
// client with a sane timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPTransport{client: client}
}

// Do executes the request and reads the full response body.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return Response{}, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[strings.ToLower(k)] = resp.Header.Get(k)
	}

	return Response{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
