package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/simklx/internal/shared"
)

// StatusError is returned when a remote API answers with an unexpected status.
//
// It unwraps to the sentinel given by Kind so callers can match with [errors.Is].
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       []byte
	Kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s - %s", e.Op, e.Status, strings.TrimSpace(string(e.Body)))
}

func (e *StatusError) Unwrap() error {
	if e.Kind == nil {
		return shared.ErrAPIRequest
	}
	return e.Kind
}

// APIService is a small JSON-over-HTTP client shared by the Simkl, TMDB and Letterboxd services.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// NewAPIService creates a client rooted at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		headers:    make(http.Header),
	}
}

// SetHeader adds a header sent with every request.
func (a *APIService) SetHeader(key, value string) {
	a.headers.Set(key, value)
}

// BaseURL returns the root all paths are resolved against.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	URL        *url.URL // final URL after redirects
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *APIResponse) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Expect returns a [StatusError] of kind unless the status is one of codes.
func (r *APIResponse) Expect(op string, kind error, codes ...int) error {
	for _, code := range codes {
		if r.StatusCode == code {
			return nil
		}
	}
	return &StatusError{Op: op, StatusCode: r.StatusCode, Status: r.Status, Body: r.Body, Kind: kind}
}

// Get performs a GET request to path with the given query.
func (a *APIService) Get(ctx context.Context, path string, query url.Values, header http.Header) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, query, nil, header)
}

// PostJSON encodes v and POSTs it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, v any, header http.Header) (*APIResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Do(ctx, http.MethodPost, path, nil, data, header)
}

// Do performs a request and reads the whole response body.
//
// Transport failures wrap [shared.ErrServiceUnavailable]; status handling is left to the caller.
func (a *APIService) Do(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range a.headers {
		req.Header[key] = values
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       data,
		URL:        req.URL,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		apiResp.URL = resp.Request.URL
	}

	return apiResp, nil
}
