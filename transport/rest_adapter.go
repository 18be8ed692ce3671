// Package transport performs the HTTP exchange with the profile API. It
// returns every response, whatever its status, and reports only failures to
// obtain one.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/innovatetogether/go-innovate/core"
)

const KindREST = "rest"

const (
	defaultClientTimeout     = 30 * time.Second
	defaultResponseBodyLimit = int64(1 << 20)
	defaultUserAgent         = "go-innovate"
)

// RESTAdapter issues one HTTP request per Do call. Non-2xx statuses are not
// errors at this layer; the resolver classifies them.
type RESTAdapter struct {
	Client               core.HTTPDoer
	DefaultHeaders       map[string]string
	UserAgent            string
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client core.HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{"Accept": "application/json"},
		UserAgent:            defaultUserAgent,
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, requestFailure(nil, goerrors.CategoryInternal,
			"transport: rest adapter requires an http client", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := parseTarget(req.URL)
	if err != nil {
		return core.TransportResponse{}, err
	}
	// Absolute profile URLs may embed credentials; never log them raw.
	meta := map[string]any{"url": core.RedactURL(target.String())}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	meta["method"] = method

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return core.TransportResponse{}, requestFailure(err, goerrors.CategoryBadInput,
			"transport: build http request", meta)
	}
	a.applyHeaders(httpReq, req.Headers)

	startedAt := time.Now()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, requestFailure(err, goerrors.CategoryExternal,
			"transport: execute http request", meta)
	}
	defer httpRes.Body.Close()

	meta["status_code"] = httpRes.StatusCode
	body, err := readLimited(httpRes.Body, bodyLimit(req.MaxResponseBodyBytes, a.MaxResponseBodyBytes))
	if err != nil {
		return core.TransportResponse{}, requestFailure(err, goerrors.CategoryExternal,
			"transport: read response body", meta)
	}
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    httpRes.Header.Clone(),
		Body:       body,
		Duration:   time.Since(startedAt),
	}, nil
}

// parseTarget accepts only absolute http(s) URLs. Stored override URLs are
// not validated on write, so this is where a malformed one surfaces.
func parseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, requestFailure(nil, goerrors.CategoryBadInput, "transport: request url is required", nil)
	}
	meta := map[string]any{"url": core.RedactURL(raw)}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, requestFailure(err, goerrors.CategoryBadInput, "transport: invalid request url", meta)
	}
	if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, requestFailure(nil, goerrors.CategoryBadInput,
			"transport: request url must be an absolute http(s) url", meta)
	}
	return parsed, nil
}

func (a *RESTAdapter) applyHeaders(httpReq *http.Request, headers map[string]string) {
	if ua := strings.TrimSpace(a.UserAgent); ua != "" {
		httpReq.Header.Set("User-Agent", ua)
	}
	for _, set := range []map[string]string{a.DefaultHeaders, headers} {
		for key, value := range set {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			httpReq.Header.Set(key, strings.TrimSpace(value))
		}
	}
}

// readLimited reads at most limit bytes and fails when the body is longer.
func readLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", limit)
	}
	return data, nil
}

func bodyLimit(requestLimit int64, adapterLimit int64) int64 {
	switch {
	case requestLimit > 0:
		return requestLimit
	case adapterLimit > 0:
		return adapterLimit
	default:
		return defaultResponseBodyLimit
	}
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
