package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-loadrelay/core"
)

const KindREST = "rest"

const defaultRESTResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter delivers JSON payloads to a single endpoint per call. It makes
// one attempt and never retries.
type RESTAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		Timeout:              core.DefaultRelayTimeout,
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Deliver(ctx context.Context, req core.DeliveryRequest) core.DeliveryResult {
	if a == nil || a.Client == nil {
		return failed(0, transportError(
			"transport: rest adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindREST},
		))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	target := strings.TrimSpace(req.URL)
	parsedURL, err := url.Parse(target)
	if err != nil || target == "" || parsedURL.Host == "" {
		return failed(0, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			map[string]any{"adapter": KindREST, "url": target},
		))
	}

	var body io.Reader = http.NoBody
	if req.Payload != nil {
		encoded, err := json.Marshal(req.Payload)
		if err != nil {
			return failed(0, transportWrapError(
				err,
				goerrors.CategoryBadInput,
				"transport: encode json payload",
				http.StatusBadRequest,
				map[string]any{"adapter": KindREST},
			))
		}
		body = bytes.NewReader(encoded)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = a.Timeout
	}
	if timeout <= 0 {
		timeout = core.DefaultRelayTimeout
	}
	requestCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, parsedURL.String(), body)
	if err != nil {
		return failed(0, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"adapter": KindREST, "method": method},
		))
	}
	if req.Payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range a.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return failed(0, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"adapter": KindREST, "method": method, "host": parsedURL.Host},
		))
	}
	defer httpRes.Body.Close()

	maxBodyBytes := a.MaxResponseBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultRESTResponseBodyLimit
	}
	responseBody, err := io.ReadAll(io.LimitReader(httpRes.Body, maxBodyBytes+1))
	if err != nil {
		return failed(httpRes.StatusCode, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"adapter": KindREST, "status_code": httpRes.StatusCode},
		))
	}
	if int64(len(responseBody)) > maxBodyBytes {
		return failed(httpRes.StatusCode, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", maxBodyBytes),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{
				"adapter":          KindREST,
				"status_code":      httpRes.StatusCode,
				"response_limit_b": maxBodyBytes,
			},
		))
	}

	result := core.DeliveryResult{StatusCode: httpRes.StatusCode, Body: responseBody}
	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		result.Err = transportError(
			fmt.Sprintf("transport: unexpected status %d", httpRes.StatusCode),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"adapter": KindREST, "status_code": httpRes.StatusCode, "host": parsedURL.Host},
		)
		return result
	}
	result.Delivered = true
	return result
}

func failed(statusCode int, err error) core.DeliveryResult {
	return core.DeliveryResult{StatusCode: statusCode, Err: err}
}

var _ core.Relay = (*RESTAdapter)(nil)
