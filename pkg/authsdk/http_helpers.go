package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnexpectedResponse is returned when a 2xx body does not match the
// documented shape.
var ErrUnexpectedResponse = errors.New("authsdk: unexpected response")

var tracer = otel.Tracer("github.com/aussiebroadwan/consoleauth/pkg/authsdk")

// requestOptions are the per-call extras a request may carry.
type requestOptions struct {
	bearer      string
	sessionCode string
	headers     map[string]string
}

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// realmPath prefixes suffix with the realm segment.
func realmPath(realm, suffix string) string {
	return "/realms/" + url.PathEscape(realm) + suffix
}

// doRequest performs an HTTP request against the provider. Failures to get
// any response back are reported as *TransportError.
func (c *SDKClient) doRequest(
	ctx context.Context,
	op, method, path string,
	body io.Reader,
	opts requestOptions,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range opts.headers {
		req.Header.Set(key, value)
	}

	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}

	client := c.HTTPClient
	if opts.sessionCode != "" {
		// The explicit session code wins over whatever the jar holds, so the
		// jar is left out of this request to avoid sending the cookie twice.
		noJar := *c.HTTPClient
		noJar.Jar = nil
		client = &noJar
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: opts.sessionCode})
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	return resp, nil
}

// decodeJSON decodes a JSON response into the target interface.
// Non-matching statuses become *OAuth2Error, unreadable bodies *TransportError.
func decodeJSON(op string, resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, op, err)
	}

	return nil
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "authsdk."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
