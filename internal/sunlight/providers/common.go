package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

// maxErrorBody caps how much of a failed response body is kept in UpstreamError.
const maxErrorBody = 512

var errNoHTTPClient = errors.New("http client not configured")

// breakerSuccess decides which outcomes count against the circuit breaker.
// A 4xx answer other than 429 means the upstream is up and rejected this
// request, so it does not trip the breaker.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var upErr *sunlight.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode >= 400 && upErr.StatusCode < 500 &&
			upErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// doRequest executes a single HTTP request through the circuit breaker and
// classifies failures into the sunlight error taxonomy. There are no retries:
// one call to doRequest is at most one request on the wire.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %w", sunlight.ErrNetwork, execErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &sunlight.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker: %w", sunlight.ErrNetwork, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
