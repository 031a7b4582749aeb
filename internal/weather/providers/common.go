package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// maxErrorBody bounds how much of an upstream error response we read.
const maxErrorBody = 4 << 10

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errNoHTTPClient = errors.New("http client not configured")
)

// statusError is returned for 4xx responses so providers can pull the
// upstream's own message out of the body.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequest executes exactly one attempt through the circuit breaker. Only
// transport failures, 429 and 5xx count against the breaker; a 4xx such as
// "city not found" is a valid answer and is returned as *statusError.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.NewFetchError("weather service is temporarily unavailable, try again later", err)
		}
		if errors.Is(err, errRateLimited) {
			return nil, weather.NewFetchError("weather service rate limit reached, try again later", err)
		}
		if errors.Is(err, errServerError) {
			return nil, weather.NewFetchError("weather service returned an error", err)
		}
		if ctx.Err() != nil {
			return nil, weather.NewFetchError("weather request was cancelled", err)
		}
		return nil, weather.NewFetchError("could not reach weather service", err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, weather.NewFetchError("could not reach weather service", fmt.Errorf("unexpected result type from circuit breaker"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{status: resp.StatusCode, body: body}
	}
	return resp, nil
}

// asStatusError reports whether err carries an upstream 4xx response.
func asStatusError(err error) (*statusError, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// invalidResponse wraps decoding problems into the user facing taxonomy.
func invalidResponse(provider string, err error) error {
	return weather.NewFetchError(fmt.Sprintf("invalid response from %s", provider), err)
}
