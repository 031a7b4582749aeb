package weather

import (
	"errors"
	"strings"
)

// Location identifies the place a Result was resolved to by the upstream API.
type Location struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Condition is the upstream's human readable description and its icon.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// Current holds the current conditions. Both temperature scales are always
// populated so the display unit can change without a new fetch.
type Current struct {
	TempC      float64   `json:"temp_c"`
	TempF      float64   `json:"temp_f"`
	Condition  Condition `json:"condition"`
	Humidity   int       `json:"humidity"`
	PressureMb float64   `json:"pressure_mb"`
	VisKm      float64   `json:"vis_km"`
}

// Result is an immutable snapshot of one successful lookup.
type Result struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
}

// CelsiusToFahrenheit converts for providers that only report metric values.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// ErrEmptyCity is returned before any network call when the city is blank.
var ErrEmptyCity = errors.New("city name is required")

// FetchError is the single failure type returned by every Fetcher. Message is
// safe to show to the user as is.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "failed to fetch weather data"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with a user facing message.
func NewFetchError(message string, err error) *FetchError {
	return &FetchError{Message: strings.TrimSpace(message), Err: err}
}

// Message extracts the displayable text of any error returned by a Fetcher.
// Errors that are not FetchErrors are collapsed into their Error() text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "failed to fetch weather data"
}
