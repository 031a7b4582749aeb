package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// WeatherAPIProvider implements weather.Fetcher for WeatherAPI.com. Its
// current.json payload is the native shape of weather.Result.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		client:  client,
		circuit: newBreaker("weatherapi"),
	}
}

// WithBaseURL points the provider at a different endpoint (tests, proxies).
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = u
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchWeather(ctx context.Context, city string) (weather.Result, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.Result{}, weather.NewFetchError(weather.ErrEmptyCity.Error(), weather.ErrEmptyCity)
	}
	if p.apiKey == "" {
		return weather.Result{}, weather.NewFetchError("weatherapi api key is not configured", nil)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", city)
	values.Set("aqi", "no")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return weather.Result{}, weather.NewFetchError("could not build weather request", err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		if se, ok := asStatusError(err); ok {
			return weather.Result{}, weather.NewFetchError(weatherAPIErrorMessage(se), err)
		}
		return weather.Result{}, err
	}
	defer resp.Body.Close()

	var payload weather.Result
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Result{}, invalidResponse(p.name, err)
	}
	if payload.Location.Name == "" {
		return weather.Result{}, invalidResponse(p.name, fmt.Errorf("response has no location"))
	}

	payload.Current.Condition.Icon = absoluteIconURL(payload.Current.Condition.Icon)
	return payload, nil
}

// weatherAPIErrorMessage prefers the upstream's own explanation, e.g.
// {"error":{"code":1006,"message":"No matching location found."}}.
func weatherAPIErrorMessage(se *statusError) string {
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(se.body, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	switch se.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "weather service rejected the api key"
	case http.StatusNotFound, http.StatusBadRequest:
		return "city not found"
	default:
		return se.Error()
	}
}

// absoluteIconURL fixes WeatherAPI's protocol-relative icon links
// ("//cdn.weatherapi.com/...").
func absoluteIconURL(icon string) string {
	if strings.HasPrefix(icon, "//") {
		return "https:" + icon
	}
	return icon
}
