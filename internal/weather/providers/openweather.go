package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/weather"
)

const openWeatherIconURL = "https://openweathermap.org/img/wn/%s@2x.png"

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		client:  client,
		circuit: newBreaker("openweather"),
	}
}

// WithBaseURL points the provider at a different endpoint (tests, proxies).
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, city string) (weather.Result, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.Result{}, weather.NewFetchError(weather.ErrEmptyCity.Error(), weather.ErrEmptyCity)
	}
	if p.apiKey == "" {
		return weather.Result{}, weather.NewFetchError("openweather api key is not configured", nil)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("q", city)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return weather.Result{}, weather.NewFetchError("could not build weather request", err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		if se, ok := asStatusError(err); ok {
			return weather.Result{}, weather.NewFetchError(openWeatherErrorMessage(se), err)
		}
		return weather.Result{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		// Metres; capped at 10000 by the API.
		Visibility float64 `json:"visibility"`
		Weather    []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Result{}, invalidResponse(p.name, err)
	}
	if payload.Name == "" {
		return weather.Result{}, invalidResponse(p.name, fmt.Errorf("response has no location"))
	}

	var cond weather.Condition
	if len(payload.Weather) > 0 {
		cond.Text = capitalize(payload.Weather[0].Description)
		if payload.Weather[0].Icon != "" {
			cond.Icon = fmt.Sprintf(openWeatherIconURL, payload.Weather[0].Icon)
		}
	}

	return weather.Result{
		Location: weather.Location{
			Name:    payload.Name,
			Country: payload.Sys.Country,
		},
		Current: weather.Current{
			TempC:      round1(payload.Main.Temp),
			TempF:      round1(weather.CelsiusToFahrenheit(payload.Main.Temp)),
			Condition:  cond,
			Humidity:   int(math.Round(payload.Main.Humidity)),
			PressureMb: payload.Main.Pressure, // hPa == mb
			VisKm:      round1(payload.Visibility / 1000),
		},
	}, nil
}

// openWeatherErrorMessage reads {"cod":"404","message":"city not found"}.
func openWeatherErrorMessage(se *statusError) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(se.body, &body); err == nil && body.Message != "" {
		return body.Message
	}
	switch se.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "weather service rejected the api key"
	case http.StatusNotFound:
		return "city not found"
	default:
		return se.Error()
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
