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

// OpenMeteoProvider implements weather.Fetcher for Open-Meteo. It needs no
// api key: the city is resolved through Open-Meteo's geocoding endpoint first.
type OpenMeteoProvider struct {
	name       string
	geocodeURL string
	baseURL    string
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:       "openmeteo",
		geocodeURL: "https://geocoding-api.open-meteo.com/v1/search",
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		client:     client,
		circuit:    newBreaker("openmeteo"),
	}
}

// WithBaseURLs points the provider at different geocoding and forecast endpoints.
func (p *OpenMeteoProvider) WithBaseURLs(geocodeURL, forecastURL string) *OpenMeteoProvider {
	p.geocodeURL = geocodeURL
	p.baseURL = forecastURL
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPlace struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, city string) (weather.Result, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return weather.Result{}, weather.NewFetchError(weather.ErrEmptyCity.Error(), weather.ErrEmptyCity)
	}

	place, err := p.geocode(ctx, city)
	if err != nil {
		return weather.Result{}, err
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", place.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", place.Longitude))
	values.Set("current", "temperature_2m,relative_humidity_2m,pressure_msl,visibility,weather_code")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return weather.Result{}, weather.NewFetchError("could not build weather request", err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		if se, ok := asStatusError(err); ok {
			return weather.Result{}, weather.NewFetchError(openMeteoErrorMessage(se), err)
		}
		return weather.Result{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current *struct {
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			PressureMSL float64 `json:"pressure_msl"`
			Visibility  float64 `json:"visibility"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Result{}, invalidResponse(p.name, err)
	}
	if payload.Current == nil {
		return weather.Result{}, invalidResponse(p.name, fmt.Errorf("response has no current conditions"))
	}
	cur := payload.Current

	return weather.Result{
		Location: weather.Location{
			Name:    place.Name,
			Region:  place.Admin1,
			Country: place.Country,
		},
		Current: weather.Current{
			TempC:      round1(cur.Temperature),
			TempF:      round1(weather.CelsiusToFahrenheit(cur.Temperature)),
			Condition:  weather.Condition{Text: openMeteoConditionText(cur.WeatherCode)},
			Humidity:   int(math.Round(cur.Humidity)),
			PressureMb: round1(cur.PressureMSL),
			VisKm:      round1(cur.Visibility / 1000),
		},
	}, nil
}

func (p *OpenMeteoProvider) geocode(ctx context.Context, city string) (openMeteoPlace, error) {
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", "1")
	values.Set("language", "en")
	values.Set("format", "json")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.geocodeURL, values.Encode()), nil)
	if err != nil {
		return openMeteoPlace{}, weather.NewFetchError("could not build geocoding request", err)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		if se, ok := asStatusError(err); ok {
			return openMeteoPlace{}, weather.NewFetchError(openMeteoErrorMessage(se), err)
		}
		return openMeteoPlace{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []openMeteoPlace `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return openMeteoPlace{}, invalidResponse(p.name, err)
	}
	if len(payload.Results) == 0 {
		return openMeteoPlace{}, weather.NewFetchError("No matching location found.", nil)
	}
	return payload.Results[0], nil
}

// openMeteoErrorMessage reads {"error":true,"reason":"..."}.
func openMeteoErrorMessage(se *statusError) string {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(se.body, &body); err == nil && body.Reason != "" {
		return body.Reason
	}
	return se.Error()
}

// openMeteoConditionText maps WMO weather interpretation codes.
func openMeteoConditionText(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code == 1:
		return "Mainly clear"
	case code == 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "Rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
