package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Provider names accepted by New.
const (
	WeatherAPI  = "weatherapi"
	OpenWeather = "openweather"
	OpenMeteo   = "openmeteo"
)

// Keys carries the api keys of the keyed providers.
type Keys struct {
	WeatherAPI  string
	OpenWeather string
}

// New builds the fetcher named by name. An empty name picks the first
// provider that has a key, falling back to the keyless Open-Meteo.
func New(name string, client *http.Client, keys Keys) (weather.Fetcher, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		switch {
		case keys.WeatherAPI != "":
			name = WeatherAPI
		case keys.OpenWeather != "":
			name = OpenWeather
		default:
			name = OpenMeteo
		}
	}

	switch name {
	case WeatherAPI:
		return NewWeatherAPIProvider(client, keys.WeatherAPI), nil
	case OpenWeather, "openweathermap":
		return NewOpenWeatherProvider(client, keys.OpenWeather), nil
	case OpenMeteo:
		return NewOpenMeteoProvider(client), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", name)
	}
}
