package weather

import (
	"context"
)

// Fetcher abstracts the remote weather API (e.g. WeatherAPI, OpenWeatherMap, Open-Meteo).
// Every error it returns is a *FetchError.
type Fetcher interface {
	Name() string
	FetchWeather(ctx context.Context, city string) (Result, error)
}
