package widget

import (
	"github.com/i474232898/weather-lookup/internal/prefs"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// View is what the page renders: the query state plus preferences, with the
// temperature already read in the selected unit.
type View struct {
	Input       string      `json:"input"`
	Status      Status      `json:"status"`
	Loading     bool        `json:"loading"`
	Error       string      `json:"error,omitempty"`
	Result      *ResultView `json:"result,omitempty"`
	Unit        prefs.Unit  `json:"unit"`
	ToggleLabel string      `json:"toggleLabel"`
	Recent      []string    `json:"recentSearches"`
}

// ResultView is a weather.Result as displayed.
type ResultView struct {
	Name        string     `json:"name"`
	Region      string     `json:"region"`
	Country     string     `json:"country"`
	Temperature float64    `json:"temperature"`
	Unit        prefs.Unit `json:"unit"`
	Condition   string     `json:"condition"`
	Icon        string     `json:"icon,omitempty"`
	Humidity    int        `json:"humidity"`
	PressureMb  float64    `json:"pressureMb"`
	VisKm       float64    `json:"visKm"`
}

// Temperature reads the field of r matching unit.
func Temperature(r weather.Result, unit prefs.Unit) float64 {
	if unit == prefs.Fahrenheit {
		return r.Current.TempF
	}
	return r.Current.TempC
}

func toggleLabel(unit prefs.Unit) string {
	return "Switch to °" + string(unit.Toggle())
}

func (c *Controller) viewLocked() View {
	recent := make([]string, len(c.recent))
	copy(recent, c.recent)

	v := View{
		Input:       c.input,
		Status:      c.status,
		Loading:     c.status == StatusLoading,
		Error:       c.errMsg,
		Unit:        c.unit,
		ToggleLabel: toggleLabel(c.unit),
		Recent:      recent,
	}

	if r := c.result; r != nil {
		v.Result = &ResultView{
			Name:        r.Location.Name,
			Region:      r.Location.Region,
			Country:     r.Location.Country,
			Temperature: Temperature(*r, c.unit),
			Unit:        c.unit,
			Condition:   r.Current.Condition.Text,
			Icon:        r.Current.Condition.Icon,
			Humidity:    r.Current.Humidity,
			PressureMb:  r.Current.PressureMb,
			VisKm:       r.Current.VisKm,
		}
	}
	return v
}
