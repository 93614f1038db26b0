// Package advisory synthesizes a short weather outlook for the shop's area
// and turns the first day into farm-stage advice.
package advisory

import (
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// ForecastDays is the length of a forecast.
const ForecastDays = 7

// Condition is the sky outlook for one day.
type Condition string

const (
	Sunny        Condition = "Sunny"
	PartlyCloudy Condition = "Partly Cloudy"
	LightRain    Condition = "Light Rain"
	Thunderstorm Condition = "Thunderstorm"
)

const (
	sprayMaxRain = 40
	sprayMaxWind = 18
)

// Day is one forecast entry. Percentages are whole numbers 0..100, wind is
// in km/h and temperature in degrees Celsius.
type Day struct {
	Date       time.Time
	Label      string
	Condition  Condition
	Temp       int
	RainChance int
	WindSpeed  int
	Humidity   int
}

// SpraySafe reports whether spraying is advisable.
func (d Day) SpraySafe() bool {
	return d.RainChance < sprayMaxRain && d.WindSpeed < sprayMaxWind
}

// Source draws the random numbers used by a forecast.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Forecaster generates synthetic forecasts. The same location and start day
// always produce the same forecast.
type Forecaster struct {
	seed uint64
	now  func() time.Time
}

// NewForecaster returns a Forecaster whose output is keyed by seed in
// addition to location and date.
func NewForecaster(seed uint64) *Forecaster {
	return &Forecaster{seed: seed, now: time.Now}
}

// Forecast returns ForecastDays entries starting today for location.
func (f *Forecaster) Forecast(location string) []Day {
	today := f.now()
	return Generate(f.source(location, today), today)
}

func (f *Forecaster) source(location string, day time.Time) Source {
	h := fnv.New64a()
	_, _ = h.Write([]byte(location))
	_, _ = h.Write([]byte(day.Format(time.DateOnly)))
	return rand.New(rand.NewPCG(f.seed, h.Sum64()))
}

// Generate builds a forecast from src starting at start. Rarer weather bands
// are checked first so every condition can occur.
func Generate(src Source, start time.Time) []Day {
	days := make([]Day, 0, ForecastDays)
	for i := range ForecastDays {
		date := start.AddDate(0, 0, i)
		label := date.Weekday().String()[:3]
		if i == 0 {
			label = "Today"
		}

		roll := src.Float64()
		d := Day{
			Date:      date,
			Label:     label,
			Condition: Sunny,
			Humidity:  40 + src.IntN(20),
			WindSpeed: 5 + src.IntN(15),
			Temp:      30 + src.IntN(8),
		}

		switch {
		case roll > 0.95:
			d.Condition = Thunderstorm
			d.RainChance = 80 + src.IntN(20)
			d.WindSpeed += 15
			d.Temp -= 5
			d.Humidity += 30
		case roll > 0.85:
			d.Condition = LightRain
			d.RainChance = 40 + src.IntN(30)
			d.Temp -= 3
			d.Humidity += 20
		case roll > 0.7:
			d.Condition = PartlyCloudy
			d.RainChance = 10 + src.IntN(20)
		}

		days = append(days, d)
	}
	return days
}
