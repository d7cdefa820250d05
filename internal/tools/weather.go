package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	UnitCelsius    = "celsius"
	UnitFahrenheit = "fahrenheit"
)

// WeatherReport is one row of the static weather table.
type WeatherReport struct {
	Temperature float64
	Condition   string
	Humidity    int
}

// weatherTable is read-only after package init.
var weatherTable = map[string]WeatherReport{
	"北京":       {Temperature: 15, Condition: "晴", Humidity: 45},
	"上海":       {Temperature: 20, Condition: "多云", Humidity: 60},
	"深圳":       {Temperature: 25, Condition: "雨", Humidity: 80},
	"New York": {Temperature: 18, Condition: "Sunny", Humidity: 50},
	"London":   {Temperature: 12, Condition: "Cloudy", Humidity: 70},
}

// LookupWeather returns the table row for city.
func LookupWeather(city string) (WeatherReport, bool) {
	report, ok := weatherTable[city]
	return report, ok
}

// WeatherCities lists the cities the table knows about.
func WeatherCities() []string {
	cities := make([]string, 0, len(weatherTable))
	for city := range weatherTable {
		cities = append(cities, city)
	}
	return cities
}

// ToFahrenheit converts Celsius and rounds to one decimal place.
func ToFahrenheit(celsius float64) float64 {
	return math.Round((celsius*9/5+32)*10) / 10
}

// FormatTemperature renders a Celsius reading in the requested unit. Anything other than
// "fahrenheit" means Celsius.
func FormatTemperature(celsius float64, unit string) string {
	if unit == UnitFahrenheit {
		return fmt.Sprintf("%.1f°F", ToFahrenheit(celsius))
	}
	return strconv.FormatFloat(celsius, 'f', -1, 64) + "°C"
}

// NotFoundMessage is returned for cities missing from the table.
func NotFoundMessage(city string) string {
	return "抱歉,暂时无法查询 " + city + " 的天气信息"
}

// WeatherTool answers weather questions from the static table.
type WeatherTool struct{}

// NewWeatherTool constructs the weather lookup.
func NewWeatherTool() *WeatherTool {
	return &WeatherTool{}
}

func (w *WeatherTool) Name() string { return "get_weather" }

func (w *WeatherTool) Description() string {
	return "Look up the current weather for a city."
}

func (w *WeatherTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
			"unit": map[string]any{"type": "string", "enum": []string{UnitCelsius, UnitFahrenheit}},
		},
		"required": []string{"city"},
	}
}

type weatherInput struct {
	City string `mapstructure:"city"`
	Unit string `mapstructure:"unit"`
}

func (w *WeatherTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require("city"); err != nil {
		return Result{}, err
	}
	args := weatherInput{Unit: UnitCelsius}
	if err := params.Decode(&args); err != nil {
		return Result{}, err
	}
	start := time.Now()

	report, ok := LookupWeather(args.City)
	if !ok {
		return newResult(w.Name(), NotFoundMessage(args.City), meta, start), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📍 %s 的天气信息:\n", args.City)
	fmt.Fprintf(&b, "🌡️ 温度: %s\n", FormatTemperature(report.Temperature, args.Unit))
	fmt.Fprintf(&b, "☁️ 天气: %s\n", report.Condition)
	fmt.Fprintf(&b, "💧 湿度: %d%%", report.Humidity)
	return newResult(w.Name(), b.String(), meta, start), nil
}
