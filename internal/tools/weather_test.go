package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func runWeather(t *testing.T, params Params) string {
	t.Helper()
	res, err := NewWeatherTool().Execute(context.Background(), params, Meta{MaxBytes: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res.Output
}

func TestWeatherFahrenheit(t *testing.T) {
	out := runWeather(t, Params{"city": "北京", "unit": "fahrenheit"})
	if !strings.Contains(out, "59.0°F") {
		t.Fatalf("expected 59.0°F in %q", out)
	}
	if !strings.Contains(out, "晴") {
		t.Fatalf("expected condition in %q", out)
	}
}

func TestWeatherFormat(t *testing.T) {
	out := runWeather(t, Params{"city": "London"})
	want := "📍 London 的天气信息:\n🌡️ 温度: 12°C\n☁️ 天气: Cloudy\n💧 湿度: 70%"
	if out != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestWeatherDefaultsToCelsius(t *testing.T) {
	for _, unit := range []any{nil, "温度", "Fahrenheit", "kelvin", ""} {
		params := Params{"city": "北京"}
		if unit != nil {
			params["unit"] = unit
		}
		out := runWeather(t, params)
		if !strings.Contains(out, "15°C") || !strings.Contains(out, "45%") {
			t.Fatalf("unit %v: expected celsius output, got %q", unit, out)
		}
	}
}

func TestWeatherFahrenheitEveryCity(t *testing.T) {
	for _, city := range WeatherCities() {
		report, _ := LookupWeather(city)
		want := fmt.Sprintf("%.1f°F", math.Round((report.Temperature*9/5+32)*10)/10)
		out := runWeather(t, Params{"city": city, "unit": UnitFahrenheit})
		if !strings.Contains(out, want) {
			t.Fatalf("%s: expected %s in %q", city, want, out)
		}
	}
}

func TestWeatherUnknownCity(t *testing.T) {
	out := runWeather(t, Params{"city": "Paris"})
	if out != NotFoundMessage("Paris") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "Paris") {
		t.Fatalf("expected city in not-found message")
	}
}

func TestWeatherRequiresCity(t *testing.T) {
	for _, params := range []Params{{}, {"city": "  "}, {"unit": "celsius"}} {
		_, err := NewWeatherTool().Execute(context.Background(), params, Meta{})
		if !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("expected ErrInvalidParams for %v, got %v", params, err)
		}
	}
}

func TestToFahrenheit(t *testing.T) {
	if got := ToFahrenheit(15); got != 59 {
		t.Fatalf("expected 59, got %v", got)
	}
	if got := ToFahrenheit(-40); got != -40 {
		t.Fatalf("expected -40, got %v", got)
	}
	if got := ToFahrenheit(21.3); got != 70.3 {
		t.Fatalf("expected 70.3, got %v", got)
	}
}
