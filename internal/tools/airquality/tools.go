package airquality

import (
	"encoding/json"
	"fmt"
	"math"
)

// aqiCategory maps a mock AQI value to its US EPA-style category label, used
// across every air-quality stub so the narrative stays consistent.
func aqiCategory(aqi float64) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

var citySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"city": {"type": "string", "description": "City name, e.g. \"Kampala\""},
		"country": {"type": "string", "description": "Optional ISO country name or code"}
	},
	"required": ["city"]
}`)

// NewCityAirQualityTool mocks a global current-conditions lookup (the
// WAQI-style "get_city_air_quality" tool named in spec §4.4).
func NewCityAirQualityTool() *StubTool {
	return NewStubTool("get_city_air_quality",
		"Get current air quality (AQI, PM2.5, PM10) for any city worldwide.",
		citySchema,
		func(p map[string]any) (string, error) {
			city := stringParam(p, "city")
			if city == "" {
				return "", fmt.Errorf("city is required")
			}
			seed := seedHash("get_city_air_quality", city, stringParam(p, "country"))
			aqi := rangeFromSeed(seed, 15, 180)
			pm25 := aqi * 0.45
			out := map[string]any{
				"city":     city,
				"aqi":      math.Round(aqi),
				"category": aqiCategory(aqi),
				"pm2_5":    math.Round(pm25*10) / 10,
				"pm10":     math.Round(pm25*1.6*10) / 10,
				"source":   "WAQI",
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}

// NewAfricanCityAirQualityTool mocks an AirQo-style lookup specialized for
// African cities (spec's higher-confidence African-coverage tool).
func NewAfricanCityAirQualityTool() *StubTool {
	return NewStubTool("get_african_city_air_quality",
		"Get current air quality for an African city from AirQo ground and low-cost sensor networks.",
		citySchema,
		func(p map[string]any) (string, error) {
			city := stringParam(p, "city")
			if city == "" {
				return "", fmt.Errorf("city is required")
			}
			seed := seedHash("get_african_city_air_quality", city, stringParam(p, "country"))
			pm25 := rangeFromSeed(seed, 8, 120)
			aqi := pm25 * 2.1
			out := map[string]any{
				"city":          city,
				"aqi":           math.Round(aqi),
				"category":      aqiCategory(aqi),
				"pm2_5":         math.Round(pm25*10) / 10,
				"station_count": int(seed%6) + 1,
				"source":        "AirQo",
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}

var coordSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"latitude": {"type": "number", "minimum": -90, "maximum": 90},
		"longitude": {"type": "number", "minimum": -180, "maximum": 180}
	},
	"required": ["latitude", "longitude"]
}`)

// NewOpenMeteoCurrentAirQualityTool mocks the coordinate-based, no-API-key
// Open-Meteo air quality lookup — the fallback tool when a city name can't
// be geocoded against the other two providers.
func NewOpenMeteoCurrentAirQualityTool() *StubTool {
	return NewStubTool("get_openmeteo_current_air_quality",
		"Get current air quality for a latitude/longitude pair via Open-Meteo (no API key required).",
		coordSchema,
		func(p map[string]any) (string, error) {
			lat, okLat := floatParam(p, "latitude")
			lon, okLon := floatParam(p, "longitude")
			if !okLat || !okLon {
				return "", fmt.Errorf("latitude and longitude are required")
			}
			seed := seedHash("get_openmeteo_current_air_quality", fmt.Sprintf("%.4f,%.4f", lat, lon))
			pm25 := rangeFromSeed(seed, 5, 95)
			out := map[string]any{
				"latitude":  lat,
				"longitude": lon,
				"pm2_5":     math.Round(pm25*10) / 10,
				"pm10":      math.Round(pm25*1.5*10) / 10,
				"o3":        math.Round(rangeFromSeed(seed+1, 10, 80)),
				"source":    "OpenMeteo",
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}

var forecastSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"city": {"type": "string"},
		"days": {"type": "integer", "minimum": 1, "maximum": 7, "description": "Forecast horizon in days (default 3)"}
	},
	"required": ["city"]
}`)

// NewAirQualityForecastTool mocks a multi-day AQI forecast.
func NewAirQualityForecastTool() *StubTool {
	return NewStubTool("get_air_quality_forecast",
		"Get a multi-day air quality forecast for a city.",
		forecastSchema,
		func(p map[string]any) (string, error) {
			city := stringParam(p, "city")
			if city == "" {
				return "", fmt.Errorf("city is required")
			}
			days := 3
			if d, ok := floatParam(p, "days"); ok && d >= 1 && d <= 7 {
				days = int(d)
			}
			baseSeed := seedHash("get_air_quality_forecast", city)
			daily := make([]map[string]any, 0, days)
			for i := 0; i < days; i++ {
				aqi := rangeFromSeed(baseSeed+uint32(i)*97, 20, 170)
				daily = append(daily, map[string]any{
					"day_offset": i,
					"aqi":        math.Round(aqi),
					"category":   aqiCategory(aqi),
				})
			}
			out := map[string]any{"city": city, "forecast": daily, "source": "forecast provider"}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}

// NewWeatherForecastTool mocks an Open-Meteo-style weather forecast, used to
// contextualize pollution dispersion (wind, rain wash-out).
func NewWeatherForecastTool() *StubTool {
	return NewStubTool("get_weather_forecast",
		"Get a short-term weather forecast (temperature, wind, precipitation) for a city.",
		forecastSchema,
		func(p map[string]any) (string, error) {
			city := stringParam(p, "city")
			if city == "" {
				return "", fmt.Errorf("city is required")
			}
			days := 3
			if d, ok := floatParam(p, "days"); ok && d >= 1 && d <= 7 {
				days = int(d)
			}
			baseSeed := seedHash("get_weather_forecast", city)
			daily := make([]map[string]any, 0, days)
			for i := 0; i < days; i++ {
				s := baseSeed + uint32(i)*131
				daily = append(daily, map[string]any{
					"day_offset":       i,
					"temp_c":           math.Round(rangeFromSeed(s, 14, 34)),
					"wind_speed_kph":   math.Round(rangeFromSeed(s+1, 2, 35)),
					"precipitation_mm": math.Round(rangeFromSeed(s+2, 0, 20)),
				})
			}
			out := map[string]any{"city": city, "forecast": daily, "source": "Open-Meteo"}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}

var seasonalSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"city": {"type": "string"},
		"month": {"type": "integer", "minimum": 1, "maximum": 12, "description": "1-indexed month, defaults to a neutral mid-year estimate"}
	},
	"required": ["city"]
}`)

// NewSeasonalContextTool mocks historical-pattern commentary (dry-season
// dust, burning-season haze) that the LLM can cite alongside live readings.
func NewSeasonalContextTool() *StubTool {
	return NewStubTool("get_seasonal_context",
		"Get historical seasonal air quality patterns for a city (dry season, harmattan, burning season, etc.).",
		seasonalSchema,
		func(p map[string]any) (string, error) {
			city := stringParam(p, "city")
			if city == "" {
				return "", fmt.Errorf("city is required")
			}
			month := 6
			if m, ok := floatParam(p, "month"); ok && m >= 1 && m <= 12 {
				month = int(m)
			}
			dry := month == 12 || month <= 2 || (month >= 6 && month <= 8)
			note := "typically moderate air quality with no strong seasonal driver"
			if dry {
				note = "typically elevated particulate levels during the dry season due to dust and biomass burning"
			}
			out := map[string]any{"city": city, "month": month, "seasonal_note": note, "source": "seasonal model"}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}

var chartSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"labels": {"type": "array", "items": {"type": "string"}},
		"values": {"type": "array", "items": {"type": "number"}}
	},
	"required": ["labels", "values"]
}`)

// NewGenerateChartTool mocks a chart-rendering tool: it doesn't render
// pixels, it returns the structured spec a chart frontend would consume,
// per spec's Non-goals excluding a real rendering pipeline.
func NewGenerateChartTool() *StubTool {
	return NewStubTool("generate_chart",
		"Produce a chart specification (labels/values/title) for the client to render.",
		chartSchema,
		func(p map[string]any) (string, error) {
			title := stringParam(p, "title")
			if title == "" {
				title = "Air Quality Chart"
			}
			labels, _ := p["labels"].([]any)
			values, _ := p["values"].([]any)
			if len(labels) == 0 || len(values) == 0 {
				return "", fmt.Errorf("labels and values are required and must be non-empty")
			}
			out := map[string]any{
				"chart_type": "line",
				"title":      title,
				"labels":     labels,
				"values":     values,
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		})
}
