package agent

import (
	"testing"

	"github.com/aqagent/aqagent/pkg/models"
)

func TestPlanToolCalls_NoExternalDataYieldsNoCalls(t *testing.T) {
	result := models.ClassificationResult{NeedsExternalData: false}
	calls := PlanToolCalls(result)
	if len(calls) != 0 {
		t.Fatalf("expected no calls when NeedsExternalData is false, got %d", len(calls))
	}
}

func TestPlanToolCalls_GeneralKnowledgeYieldsNoCalls(t *testing.T) {
	result := models.ClassificationResult{NeedsExternalData: true, Intent: models.IntentGeneralKnowledge}
	calls := PlanToolCalls(result)
	if len(calls) != 0 {
		t.Fatalf("expected no calls for general knowledge intent, got %d", len(calls))
	}
}

func TestPlanToolCalls_AfricanCityPrefersAirQoTool(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentAirQualityData,
		TimeRange:         models.TimeRangeCurrent,
		Locations:         []models.Location{{Name: "Kampala", IsAfrican: true}},
	}
	calls := PlanToolCalls(result)
	if len(calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(calls))
	}
	if calls[0].Name != "get_african_city_air_quality" {
		t.Fatalf("expected get_african_city_air_quality, got %s", calls[0].Name)
	}
}

func TestPlanToolCalls_GlobalCityUsesWAQITool(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentAirQualityData,
		TimeRange:         models.TimeRangeCurrent,
		Locations:         []models.Location{{Name: "London", IsAfrican: false}},
	}
	calls := PlanToolCalls(result)
	if len(calls) != 1 || calls[0].Name != "get_city_air_quality" {
		t.Fatalf("expected a single get_city_air_quality call, got %+v", calls)
	}
}

func TestPlanToolCalls_ForecastAddsWeatherAndAQForecast(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentForecast,
		TimeRange:         models.TimeRangeForecast,
		Locations:         []models.Location{{Name: "Accra", IsAfrican: true}},
	}
	calls := PlanToolCalls(result)
	names := map[string]bool{}
	for _, c := range calls {
		names[c.Name] = true
	}
	for _, want := range []string{"get_air_quality_forecast", "get_weather_forecast"} {
		if !names[want] {
			t.Fatalf("expected %s in forecast plan, got %+v", want, calls)
		}
	}
}

func TestPlanToolCalls_HistoricalUsesSeasonalContext(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentTrendAnalysis,
		TimeRange:         models.TimeRangeHistorical,
		Locations:         []models.Location{{Name: "Lagos", IsAfrican: true}},
	}
	calls := PlanToolCalls(result)
	if len(calls) != 1 || calls[0].Name != "get_seasonal_context" {
		t.Fatalf("expected get_seasonal_context for historical query, got %+v", calls)
	}
}

func TestPlanToolCalls_CoordinatesOnlyUseOpenMeteo(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentAirQualityData,
		TimeRange:         models.TimeRangeCurrent,
		Coordinates:       &models.Coordinates{Latitude: 0.3, Longitude: 32.5},
	}
	calls := PlanToolCalls(result)
	if len(calls) != 1 || calls[0].Name != "get_openmeteo_current_air_quality" {
		t.Fatalf("expected get_openmeteo_current_air_quality, got %+v", calls)
	}
}

func TestPlanToolCalls_NoLocationFallsBackToSearch(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentHealthAdvice,
		TimeRange:         models.TimeRangeCurrent,
	}
	calls := PlanToolCalls(result)
	if len(calls) != 1 || calls[0].Name != "search_web" {
		t.Fatalf("expected a search_web fallback call, got %+v", calls)
	}
}

func TestPlanToolCalls_ComparisonFansOutPerLocation(t *testing.T) {
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentComparison,
		ComparisonIntent:  true,
		TimeRange:         models.TimeRangeCurrent,
		Locations: []models.Location{
			{Name: "Nairobi", IsAfrican: true},
			{Name: "Paris", IsAfrican: false},
		},
	}
	calls := PlanToolCalls(result)
	if len(calls) != 2 {
		t.Fatalf("expected one call per location, got %d: %+v", len(calls), calls)
	}
}

func TestPlanToolCalls_CapsAtMaxPlannedToolCalls(t *testing.T) {
	locs := make([]models.Location, 0, 10)
	for i := 0; i < 10; i++ {
		locs = append(locs, models.Location{Name: "City", IsAfrican: false})
	}
	result := models.ClassificationResult{
		NeedsExternalData: true,
		Intent:            models.IntentComparison,
		TimeRange:         models.TimeRangeCurrent,
		Locations:         locs,
	}
	calls := PlanToolCalls(result)
	if len(calls) > maxPlannedToolCalls {
		t.Fatalf("expected plan capped at %d calls, got %d", maxPlannedToolCalls, len(calls))
	}
}
