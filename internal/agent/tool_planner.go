package agent

import (
	"encoding/json"
	"fmt"

	"github.com/aqagent/aqagent/internal/query"
	"github.com/aqagent/aqagent/pkg/models"
)

// maxPlannedToolCalls bounds the proactive plan so a query naming many
// locations still fans out to a reasonable number of parallel calls within
// the Orchestrator's per-batch semaphore (default 5, see OrchestratorConfig).
const maxPlannedToolCalls = 6

// PlanToolCalls builds the proactive ExecutionPlan step of spec §4.9 step 10:
// turn a ClassificationResult into a concrete batch of ToolCalls before the
// LLM is ever invoked. Selection is driven by query/relevance.go's
// RankTools — the planner picks, for each location the query names (or the
// raw coordinate pair when no city name was recognized), the
// highest-ranked tool whose capability flags match what the query's
// TimeRange actually needs (current/forecast/historical), so a historical
// question about Lagos doesn't get routed to a realtime-only tool.
//
// Chart generation is deliberately NOT planned here: generate_chart needs
// the numeric series the other tool calls return, which don't exist yet at
// plan time since batches run after this function returns. It is left to
// the Provider's tool-call text-extraction fallback (§4.8), which runs
// after the proactive batch's results are already in context.
func PlanToolCalls(result models.ClassificationResult) []models.ToolCall {
	if !result.NeedsExternalData {
		return nil
	}
	if result.Intent == models.IntentGeneralKnowledge || result.Intent == models.IntentPersonalInfo {
		return nil
	}

	rankings := query.RankTools(result)
	scoreByTool := make(map[string]float64, len(rankings))
	for _, r := range rankings {
		scoreByTool[r.Tool] = r.Score
	}

	var calls []models.ToolCall
	nextID := 0
	newCall := func(name string, input map[string]any) {
		if len(calls) >= maxPlannedToolCalls {
			return
		}
		raw, err := json.Marshal(input)
		if err != nil {
			return
		}
		calls = append(calls, models.ToolCall{
			ID:       fmt.Sprintf("call-%d", nextID),
			Name:     name,
			Input:    json.RawMessage(raw),
			Priority: nextID,
			Status:   models.ToolCallPending,
		})
		nextID++
	}

	wantsForecast := result.TimeRange == models.TimeRangeForecast
	wantsHistorical := result.TimeRange == models.TimeRangeHistorical

	locationTool := func(loc models.Location) string {
		switch {
		case wantsHistorical:
			return "get_seasonal_context"
		case loc.IsAfrican:
			return bestOf(scoreByTool, "get_african_city_air_quality", "get_city_air_quality")
		default:
			return bestOf(scoreByTool, "get_city_air_quality", "get_african_city_air_quality")
		}
	}

	if len(result.Locations) == 0 && result.Coordinates != nil {
		newCall("get_openmeteo_current_air_quality", map[string]any{
			"latitude":  result.Coordinates.Latitude,
			"longitude": result.Coordinates.Longitude,
		})
	}

	for _, loc := range result.Locations {
		newCall(locationTool(loc), map[string]any{"city": loc.Name})
		if wantsForecast {
			newCall("get_air_quality_forecast", map[string]any{"city": loc.Name})
			newCall("get_weather_forecast", map[string]any{"city": loc.Name})
		}
	}

	if len(result.Locations) == 0 && result.Coordinates == nil {
		// No resolvable place: fall back to a web search for the raw query
		// intent rather than skipping external data entirely.
		newCall("search_web", map[string]any{"query": defaultSearchQuery(result)})
	}

	return calls
}

// bestOf returns whichever of preferred/fallback scores higher in
// scoreByTool, defaulting to preferred if neither is present.
func bestOf(scoreByTool map[string]float64, preferred, fallback string) string {
	if scoreByTool[fallback] > scoreByTool[preferred] {
		return fallback
	}
	return preferred
}

// defaultSearchQuery synthesizes a web search query when no location or
// coordinate could be resolved from the classification.
func defaultSearchQuery(result models.ClassificationResult) string {
	switch result.Intent {
	case models.IntentHealthAdvice:
		return "air quality health advice"
	case models.IntentTrendAnalysis:
		return "air quality trends"
	default:
		return "current air quality"
	}
}
