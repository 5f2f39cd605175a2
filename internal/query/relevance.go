package query

import "github.com/aqagent/aqagent/pkg/models"

// ToolCapability declares what a tool is good at, used by RelevanceScore to
// rank tools against a ClassificationResult before the Orchestrator commits
// to a plan.
type ToolCapability struct {
	Name            string
	Africa          bool
	Global          bool
	Realtime        bool
	Historical      bool
	Forecast        bool
	BaseConfidence  float64
}

// KnownToolCapabilities describes the stub tool set named in spec §4.4.
var KnownToolCapabilities = map[string]ToolCapability{
	"get_city_air_quality":            {Name: "get_city_air_quality", Global: true, Realtime: true, BaseConfidence: 0.8},
	"get_african_city_air_quality":    {Name: "get_african_city_air_quality", Africa: true, Realtime: true, BaseConfidence: 0.85},
	"get_openmeteo_current_air_quality": {Name: "get_openmeteo_current_air_quality", Africa: true, Global: true, Realtime: true, BaseConfidence: 0.7},
	"get_air_quality_forecast":        {Name: "get_air_quality_forecast", Africa: true, Global: true, Forecast: true, BaseConfidence: 0.75},
	"get_weather_forecast":            {Name: "get_weather_forecast", Africa: true, Global: true, Forecast: true, BaseConfidence: 0.7},
	"search_web":                      {Name: "search_web", Africa: true, Global: true, BaseConfidence: 0.5},
	"scrape_website":                  {Name: "scrape_website", Africa: true, Global: true, BaseConfidence: 0.5},
	"get_seasonal_context":            {Name: "get_seasonal_context", Africa: true, Historical: true, BaseConfidence: 0.6},
	"generate_chart":                  {Name: "generate_chart", Africa: true, Global: true, BaseConfidence: 0.4},
}

// RelevanceScore scores a tool's fit for a classified query in [0,1], per
// spec §4.3: +20% if the tool specializes in Africa and the query mentions
// an African city, +10% if realtime is requested and supported, -30% if
// historical is requested but unsupported, clamped to 1.0.
func RelevanceScore(tool ToolCapability, result models.ClassificationResult) float64 {
	score := tool.BaseConfidence

	hasAfricanLocation := false
	for _, loc := range result.Locations {
		if loc.IsAfrican {
			hasAfricanLocation = true
			break
		}
	}

	if tool.Africa && !tool.Global && hasAfricanLocation {
		score += 0.2
	}

	wantsRealtime := result.TimeRange == models.TimeRangeCurrent
	if wantsRealtime && tool.Realtime {
		score += 0.1
	}

	wantsHistorical := result.TimeRange == models.TimeRangeHistorical
	if wantsHistorical && !tool.Historical {
		score -= 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// RankTools returns every known tool capability sorted by descending
// relevance for the given classification, for the Orchestrator's planning
// step when a query doesn't name a specific tool.
func RankTools(result models.ClassificationResult) []ToolRanking {
	rankings := make([]ToolRanking, 0, len(KnownToolCapabilities))
	for _, capability := range KnownToolCapabilities {
		rankings = append(rankings, ToolRanking{Tool: capability.Name, Score: RelevanceScore(capability, result)})
	}
	for i := 1; i < len(rankings); i++ {
		for j := i; j > 0 && rankings[j].Score > rankings[j-1].Score; j-- {
			rankings[j], rankings[j-1] = rankings[j-1], rankings[j]
		}
	}
	return rankings
}

// ToolRanking pairs a tool name with its relevance score.
type ToolRanking struct {
	Tool  string
	Score float64
}
