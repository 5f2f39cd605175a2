package airquality

import (
	"github.com/aqagent/aqagent/internal/agent"
	"github.com/aqagent/aqagent/internal/tools/websearch"
)

// searchWebAdapter renames the kept websearch.WebSearchTool to the tool name
// spec §4.4 and query/relevance.go's KnownToolCapabilities expect:
// "search_web" rather than the teacher's "web_search". Embedding keeps every
// other method (Description/Schema/Execute) delegating straight through; the
// outer Name() shadows the embedded one.
type searchWebAdapter struct {
	*websearch.WebSearchTool
}

func (searchWebAdapter) Name() string { return "search_web" }

// NewSearchWebTool wraps the teacher's web search tool under the spec name.
func NewSearchWebTool(config *websearch.Config) agent.Tool {
	return searchWebAdapter{websearch.NewWebSearchTool(config)}
}

// scrapeWebsiteAdapter does the same for the kept web fetch tool, whose
// teacher name "web_fetch" conflicts with the spec name "scrape_website"
// already assumed by context_injection.go and redaction.go.
type scrapeWebsiteAdapter struct {
	*websearch.WebFetchTool
}

func (scrapeWebsiteAdapter) Name() string { return "scrape_website" }

// NewScrapeWebsiteTool wraps the teacher's web fetch tool under the spec name.
func NewScrapeWebsiteTool(config *websearch.FetchConfig, opts ...websearch.WebFetchOption) agent.Tool {
	return scrapeWebsiteAdapter{websearch.NewWebFetchTool(config, opts...)}
}

// RegisterDefaults registers the full nine-tool set named in spec §4.4 onto
// registry: the seven air-quality/weather mocks plus the two renamed
// websearch adapters. Callers that need custom search/fetch configuration
// can register those two directly via NewSearchWebTool/NewScrapeWebsiteTool
// instead of calling this function.
func RegisterDefaults(registry *agent.ToolRegistry, searchConfig *websearch.Config, fetchConfig *websearch.FetchConfig) {
	registry.Register(NewCityAirQualityTool())
	registry.Register(NewAfricanCityAirQualityTool())
	registry.Register(NewOpenMeteoCurrentAirQualityTool())
	registry.Register(NewAirQualityForecastTool())
	registry.Register(NewWeatherForecastTool())
	registry.Register(NewSeasonalContextTool())
	registry.Register(NewGenerateChartTool())
	registry.Register(NewSearchWebTool(searchConfig))
	registry.Register(NewScrapeWebsiteTool(fetchConfig))
}
