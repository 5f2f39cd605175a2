package safety

import (
	"regexp"

	"github.com/aqagent/aqagent/internal/observability"
)

// outboundRedactPatterns reuses observability.DefaultRedactPatterns
// verbatim (per spec §4.2's explicit instruction to avoid duplicate
// pattern maintenance between logging and outbound-response redaction)
// plus two response-filter-specific patterns ported from
// original_source/shared/utils/security.py's ResponseFilter that have no
// logging equivalent: "key is abc123"-style prose leaks and bare
// "key <token>" mentions.
var outboundRedactPatterns = compileRedactPatterns()

func compileRedactPatterns() []*regexp.Regexp {
	patterns := append([]string{}, observability.DefaultRedactPatterns...)
	patterns = append(patterns,
		`(?i)(api\s*key|token|secret|password|auth\s*key)\s+(is|are|:|=)\s+[a-zA-Z0-9_\-]+`,
		`(?i)\b(key|token)\s+[a-zA-Z0-9_\-]{20,}\b`,
	)

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// toolMentionPatterns strip internal tool/function names and API-call
// language from outbound responses so users never see implementation
// details, per spec §4.2's response-filter requirement.
var toolMentionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(get_african_city_air_quality|get_city_air_quality|get_weather_forecast|get_air_quality_forecast|get_openmeteo_current_air_quality|get_seasonal_context|search_web|scrape_website|generate_chart)\b`),
	regexp.MustCompile(`(?i)\b(API call|function call|tool call|retrieved through)\b`),
	regexp.MustCompile(`(?i)\b(using the|via the|through the)\s+\w+_?\w*\s+(API|service|function)\b`),
	regexp.MustCompile(`(?i)\b(called|executed|invoked)\s+(the\s+)?\w+_?\w*\s+(function|API|tool)\b`),
}

// toolSourceNames maps internal tool identifiers to the user-friendly
// provider name they should read instead, per spec §4.2.
var toolSourceNames = map[string]string{
	"get_african_city_air_quality":      "AirQo",
	"get_city_air_quality":              "WAQI",
	"get_weather_forecast":              "Open-Meteo",
	"get_air_quality_forecast":          "Open-Meteo",
	"get_openmeteo_current_air_quality": "Open-Meteo",
	"search_web":                        "web search",
}

// RedactOutbound removes credentials, tool/function names, and internal
// API-call language from a response before it is shown to the user.
func RedactOutbound(text string) string {
	for _, pattern := range outboundRedactPatterns {
		text = pattern.ReplaceAllString(text, "[REDACTED]")
	}
	for name, friendly := range toolSourceNames {
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		text = pattern.ReplaceAllString(text, friendly)
	}
	for _, pattern := range toolMentionPatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return text
}
