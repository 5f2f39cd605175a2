// Package query implements the deterministic Query Analyzer: a pure,
// regex/keyword classifier that turns raw user text into a
// models.ClassificationResult without ever calling a model. It is grounded
// on the compiled-regex classifier style of the teacher's
// internal/agent/routing/heuristic.go and on the concrete city/keyword
// tables of original_source's query_analyzer.py.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aqagent/aqagent/pkg/models"
)

// africanCities and globalCities are the closed dictionaries the Analyzer
// scans message text against. Matching is substring-based on the
// lowercased message, same as the original_source implementation.
var africanCities = []string{
	"kampala", "gulu", "jinja", "mbale", "mbarara", "nakasero",
	"nairobi", "mombasa", "kisumu", "nakuru", "eldoret",
	"dar es salaam", "dodoma", "mwanza", "arusha", "mbeya",
	"kigali", "butare", "musanze", "ruhengeri", "gisenyi",
	"addis ababa", "accra", "lagos", "abuja", "cairo", "alexandria",
}

var globalCities = []string{
	"london", "paris", "berlin", "munich", "rome", "madrid",
	"new york", "los angeles", "chicago", "houston", "phoenix",
	"tokyo", "osaka", "kyoto", "beijing", "shanghai", "guangzhou",
	"delhi", "mumbai", "bangalore", "chennai", "kolkata",
	"sydney", "melbourne", "brisbane", "perth", "auckland",
	"toronto", "vancouver", "montreal", "mexico city", "sao paulo",
}

var coordinatePattern = regexp.MustCompile(`(-?\d+\.?\d*)\s*,\s*(-?\d+\.?\d*)`)

var forecastKeywords = []string{
	"forecast", "tomorrow", "next day", "future", "prediction",
	"will be", "going to be", "expect", "predicted", "outlook",
	"next week", "next month", "in the future", "upcoming",
}

var historicalKeywords = []string{
	"yesterday", "last week", "last month", "trend", "history", "historical", "past",
}

var comparisonTimeKeywords = []string{
	"weekend", "daily", "hourly",
}

var comparisonConnectors = []string{" vs ", " versus ", " compared to "}

var airQualityKeywords = []string{
	"air quality", "aqi", "pollution", "pm2.5", "pm10",
	"pollutant", "smog", "air", "breathe", "safe to exercise",
	"outdoor", "environment", "atmospheric",
}

var healthAdviceKeywords = []string{
	"safe", "health", "exercise", "asthma", "breathe", "mask", "sensitive", "children", "elderly",
}

var generalKnowledgeKeywords = []string{
	"what is", "what are", "explain", "why does", "how does", "define",
}

var metricKeywords = map[models.Metric][]string{
	models.MetricAQI:  {"aqi", "air quality index"},
	models.MetricPM25: {"pm2.5", "pm 2.5", "pm25"},
	models.MetricPM10: {"pm10", "pm 10"},
	models.MetricO3:   {"ozone", "o3"},
	models.MetricNO2:  {"no2", "nitrogen dioxide"},
	models.MetricSO2:  {"so2", "sulfur dioxide"},
	models.MetricCO:   {"carbon monoxide", " co "},
}

var namePattern = regexp.MustCompile(`(?i)\bmy name is\s+([a-z][a-z '-]{0,40})`)
var liveInPattern = regexp.MustCompile(`(?i)\bi\s+live\s+in\s+([a-z][a-z ,'-]{0,60})`)
var fromPattern = regexp.MustCompile(`(?i)\bi'?m\s+from\s+([a-z][a-z ,'-]{0,60})`)
var recallNamePattern = regexp.MustCompile(`(?i)what'?s\s+my\s+name|what\s+is\s+my\s+name|do\s+you\s+know\s+my\s+name`)
var recallLocationPattern = regexp.MustCompile(`(?i)where\s+do\s+i\s+live|where\s+am\s+i\s+from|what'?s\s+my\s+location`)

// Classify is the Query Analyzer's entry point: a pure function from raw
// user text to a ClassificationResult. No I/O, no model call.
func Classify(message string) models.ClassificationResult {
	lower := strings.ToLower(message)

	locations := detectLocations(lower)
	coords := detectCoordinates(message)
	timeRange := detectTimeRange(lower)
	metrics := detectMetrics(lower)
	comparisonIntent := detectComparisonIntent(lower, locations)

	scores := scoreIntents(lower, locations, coords, comparisonIntent, timeRange)
	intent, topScore := topIntent(scores)

	result := models.ClassificationResult{
		Intent:           intent,
		Locations:        locations,
		Coordinates:      coords,
		Metrics:          metrics,
		TimeRange:        timeRange,
		ComparisonIntent: comparisonIntent,
	}

	wordCount := len(strings.Fields(message))
	matchCount := countMatchingIntents(scores)
	switch {
	case len(locations) > 2 || (comparisonIntent && timeRange == models.TimeRangeHistorical):
		result.Complexity = models.ComplexityComplex
	case wordCount < 10 && matchCount <= 1:
		result.Complexity = models.ComplexitySimple
	default:
		result.Complexity = models.ComplexityModerate
	}

	switch intent {
	case models.IntentAirQualityData, models.IntentForecast, models.IntentComparison, models.IntentTrendAnalysis:
		result.NeedsExternalData = true
	}

	confidence := topScore / 3
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0.5 {
		confidence = 0.5
	}
	result.Confidence = confidence

	applyPersonalInfoSubProtocol(message, &result)

	return result
}

func detectLocations(lower string) []models.Location {
	var locs []models.Location
	seen := make(map[string]bool)
	for _, c := range africanCities {
		if strings.Contains(lower, c) && !seen[c] {
			seen[c] = true
			locs = append(locs, models.Location{Name: strings.Title(c), IsAfrican: true})
		}
	}
	for _, c := range globalCities {
		if strings.Contains(lower, c) && !seen[c] {
			seen[c] = true
			locs = append(locs, models.Location{Name: strings.Title(c), IsAfrican: false})
		}
	}
	return locs
}

func detectCoordinates(message string) *models.Coordinates {
	m := coordinatePattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &models.Coordinates{Latitude: lat, Longitude: lon}
}

func detectTimeRange(lower string) models.TimeRange {
	if containsAny(lower, forecastKeywords) {
		return models.TimeRangeForecast
	}
	if containsAny(lower, historicalKeywords) {
		return models.TimeRangeHistorical
	}
	if containsAny(lower, comparisonTimeKeywords) {
		return models.TimeRangeComparison
	}
	return models.TimeRangeCurrent
}

func detectMetrics(lower string) []models.Metric {
	var metrics []models.Metric
	for metric, keywords := range metricKeywords {
		if containsAny(lower, keywords) {
			metrics = append(metrics, metric)
		}
	}
	if len(metrics) == 0 {
		return []models.Metric{models.MetricAQI}
	}
	return metrics
}

func detectComparisonIntent(lower string, locations []models.Location) bool {
	if containsAny(lower, comparisonConnectors) {
		return true
	}
	return len(locations) > 1
}

// intentOrder is the tie-break priority, highest first.
var intentOrder = []models.Intent{
	models.IntentPersonalInfo,
	models.IntentAirQualityData,
	models.IntentForecast,
	models.IntentComparison,
	models.IntentTrendAnalysis,
	models.IntentHealthAdvice,
	models.IntentGeneralKnowledge,
	models.IntentGeneralInquiry,
}

func scoreIntents(lower string, locations []models.Location, coords *models.Coordinates, comparisonIntent bool, timeRange models.TimeRange) map[models.Intent]float64 {
	scores := make(map[models.Intent]float64)

	if isPersonalInfoMessage(lower) {
		scores[models.IntentPersonalInfo] = 3
	}

	isAirQuality := containsAny(lower, airQualityKeywords)
	hasLocation := len(locations) > 0 || coords != nil

	if isAirQuality && hasLocation {
		scores[models.IntentAirQualityData] += 2
	}
	if isAirQuality && timeRange == models.TimeRangeForecast {
		scores[models.IntentForecast] += 2
	}
	if comparisonIntent && isAirQuality {
		scores[models.IntentComparison] += 1.5
	}
	if isAirQuality && timeRange == models.TimeRangeHistorical {
		scores[models.IntentTrendAnalysis] += 1.5
	}
	if containsAny(lower, healthAdviceKeywords) {
		scores[models.IntentHealthAdvice] += 1
	}
	if containsAny(lower, generalKnowledgeKeywords) {
		scores[models.IntentGeneralKnowledge] += 0.5
	}

	if len(scores) == 0 {
		scores[models.IntentGeneralInquiry] = 0.5
	}

	return scores
}

func topIntent(scores map[models.Intent]float64) (models.Intent, float64) {
	var best models.Intent
	bestScore := -1.0
	for _, intent := range intentOrder {
		if s, ok := scores[intent]; ok && s > bestScore {
			best = intent
			bestScore = s
		}
	}
	if bestScore < 0 {
		return models.IntentGeneralInquiry, 0.5
	}
	return best, bestScore
}

func countMatchingIntents(scores map[models.Intent]float64) int {
	n := 0
	for _, s := range scores {
		if s > 0 {
			n++
		}
	}
	return n
}

func isPersonalInfoMessage(lower string) bool {
	return namePattern.MatchString(lower) || liveInPattern.MatchString(lower) ||
		fromPattern.MatchString(lower) || recallNamePattern.MatchString(lower) ||
		recallLocationPattern.MatchString(lower)
}

// applyPersonalInfoSubProtocol fills the PersonalInfo* fields when the
// classifier's top intent is personal_info, distinguishing a share
// ("my name is X") from a recall question ("what's my name").
func applyPersonalInfoSubProtocol(message string, result *models.ClassificationResult) {
	if result.Intent != models.IntentPersonalInfo {
		return
	}

	if m := namePattern.FindStringSubmatch(message); m != nil {
		result.PersonalInfoSharing = true
		result.PersonalInfoName = strings.TrimSpace(m[1])
	}
	if m := liveInPattern.FindStringSubmatch(message); m != nil {
		result.PersonalInfoSharing = true
		result.PersonalInfoLocation = strings.TrimSpace(m[1])
	}
	if m := fromPattern.FindStringSubmatch(message); m != nil {
		result.PersonalInfoSharing = true
		if result.PersonalInfoLocation == "" {
			result.PersonalInfoLocation = strings.TrimSpace(m[1])
		}
	}

	if !result.PersonalInfoSharing {
		result.PersonalInfoSharing = false
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
