package models

import "time"

// Intent is the classified purpose of a user query.
type Intent string

const (
	IntentAirQualityData   Intent = "air_quality_data"
	IntentForecast         Intent = "forecast"
	IntentHealthAdvice     Intent = "health_advice"
	IntentComparison       Intent = "comparison"
	IntentTrendAnalysis    Intent = "trend_analysis"
	IntentGeneralKnowledge Intent = "general_knowledge"
	IntentPersonalInfo     Intent = "personal_info"
	IntentGeneralInquiry   Intent = "general_inquiry"
)

// Complexity is the estimated difficulty of answering a query.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// TimeRange is the temporal scope of a query.
type TimeRange string

const (
	TimeRangeCurrent    TimeRange = "current"
	TimeRangeForecast   TimeRange = "forecast"
	TimeRangeHistorical TimeRange = "historical"
	TimeRangeComparison TimeRange = "comparison"
)

// Metric is a pollutant or index the user is asking about.
type Metric string

const (
	MetricAQI  Metric = "aqi"
	MetricPM25 Metric = "pm25"
	MetricPM10 Metric = "pm10"
	MetricO3   Metric = "o3"
	MetricNO2  Metric = "no2"
	MetricSO2  Metric = "so2"
	MetricCO   Metric = "co"
)

// Location is a detected place name, flagged by region.
type Location struct {
	Name      string `json:"name"`
	IsAfrican bool   `json:"is_african"`
}

// Coordinates is a detected lat/lon pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClassificationResult is the deterministic, pure output of the Query Analyzer.
type ClassificationResult struct {
	Intent            Intent       `json:"intent"`
	Complexity        Complexity   `json:"complexity"`
	Locations         []Location   `json:"locations"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	Metrics           []Metric     `json:"metrics"`
	TimeRange         TimeRange    `json:"time_range"`
	ComparisonIntent  bool         `json:"comparison_intent"`
	NeedsExternalData bool         `json:"needs_external_data"`
	Confidence        float64      `json:"confidence"`

	// Personal-info sub-protocol fields, set only when Intent == IntentPersonalInfo.
	PersonalInfoSharing bool   `json:"personal_info_sharing,omitempty"`
	PersonalInfoName    string `json:"personal_info_name,omitempty"`
	PersonalInfoLocation string `json:"personal_info_location,omitempty"`
}

// ExecutionPlan is an ordered list of ToolCalls the Orchestrator will run in
// dependency-respecting batches.
type ExecutionPlan struct {
	Calls []ToolCall `json:"calls"`
}

// CircuitBreakerState tracks the health of a single named tool.
type CircuitBreakerState struct {
	ToolName        string    `json:"tool_name"`
	Failures        int       `json:"failures"`
	LastFailure     time.Time `json:"last_failure"`
	Open            bool      `json:"open"`
	OpenedAt        time.Time `json:"opened_at"`
}

// IsAvailable reports whether calls to this tool should be attempted,
// closing the breaker automatically once the cooldown has elapsed.
func (s *CircuitBreakerState) IsAvailable(threshold int, cooldown time.Duration) bool {
	if !s.Open {
		return true
	}
	return time.Since(s.OpenedAt) >= cooldown
}

// CacheEntry is a namespaced cache record.
type CacheEntry struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// Age returns how long ago the entry was created.
func (e *CacheEntry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// Fresh reports whether the entry is still within its effective TTL.
func (e *CacheEntry) Fresh() bool {
	return e.Age() <= e.TTL
}

// OrchestrationResult is the outcome of one Orchestrator run.
type OrchestrationResult struct {
	Success          bool                      `json:"success"`
	Results          map[string]ToolResult     `json:"results"`
	Errors           map[string]string         `json:"errors,omitempty"`
	Duration         time.Duration             `json:"duration"`
	ContextInjection string                    `json:"-"`
	ToolsUsed        []string                  `json:"tools_used"`
}
