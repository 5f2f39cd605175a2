package cache

import (
	"strings"
	"time"

	"github.com/aqagent/aqagent/pkg/models"
)

// FreshnessPolicy computes the effective cache TTL for a classified query,
// per spec §4.1's table, halving it during local peak-pollution hours.
type FreshnessPolicy struct {
	// Now lets tests pin the clock; defaults to time.Now when nil.
	Now func() time.Time
}

// NewFreshnessPolicy returns a policy using the real clock.
func NewFreshnessPolicy() *FreshnessPolicy {
	return &FreshnessPolicy{Now: time.Now}
}

func (p *FreshnessPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// peakHours are local hours where pollution tends to spike: the morning
// and evening commute windows plus the post-midnight lull, per spec §4.1.
func isPeakHour(hour int) bool {
	switch {
	case hour >= 6 && hour <= 8:
		return true
	case hour >= 17 && hour <= 23:
		return true
	case hour == 0 || hour == 1:
		return true
	default:
		return false
	}
}

// EffectiveTTL computes the TTL for a cache entry given the classified
// intent/time-range and the raw query text (for the explicit
// "current/now/today/latest" override and the 5-minute identical-query
// floor).
func (p *FreshnessPolicy) EffectiveTTL(result models.ClassificationResult, rawQuery string) time.Duration {
	if result.Intent == models.IntentPersonalInfo {
		return 0 // personal-info queries bypass cache entirely
	}

	var ttl time.Duration
	switch {
	case result.TimeRange == models.TimeRangeForecast:
		ttl = 60 * time.Minute
	case explicitlyCurrent(rawQuery):
		ttl = 30 * time.Minute
	case isAirQualityIntent(result.Intent):
		ttl = 60 * time.Minute
	default:
		ttl = 240 * time.Minute
	}

	if isAirQualityIntent(result.Intent) || result.TimeRange == models.TimeRangeForecast {
		if isPeakHour(p.now().Hour()) {
			ttl /= 2
		}
	}

	if ttl < 5*time.Minute {
		ttl = 5 * time.Minute // identical-query-within-5-minutes guarantee floor
	}

	return ttl
}

func isAirQualityIntent(intent models.Intent) bool {
	switch intent {
	case models.IntentAirQualityData, models.IntentForecast, models.IntentComparison, models.IntentTrendAnalysis:
		return true
	default:
		return false
	}
}

var explicitCurrentKeywords = []string{"current", "now", "today", "latest"}

func explicitlyCurrent(rawQuery string) bool {
	lower := strings.ToLower(rawQuery)
	for _, kw := range explicitCurrentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
