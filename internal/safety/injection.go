package safety

import (
	"regexp"
	"strings"
)

// injectionFamilies groups prompt-injection patterns by category, per
// spec §4.2's three families: command override, role manipulation, and
// credential extraction. Content ported from
// original_source/shared/utils/security.py's PROMPT_INJECTION_PATTERNS
// and original_source/shared/security/input_sanitizer.py's
// BANNED_PATTERNS.
type injectionFamily struct {
	name     string
	patterns []*regexp.Regexp
}

var injectionFamilies = []injectionFamily{
	{
		name: "command_override",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+)?(previous|all|above|prior)\s+(instructions|prompts|rules|directions|context)`),
			regexp.MustCompile(`(?i)\b(override|bypass|disable)\s+(system|security|safety|rules)`),
			regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`),
			regexp.MustCompile(`(?i)\bfrom\s+now\s+on\b`),
			regexp.MustCompile(`(?i)\babove\s+is\s+false\b`),
			regexp.MustCompile(`(?i)\breset\s+(your\s+)?memory\b`),
			regexp.MustCompile(`(?i)\bclear\s+(your\s+)?context\b`),
		},
	},
	{
		name: "role_manipulation",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(you\s+are\s+now|act\s+as|pretend\s+to\s+be|simulate)\s+(a\s+)?(jailbreak|dan|evil|unethical|unrestricted)`),
			regexp.MustCompile(`(?i)system\s*[:=]\s*['"]`),
			regexp.MustCompile(`(?i)\bnew\s+(role|personality|character|mode)\s*[:=]`),
			regexp.MustCompile(`(?i)\b(developer|god|sudo|admin|dan|unrestricted)\s+mode\b`),
			regexp.MustCompile(`(?i)\bjailbreak\b`),
			regexp.MustCompile(`(?i)\broleplay\s+as\b`),
		},
	},
	{
		name: "credential_extraction",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(repeat|show|display|tell\s+me|what\s+are)\s+(your|the)\s+(instructions|system\s+prompt|rules|guidelines)`),
			regexp.MustCompile(`(?i)\b(print|output|echo|reveal)\s+(system|internal|hidden)\s+(prompt|instructions|config)`),
			regexp.MustCompile(`(?i)(what\s+is|show\s+me|tell\s+me)\s+(your|the)\s+(api\s*key|token|secret|password)`),
			regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
			regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),
		},
	},
}

// allowedContext lists legitimate phrases that share vocabulary with the
// injection patterns but are benign in an air-quality assistant's
// domain, reducing false positives (ported from input_sanitizer.py's
// ALLOWED_CONTEXT).
var allowedContext = []string{
	"air quality system",
	"monitoring system",
	"alert system",
	"early warning system",
	"health protection system",
	"how does the monitoring system work",
	"what are the instructions for",
	"explain the system",
	"how to use the system",
}

// airQualitySubQueryPatterns extract a legitimate air-quality question
// from text that also tripped an injection pattern, so the pipeline can
// keep answering the user's real question instead of refusing outright.
var airQualitySubQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(what\s+is\s+the\s+)?(air\s+quality|aqi|pm2\.?5|pollution)(\s+in|\s+for|\s+at)?\s+[a-zA-Z\s,]+`),
	regexp.MustCompile(`(?i)(is\s+it\s+safe|should\s+i)(\s+to)?\s+(go\s+out|exercise|run|bike)(\s+in)?\s*[a-zA-Z\s,]*`),
	regexp.MustCompile(`(?i)(how\s+is|check|get|show)(\s+the)?\s+(air\s+quality|aqi)(\s+in)?\s*[a-zA-Z\s,]*`),
}

const genericAirQualityFallback = "What is the current air quality?"

// InjectionResult reports whether prompt injection was detected and, if
// so, the sanitized query the pipeline should process instead.
type InjectionResult struct {
	Detected       bool
	Family         string
	ExtractedQuery string
}

// DetectInjection scans text against the three injection families. On a
// match it never rejects the request — it extracts the user's
// legitimate air-quality sub-query (or falls back to a generic one) so
// the conversation can continue naturally while the injection attempt is
// logged and discarded.
func DetectInjection(text string) InjectionResult {
	if strings.TrimSpace(text) == "" {
		return InjectionResult{}
	}

	lower := strings.ToLower(text)
	for _, allowed := range allowedContext {
		if strings.Contains(lower, allowed) {
			return InjectionResult{}
		}
	}

	for _, family := range injectionFamilies {
		for _, pattern := range family.patterns {
			if pattern.MatchString(text) {
				return InjectionResult{
					Detected:       true,
					Family:         family.name,
					ExtractedQuery: extractSubQuery(text),
				}
			}
		}
	}

	return InjectionResult{}
}

func extractSubQuery(text string) string {
	for _, pattern := range airQualitySubQueryPatterns {
		if match := pattern.FindString(text); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return genericAirQualityFallback
}
