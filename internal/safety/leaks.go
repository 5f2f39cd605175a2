package safety

import (
	"regexp"
	"strings"
)

// reasoningLeakPrefixes are chain-of-thought tells: phrases a model
// emits when it accidentally narrates its own reasoning into the
// user-facing channel instead of answering. Checked only against the
// first 200 characters, case-folded, per spec §4.2.
var reasoningLeakPrefixes = []string{
	"the user wants",
	"i should respond",
	"let me think",
	"we need to first",
	"i need to first",
	"the user is asking",
	"my task is to",
	"first, i will",
	"okay, so the user",
}

const reasoningLeakScanWindow = 200

// reasoningLeakMenu is the fixed, helpful response substituted whenever
// a reasoning leak is detected.
const reasoningLeakMenu = `I can help with air quality information. Try asking me:
- "What's the air quality in [city]?"
- "Will it be safe to exercise outside tomorrow in [city]?"
- "Compare air quality between [city A] and [city B]"
- "What's the air quality forecast this week?"`

// HasReasoningLeak reports whether response begins with a known
// chain-of-thought tell.
func HasReasoningLeak(response string) bool {
	window := response
	if len(window) > reasoningLeakScanWindow {
		window = window[:reasoningLeakScanWindow]
	}
	lower := strings.ToLower(window)
	for _, prefix := range reasoningLeakPrefixes {
		if strings.HasPrefix(strings.TrimSpace(lower), prefix) {
			return true
		}
	}
	return false
}

// codeLeakPatterns are tell-tale implementation fences that should never
// appear in a user-facing answer. Narrow and positional by design — they
// must not trigger on legitimate technical discussion of units or
// pollutants (e.g. "PM2.5 is measured in µg/m³").
var codeLeakPatterns = []*regexp.Regexp{
	regexp.MustCompile("```python"),
	regexp.MustCompile("```json"),
	regexp.MustCompile(`(?i)Expected\s+Output:`),
	regexp.MustCompile(`(?m)^\s*(latitude|longitude|lat|lon)\s*=\s*-?\d`),
}

// HasCodeLeak reports whether response contains an implementation-detail
// fence or assignment that should never reach the user.
func HasCodeLeak(response string) bool {
	for _, pattern := range codeLeakPatterns {
		if pattern.MatchString(response) {
			return true
		}
	}
	return false
}

// FilterOutbound applies the full outbound safety pass: reasoning-leak
// and code-leak checks (either of which fully replaces the response),
// then credential/tool-name redaction on whatever remains.
func FilterOutbound(response string) (cleaned string, flagged bool) {
	if HasReasoningLeak(response) {
		return reasoningLeakMenu, true
	}
	if HasCodeLeak(response) {
		return reasoningLeakMenu, true
	}
	return RedactOutbound(response), false
}
