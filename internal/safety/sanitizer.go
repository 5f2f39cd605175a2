// Package safety implements the input/output safety layer: input
// sanitization, prompt-injection detection with query extraction, and
// outbound response filtering (credential/reasoning/code-leak removal).
//
// Style grounded on the teacher's internal/exec/safety.go (compiled
// pattern tables + typed sentinel errors); pattern content grounded on
// original_source/shared/security/input_sanitizer.py and
// original_source/shared/utils/security.py.
package safety

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrCriticalThreat is returned when input matches a CRITICAL pattern —
// a direct, multi-stage server attack rather than an LLM-directed
// manipulation attempt. Unlike prompt-injection, this is never silently
// rewritten; the caller must reject the request.
var ErrCriticalThreat = errors.New("safety: critical security threat detected")

const (
	softSizeLimit = 50_000  // soft truncation, matches input_sanitizer.py
	hardSizeLimit = 500_000 // hard cap, matches shared/utils/security.py
)

// criticalPatterns are only multi-stage attacks that could execute
// immediately against a server. Kept deliberately minimal — everything
// else is sanitized, not blocked.
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is);\s*DROP\s+TABLE.*;\s*DELETE`),
	regexp.MustCompile(`(?is)(&&|\|\|)\s*rm\s+-rf\s+/\S*\s*(&&|\|\|)`),
	regexp.MustCompile(`(?is)eval\s*\(\s*__import__\s*\(['"]os['"]\)\s*\.\s*system`),
}

// sanitizePatterns are removed from input silently; the request always
// proceeds.
var sanitizePatterns = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile("(?is)`(whoami|rm\\s+-rf|curl.*\\|.*bash)`"), ""},
	{regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`), ""},
	{regexp.MustCompile(`(?i)javascript:\s*void\s*\(`), ""},
}

// Sanitizer normalizes, truncates, and screens raw user input before it
// reaches the Query Analyzer or the LLM.
type Sanitizer struct{}

// NewSanitizer returns a ready-to-use Sanitizer. It holds no state; the
// pattern tables are package-level.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize normalizes and cleans raw text. It never rejects input except
// for the narrow CRITICAL pattern set, in which case it returns
// ErrCriticalThreat and an empty string.
func (s *Sanitizer) Sanitize(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	if len(text) > hardSizeLimit {
		text = text[:hardSizeLimit]
	}

	text = norm.NFC.String(text)
	text = stripControlAndUnpairedSurrogates(text)

	for _, p := range criticalPatterns {
		if p.MatchString(text) {
			return "", ErrCriticalThreat
		}
	}

	for _, sp := range sanitizePatterns {
		text = sp.pattern.ReplaceAllString(text, sp.replacement)
	}

	if len(text) > softSizeLimit {
		text = text[:softSizeLimit] + "... [TRUNCATED]"
	}

	text = collapseWhitespace(text)
	return strings.TrimSpace(text), nil
}

// stripControlAndUnpairedSurrogates removes control characters (keeping
// newline, carriage return, tab) and any unpaired UTF-16 surrogate code
// points that survived decoding as replacement runes.
func stripControlAndUnpairedSurrogates(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 0xD800 && r <= 0xDFFF {
			continue // unpaired surrogate
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	multiSpace  = regexp.MustCompile(` {2,}`)
	multiBlank  = regexp.MustCompile(`\n{3,}`)
)

func collapseWhitespace(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiBlank.ReplaceAllString(text, "\n\n")
	return text
}
