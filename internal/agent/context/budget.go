package context

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aqagent/aqagent/pkg/models"
)

// ModelLimits holds known context-window sizes per model name, per spec
// §4.7. Unknown models fall back to DefaultModelLimit.
var ModelLimits = map[string]int{
	"claude-3-haiku":       200_000,
	"claude-3-sonnet":      200_000,
	"claude-3-5-sonnet":    200_000,
	"claude-3-opus":        200_000,
	"gpt-4o":               128_000,
	"gpt-4o-mini":          128_000,
	"gpt-4-turbo":          128_000,
	"gpt-3.5-turbo":        16_384,
	"gpt-3.5-turbo-16k":    16_384,
	"amazon.titan-text":    32_000,
	"anthropic.claude-v2":  100_000,
}

// DefaultModelLimit is used for any model name not present in
// ModelLimits.
const DefaultModelLimit = 8192

const (
	systemPreambleReserve = 1000
	modelOutputReserve    = 2048
	safetyBufferReserve   = 500
)

// recencyWindowPairs is the number of most-recent user/assistant pairs
// always retained regardless of score, per spec §4.7 step 1.
const recencyWindowPairs = 3

// charsPerToken is the heuristic used when no model-specific tokenizer
// is available (1 token ≈ 4 bytes), per spec §4.7.
const charsPerToken = 4

// Budgeter counts tokens (heuristically) and truncates conversation
// history to fit a model's context window, selecting which older
// messages survive by importance score. Grounded structurally on this
// package's existing Packer (recency-window + char-budget style) but
// implements the scored-importance truncation spec.md's Packer does
// not: spec §4.7.
type Budgeter struct{}

// NewBudgeter returns a ready-to-use Budgeter. It holds no state.
func NewBudgeter() *Budgeter {
	return &Budgeter{}
}

// CountTokens estimates the token count of a string using the 1
// token ≈ 4 bytes heuristic.
func (b *Budgeter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// CountMessages estimates the total token count across a history,
// including tool call/result payloads.
func (b *Budgeter) CountMessages(history []*models.Message) int {
	total := 0
	for _, m := range history {
		total += b.messageTokens(m)
	}
	return total
}

func (b *Budgeter) messageTokens(m *models.Message) int {
	if m == nil {
		return 0
	}
	chars := len(m.Content)
	for _, tc := range m.ToolCalls {
		chars += len(tc.Name) + len(tc.Input)
	}
	for _, tr := range m.ToolResults {
		chars += len(tr.Content)
	}
	return (chars + charsPerToken - 1) / charsPerToken
}

// HistoryBudget returns the token budget available for conversation
// history for a given model name: limit minus the system preamble,
// model output, and safety-buffer reserves.
func HistoryBudget(modelName string) int {
	limit, ok := ModelLimits[modelName]
	if !ok {
		limit = DefaultModelLimit
	}
	budget := limit - systemPreambleReserve - modelOutputReserve - safetyBufferReserve
	if budget < 0 {
		budget = 0
	}
	return budget
}

// OptimizeMetadata reports what Optimize did, for logging/diagnostics.
type OptimizeMetadata struct {
	OriginalCount  int
	FinalCount     int
	OriginalTokens int
	FinalTokens    int
	Truncated      bool
}

// Optimize truncates history to fit within maxTokens (or the model's
// computed history budget if maxTokens is 0), implementing spec §4.7's
// three-stage strategy: recency window, overflow emergency truncation,
// then importance-scored greedy knapsack fill restored to chronological
// order.
func (b *Budgeter) Optimize(history []*models.Message, modelName string, maxTokens int) ([]*models.Message, OptimizeMetadata) {
	if maxTokens <= 0 {
		maxTokens = HistoryBudget(modelName)
	}

	meta := OptimizeMetadata{
		OriginalCount:  len(history),
		OriginalTokens: b.CountMessages(history),
	}

	if meta.OriginalTokens <= maxTokens {
		meta.FinalCount = len(history)
		meta.FinalTokens = meta.OriginalTokens
		return history, meta
	}
	meta.Truncated = true

	recent := recencyWindow(history, recencyWindowPairs)
	recentTokens := b.CountMessages(recent)

	if recentTokens > maxTokens {
		kept, keptTokens := b.fitMostRecent(recent, maxTokens)
		if len(kept) == 0 && len(recent) > 0 {
			kept = []*models.Message{b.emergencyTruncateLast(recent[len(recent)-1], maxTokens)}
			keptTokens = b.messageTokens(kept[0])
		}
		meta.FinalCount = len(kept)
		meta.FinalTokens = keptTokens
		return kept, meta
	}

	older := olderThan(history, recent)
	remaining := maxTokens - recentTokens
	filled := b.fillByImportance(older, remaining)

	final := append(append([]*models.Message{}, filled...), recent...)
	meta.FinalCount = len(final)
	meta.FinalTokens = b.CountMessages(final)
	return final, meta
}

// ValidateInputSize reports whether text fits within max characters.
func (b *Budgeter) ValidateInputSize(text string, max int) bool {
	return len(text) <= max
}

// recencyWindow returns the last pairs*2 messages (approximating
// "last N user/assistant pairs").
func recencyWindow(history []*models.Message, pairs int) []*models.Message {
	n := pairs * 2
	if n >= len(history) {
		return append([]*models.Message{}, history...)
	}
	return append([]*models.Message{}, history[len(history)-n:]...)
}

func olderThan(history, recent []*models.Message) []*models.Message {
	if len(recent) >= len(history) {
		return nil
	}
	return append([]*models.Message{}, history[:len(history)-len(recent)]...)
}

// fitMostRecent greedily keeps the most recent messages (from the end
// backwards) that fit within budget.
func (b *Budgeter) fitMostRecent(messages []*models.Message, budget int) ([]*models.Message, int) {
	var keptReverse []*models.Message
	total := 0
	for i := len(messages) - 1; i >= 0; i-- {
		t := b.messageTokens(messages[i])
		if total+t > budget {
			break
		}
		keptReverse = append(keptReverse, messages[i])
		total += t
	}
	kept := make([]*models.Message, len(keptReverse))
	for i, m := range keptReverse {
		kept[len(keptReverse)-1-i] = m
	}
	return kept, total
}

// emergencyTruncateLast truncates a message's content to approximately
// budget*4 characters with a truncation marker, per spec §4.7 step 2.
func (b *Budgeter) emergencyTruncateLast(m *models.Message, budget int) *models.Message {
	maxChars := budget * charsPerToken
	if maxChars < 0 {
		maxChars = 0
	}
	if len(m.Content) <= maxChars {
		return m
	}
	copied := *m
	if maxChars > 0 && maxChars <= len(m.Content) {
		copied.Content = m.Content[:maxChars] + " [truncated]"
	} else {
		copied.Content = "[truncated]"
	}
	return &copied
}

type scoredMessage struct {
	msg   *models.Message
	index int
	score float64
}

// fillByImportance selects older messages by descending importance
// score via greedy knapsack, then restores chronological order, per
// spec §4.7 step 3-4.
func (b *Budgeter) fillByImportance(older []*models.Message, budget int) []*models.Message {
	if budget <= 0 || len(older) == 0 {
		return nil
	}

	scored := make([]scoredMessage, len(older))
	for i, m := range older {
		scored[i] = scoredMessage{msg: m, index: i, score: ImportanceScore(m, i == 0)}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	var kept []scoredMessage
	used := 0
	for _, sm := range scored {
		t := b.messageTokens(sm.msg)
		if used+t > budget {
			continue
		}
		kept = append(kept, sm)
		used += t
	}

	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].index < kept[b].index
	})

	result := make([]*models.Message, len(kept))
	for i, sm := range kept {
		result[i] = sm.msg
	}
	return result
}

var (
	personalizationPattern  = regexp.MustCompile(`(?i)\b(my name is|i live in|i'm from|i am from)\b`)
	quantitativeDataPattern = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(µg/m³|pm2\.5|pm10|aqi|ppm)`)
	citationPattern         = regexp.MustCompile(`(?i)\b(according to|source:)\b`)
	smallTalkPhrases        = []string{"hello", "hi", "hey", "thanks", "thank you", "ok", "okay", "bye", "goodbye"}
)

// ImportanceScore computes the retention priority of a history message
// per spec §4.7 step 3's weighted heuristic.
func ImportanceScore(m *models.Message, isFirst bool) float64 {
	if m == nil {
		return 0
	}

	var score float64
	if isFirst {
		score += 2
	}
	if m.Role == models.RoleUser {
		score += 1
	}
	if personalizationPattern.MatchString(m.Content) {
		score += 3
	}
	if quantitativeDataPattern.MatchString(m.Content) {
		score += 2
	}
	if citationPattern.MatchString(m.Content) {
		score += 1.5
	}
	if strings.Contains(m.Content, "?") {
		score += 1
	}
	if len(m.Content) < 50 {
		score -= 1
	}
	if isSmallTalk(m.Content) {
		score -= 2
	}
	return score
}

func isSmallTalk(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	trimmed = strings.Trim(trimmed, ".!?")
	for _, phrase := range smallTalkPhrases {
		if trimmed == phrase {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer for OptimizeMetadata, useful for log
// lines.
func (m OptimizeMetadata) String() string {
	return fmt.Sprintf(
		"original_count=%d final_count=%d original_tokens=%d final_tokens=%d truncated=%t",
		m.OriginalCount, m.FinalCount, m.OriginalTokens, m.FinalTokens, m.Truncated,
	)
}
