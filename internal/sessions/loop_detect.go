package sessions

import (
	"sort"
	"strings"

	"github.com/aqagent/aqagent/pkg/models"
)

// loopWindow is how many trailing assistant turns are compared for repetition.
const loopWindow = 4

// jaccardRepeatThreshold is the similarity above which two turns are
// considered a near-duplicate for loop-detection purposes.
const jaccardRepeatThreshold = 0.85

// DetectLoop reports whether the most recent assistant turns indicate the
// agent is stuck repeating itself, so the pipeline can break out (e.g. by
// forcing a direct answer instead of another tool round). It is a pure
// function over turn history so it can be unit-tested without a store.
func DetectLoop(turns []models.Turn) bool {
	assistantTurns := make([]models.Turn, 0, loopWindow)
	for i := len(turns) - 1; i >= 0 && len(assistantTurns) < loopWindow; i-- {
		if turns[i].Role == models.RoleAssistant {
			assistantTurns = append(assistantTurns, turns[i])
		}
	}
	if len(assistantTurns) < 2 {
		return false
	}

	if exactRepetition(assistantTurns) {
		return true
	}
	if jaccardRepetition(assistantTurns) {
		return true
	}
	return toolSignatureRepetition(assistantTurns)
}

func exactRepetition(turns []models.Turn) bool {
	for i := 1; i < len(turns); i++ {
		if strings.TrimSpace(turns[i].Content) == strings.TrimSpace(turns[0].Content) {
			return true
		}
	}
	return false
}

func jaccardRepetition(turns []models.Turn) bool {
	first := wordSet(turns[0].Content)
	if len(first) == 0 {
		return false
	}
	for i := 1; i < len(turns); i++ {
		other := wordSet(turns[i].Content)
		if len(other) == 0 {
			continue
		}
		if jaccard(first, other) >= jaccardRepeatThreshold {
			return true
		}
	}
	return false
}

// toolSignatureRepetition catches a different failure mode: the text varies
// but the agent keeps invoking the exact same tool set turn after turn,
// which usually means it's stuck re-fetching data it already has.
func toolSignatureRepetition(turns []models.Turn) bool {
	if len(turns) < 3 {
		return false
	}
	sig := toolSignature(turns[0].ToolsUsed)
	if sig == "" {
		return false
	}
	for i := 1; i < len(turns); i++ {
		if toolSignature(turns[i].ToolsUsed) != sig {
			return false
		}
	}
	return true
}

func toolSignature(tools []string) string {
	if len(tools) == 0 {
		return ""
	}
	sorted := append([]string{}, tools...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
