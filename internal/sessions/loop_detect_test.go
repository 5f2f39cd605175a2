package sessions

import (
	"testing"

	"github.com/aqagent/aqagent/pkg/models"
)

func TestDetectLoop_ExactRepetition(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: "The AQI in Accra is 85."},
		{Role: models.RoleUser, Content: "what about tomorrow"},
		{Role: models.RoleAssistant, Content: "The AQI in Accra is 85."},
	}
	if !DetectLoop(turns) {
		t.Error("expected loop to be detected for exact repetition")
	}
}

func TestDetectLoop_JaccardSimilar(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: "The current AQI in Lagos is 92 which is unhealthy for sensitive groups"},
		{Role: models.RoleAssistant, Content: "The current AQI in Lagos is 92, unhealthy for sensitive groups today"},
	}
	if !DetectLoop(turns) {
		t.Error("expected loop to be detected for near-duplicate content")
	}
}

func TestDetectLoop_ToolSignatureRepetition(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: "one", ToolsUsed: []string{"get_city_air_quality"}},
		{Role: models.RoleAssistant, Content: "two", ToolsUsed: []string{"get_city_air_quality"}},
		{Role: models.RoleAssistant, Content: "three", ToolsUsed: []string{"get_city_air_quality"}},
	}
	if !DetectLoop(turns) {
		t.Error("expected loop to be detected for repeated tool signature")
	}
}

func TestDetectLoop_NoLoop(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: "The AQI in Nairobi is 40.", ToolsUsed: []string{"get_african_city_air_quality"}},
		{Role: models.RoleAssistant, Content: "Tomorrow's forecast calls for rain and improved air quality.", ToolsUsed: []string{"get_air_quality_forecast"}},
	}
	if DetectLoop(turns) {
		t.Error("did not expect a loop for genuinely distinct turns")
	}
}

func TestDetectLoop_TooFewTurns(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: "hi"},
	}
	if DetectLoop(turns) {
		t.Error("a single assistant turn can never be a loop")
	}
}
