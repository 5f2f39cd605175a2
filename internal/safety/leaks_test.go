package safety

import "testing"

func TestHasReasoningLeak_Detected(t *testing.T) {
	if !HasReasoningLeak("The user wants to know the air quality in Lagos, so I should provide a response.") {
		t.Fatal("expected reasoning leak detected")
	}
}

func TestHasReasoningLeak_LegitimateAnswerNotFlagged(t *testing.T) {
	if HasReasoningLeak("The air quality in Lagos is currently moderate, with an AQI of 85.") {
		t.Fatal("expected legitimate answer to not be flagged")
	}
}

func TestHasCodeLeak_PythonFence(t *testing.T) {
	if !HasCodeLeak("Here's the data:\n```python\nprint('hi')\n```") {
		t.Fatal("expected python fence to be detected as code leak")
	}
}

func TestHasCodeLeak_AssignmentPattern(t *testing.T) {
	if !HasCodeLeak("latitude = 0.347596\nlongitude = 32.582520") {
		t.Fatal("expected coordinate assignment to be detected as code leak")
	}
}

func TestHasCodeLeak_LegitimateUnitsDiscussionNotFlagged(t *testing.T) {
	if HasCodeLeak("PM2.5 is measured in micrograms per cubic meter (µg/m³).") {
		t.Fatal("expected legitimate technical discussion to not be flagged")
	}
}

func TestFilterOutbound_ReplacesReasoningLeak(t *testing.T) {
	cleaned, flagged := FilterOutbound("Let me think about what the user wants here before responding.")
	if !flagged {
		t.Fatal("expected flagged=true")
	}
	if cleaned != reasoningLeakMenu {
		t.Fatal("expected fixed menu response")
	}
}

func TestFilterOutbound_RedactsCredentialsOnCleanResponse(t *testing.T) {
	cleaned, flagged := FilterOutbound("Your api_key=abcdefghijklmnopqrstuvwx was used to fetch this.")
	if flagged {
		t.Fatal("expected flagged=false for a non-leak response")
	}
	if cleaned == "" {
		t.Fatal("expected non-empty cleaned response")
	}
}
