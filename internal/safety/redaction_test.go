package safety

import (
	"strings"
	"testing"
)

func TestRedactOutbound_RemovesToolNames(t *testing.T) {
	out := RedactOutbound("I used get_city_air_quality to fetch this reading.")
	if strings.Contains(out, "get_city_air_quality") {
		t.Fatalf("expected tool name removed, got %q", out)
	}
}

func TestRedactOutbound_MapsSourceNameToFriendlyName(t *testing.T) {
	out := RedactOutbound("Data retrieved from get_african_city_air_quality directly.")
	if !strings.Contains(out, "AirQo") {
		t.Fatalf("expected friendly source name AirQo, got %q", out)
	}
}

func TestRedactOutbound_RedactsAPIKey(t *testing.T) {
	out := RedactOutbound("api_key=sk-ant-REDACTED")
	if strings.Contains(out, "sk-ant-") {
		t.Fatalf("expected API key redacted, got %q", out)
	}
}

func TestRedactOutbound_LeavesPlainAnswerIntact(t *testing.T) {
	out := RedactOutbound("The air quality in Kigali is good today.")
	if out != "The air quality in Kigali is good today." {
		t.Fatalf("expected plain answer untouched, got %q", out)
	}
}
