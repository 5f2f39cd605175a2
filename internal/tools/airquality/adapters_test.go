package airquality

import (
	"testing"

	"github.com/aqagent/aqagent/internal/tools/websearch"
)

func TestSearchWebAdapter_NameMatchesSpec(t *testing.T) {
	tool := NewSearchWebTool(&websearch.Config{DefaultBackend: websearch.BackendDuckDuckGo})
	if tool.Name() != "search_web" {
		t.Fatalf("expected spec name search_web, got %q", tool.Name())
	}
	if tool.Description() == "" {
		t.Fatalf("expected a non-empty description delegated from the embedded tool")
	}
}

func TestScrapeWebsiteAdapter_NameMatchesSpec(t *testing.T) {
	tool := NewScrapeWebsiteTool(&websearch.FetchConfig{MaxChars: 4000})
	if tool.Name() != "scrape_website" {
		t.Fatalf("expected spec name scrape_website, got %q", tool.Name())
	}
}
