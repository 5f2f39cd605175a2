package health

import "testing"

func TestCheckHealth_EmptyIsHealthy(t *testing.T) {
	m := NewMonitor()
	status, _ := m.CheckHealth(false)
	if status != StatusHealthy {
		t.Fatalf("expected healthy with no components, got %s", status)
	}
}

func TestCheckHealth_DegradedComponentDegradesOverall(t *testing.T) {
	m := NewMonitor()
	m.SetComponentStatus("cache", StatusHealthy, "")
	m.SetComponentStatus("tool_registry", StatusDegraded, "slow responses")

	status, _ := m.CheckHealth(false)
	if status != StatusDegraded {
		t.Fatalf("expected degraded overall, got %s", status)
	}
}

func TestCheckHealth_CriticalComponentDownForcesUnhealthy(t *testing.T) {
	m := NewMonitor()
	m.SetComponentStatus("llm_provider", StatusUnhealthy, "provider unreachable")
	m.SetComponentStatus("cache", StatusHealthy, "")

	status, _ := m.CheckHealth(false)
	if status != StatusUnhealthy {
		t.Fatalf("expected unhealthy when a critical component is down, got %s", status)
	}
}

func TestCheckHealth_MajorityUnhealthyForcesUnhealthy(t *testing.T) {
	m := NewMonitor()
	m.SetComponentStatus("tool_a", StatusUnhealthy, "")
	m.SetComponentStatus("tool_b", StatusUnhealthy, "")
	m.SetComponentStatus("tool_c", StatusHealthy, "")

	status, _ := m.CheckHealth(false)
	if status != StatusUnhealthy {
		t.Fatalf("expected unhealthy when majority of components are unhealthy, got %s", status)
	}
}

func TestCheckHealth_DetailedIncludesBreakdown(t *testing.T) {
	m := NewMonitor()
	m.SetComponentStatus("cache", StatusHealthy, "ok")

	_, breakdown := m.CheckHealth(true)
	if len(breakdown) != 1 || breakdown[0].Name != "cache" {
		t.Fatalf("expected one cache entry in breakdown, got %+v", breakdown)
	}
}

func TestRecordError_DegradesComponent(t *testing.T) {
	m := NewMonitor()
	m.RecordError("session_store")

	_, breakdown := m.CheckHealth(true)
	if len(breakdown) != 1 || breakdown[0].Status != StatusDegraded || breakdown[0].Errors != 1 {
		t.Fatalf("expected session_store degraded with 1 error, got %+v", breakdown)
	}
}

func TestRecordResponseTime_ComputesLatencyStats(t *testing.T) {
	m := NewMonitor()
	for _, ms := range []float64{10, 20, 30, 40, 50} {
		m.RecordResponseTime("/chat", ms)
	}

	metrics := m.Metrics()
	if len(metrics) != 1 {
		t.Fatalf("expected one endpoint, got %d", len(metrics))
	}
	stats := metrics[0].Latency
	if stats.Count != 5 {
		t.Fatalf("expected 5 samples, got %d", stats.Count)
	}
	if stats.MinMs != 10 || stats.MaxMs != 50 {
		t.Fatalf("expected min/max 10/50, got %f/%f", stats.MinMs, stats.MaxMs)
	}
	if stats.AvgMs != 30 {
		t.Fatalf("expected avg 30, got %f", stats.AvgMs)
	}
}

func TestRecordResponseTime_RingBufferEvictsOldest(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < sampleWindow+10; i++ {
		m.RecordResponseTime("/chat", float64(i))
	}

	metrics := m.Metrics()
	stats := metrics[0].Latency
	if stats.Count != sampleWindow {
		t.Fatalf("expected ring buffer capped at %d samples, got %d", sampleWindow, stats.Count)
	}
	if stats.MinMs != 10 {
		t.Fatalf("expected oldest 10 samples evicted (min=10), got min=%f", stats.MinMs)
	}
}
