package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesAgentCounters(t *testing.T) {
	IncAgentRunStarted("heuristics")
	IncAgentRunCompleted("heuristics")
	IncUsageDenied("comparison")
	AddExtractionMisses(2)

	out := Render()
	for _, want := range []string{
		`agent_runs_started_total{agent_id="heuristics"}`,
		`agent_runs_completed_total{agent_id="heuristics"}`,
		`usage_denied_total{agent_id="comparison"}`,
		"# TYPE extraction_misses_total counter",
		"# TYPE agent_run_duration_ms histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected per-bucket counts: %v", snap.counts)
	}
}
