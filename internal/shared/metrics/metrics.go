package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	agentRunsStarted   = newCounterVec()
	agentRunsCompleted = newCounterVec()
	agentRunsFailed    = newCounterVec()
	usageDenied        = newCounterVec()
	extractionMisses   atomic.Uint64

	agentRunDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncAgentRunStarted counts a run accepted for the given agent.
func IncAgentRunStarted(agentID string) {
	agentRunsStarted.Inc(agentID)
}

// IncAgentRunCompleted counts a run that produced a result.
func IncAgentRunCompleted(agentID string) {
	agentRunsCompleted.Inc(agentID)
}

// IncAgentRunFailed counts a run that ended in an error.
func IncAgentRunFailed(agentID string) {
	agentRunsFailed.Inc(agentID)
}

// IncUsageDenied counts a request refused by the usage meter.
func IncUsageDenied(agentID string) {
	usageDenied.Inc(agentID)
}

// AddExtractionMisses counts criteria the extractor could not find.
func AddExtractionMisses(n int) {
	if n > 0 {
		extractionMisses.Add(uint64(n))
	}
}

// ObserveAgentRunDurationMs records a run duration in milliseconds.
func ObserveAgentRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	agentRunDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "agent_runs_started_total", "Total agent runs started", agentRunsStarted.Snapshot())
	writeCounterVec(&buf, "agent_runs_completed_total", "Total agent runs completed", agentRunsCompleted.Snapshot())
	writeCounterVec(&buf, "agent_runs_failed_total", "Total agent runs failed", agentRunsFailed.Snapshot())
	writeCounterVec(&buf, "usage_denied_total", "Total requests denied by the usage meter", usageDenied.Snapshot())
	writeCounter(&buf, "extraction_misses_total", "Total criteria not found in model output", extractionMisses.Load())
	writeHistogram(&buf, "agent_run_duration_ms", "Agent run duration in milliseconds", agentRunDuration.Snapshot())
	return buf.String()
}

// counterVec is a counter keyed by agent id.
type counterVec struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: map[string]uint64{}}
}

func (c *counterVec) Inc(agentID string) {
	if agentID == "" {
		agentID = "unknown"
	}
	c.mu.Lock()
	c.values[agentID]++
	c.mu.Unlock()
}

func (c *counterVec) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{agent_id=%q} %d\n", name, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
