package agents

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"hub-backend/internal/analyses"
	"hub-backend/internal/extract"
	"hub-backend/internal/llm"
	"hub-backend/internal/shared/metrics"
	"hub-backend/internal/shared/server/middleware"
	"hub-backend/internal/shared/telemetry"
	"hub-backend/internal/usage"
)

// UsageGate is the part of the usage meter a run needs.
type UsageGate interface {
	Check(ctx context.Context, userID, agentID string) (usage.Decision, error)
	TryConsume(ctx context.Context, userID, agentID string) (usage.Decision, error)
}

// HistoryRecorder stores completed runs.
type HistoryRecorder interface {
	Create(ctx context.Context, analysis analyses.Analysis) error
}

// Models maps model roles to configured model names. Empty names fall back
// to the provider default.
type Models struct {
	Default string
	Vision  string
	Preview string
}

func (m Models) forRole(role ModelRole) string {
	switch role {
	case RoleVision:
		if m.Vision != "" {
			return m.Vision
		}
	case RolePreview:
		if m.Preview != "" {
			return m.Preview
		}
	}
	return m.Default
}

// Service runs agents: check quota, call the model, extract, then consume.
type Service struct {
	Catalog *Catalog
	Usage   UsageGate
	LLM     llm.Completer
	History HistoryRecorder
	Models  Models
	Now     func() time.Time
}

// NewService constructs a Service over the default catalog.
func NewService(gate UsageGate, completer llm.Completer, history HistoryRecorder, models Models) *Service {
	return &Service{
		Catalog: DefaultCatalog(),
		Usage:   gate,
		LLM:     completer,
		History: history,
		Models:  models,
		Now:     time.Now,
	}
}

// RunRequest is one agent invocation.
type RunRequest struct {
	UserID  string
	AgentID string
	Preview bool
	Input   Input
}

// RunResult is a completed run. On ErrLimitReached only Usage is set.
type RunResult struct {
	AnalysisID string         `json:"analysisId"`
	AgentID    string         `json:"agentId"`
	Preview    bool           `json:"preview"`
	Result     extract.Result `json:"result"`
	Usage      usage.Decision `json:"usage"`
}

// Run executes one agent call. Quota is consumed only after the model
// answered and its reply was extracted. Preview runs are checked against the
// quota but never consume it.
func (s *Service) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	agent, err := s.Catalog.Get(req.AgentID)
	if err != nil {
		return RunResult{}, err
	}
	if err := req.Input.Validate(agent.ID); err != nil {
		return RunResult{}, err
	}
	preview := req.Preview && agent.SupportsPreview

	start := s.clock()
	metrics.IncAgentRunStarted(agent.ID)
	out, err := s.run(ctx, agent, req.UserID, preview, req.Input)
	elapsed := s.clock().Sub(start)
	fields := map[string]any{
		"request_id":  middleware.RequestIDFrom(ctx),
		"user_id":     req.UserID,
		"agent_id":    agent.ID,
		"preview":     preview,
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		metrics.IncAgentRunFailed(agent.ID)
		fields["error"] = err.Error()
		if errors.Is(err, usage.ErrLimitReached) {
			telemetry.Info("agent.run_denied", fields)
		} else {
			telemetry.Warn("agent.run_failed", fields)
		}
		return out, err
	}

	metrics.IncAgentRunCompleted(agent.ID)
	metrics.ObserveAgentRunDurationMs(float64(elapsed.Milliseconds()))
	fields["analysis_id"] = out.AnalysisID
	fields["remaining"] = out.Usage.Remaining
	telemetry.Info("agent.run_completed", fields)
	return out, nil
}

func (s *Service) run(ctx context.Context, agent Agent, userID string, preview bool, in Input) (RunResult, error) {
	decision, err := s.Usage.Check(ctx, userID, agent.ID)
	if err != nil {
		return RunResult{}, err
	}
	if !decision.Allowed {
		return RunResult{Usage: decision}, usage.ErrLimitReached
	}

	p := agent.plan(preview)
	llmReq := p.build(agent.Criteria, in)
	llmReq.Model = s.Models.forRole(p.role)

	raw, err := s.LLM.Complete(ctx, llmReq)
	if err != nil {
		return RunResult{}, err
	}

	result, err := agent.Extract(raw, preview, in)
	if err != nil {
		return RunResult{}, err
	}

	if !preview {
		decision, err = s.Usage.TryConsume(ctx, userID, agent.ID)
		if err != nil {
			return RunResult{}, err
		}
		if !decision.Allowed {
			return RunResult{Usage: decision}, usage.ErrLimitReached
		}
	}

	out := RunResult{
		AnalysisID: uuid.NewString(),
		AgentID:    agent.ID,
		Preview:    preview,
		Result:     result,
		Usage:      decision,
	}
	s.record(ctx, userID, out)
	return out, nil
}

// record stores the run in history. Failures are logged, not returned.
func (s *Service) record(ctx context.Context, userID string, out RunResult) {
	if s.History == nil {
		return
	}
	payload, err := json.Marshal(out.Result)
	if err != nil {
		telemetry.Error("agent.history_encode_failed", map[string]any{
			"analysis_id": out.AnalysisID,
			"error":       err.Error(),
		})
		return
	}
	err = s.History.Create(ctx, analyses.Analysis{
		ID:        out.AnalysisID,
		UserID:    userID,
		AgentID:   out.AgentID,
		Status:    analyses.StatusCompleted,
		RawText:   out.Result.RawText,
		Result:    payload,
		CreatedAt: s.clock(),
	})
	if err != nil {
		telemetry.Error("agent.history_failed", map[string]any{
			"analysis_id": out.AnalysisID,
			"agent_id":    out.AgentID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) clock() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
