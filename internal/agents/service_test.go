package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"hub-backend/internal/analyses"
	"hub-backend/internal/extract"
	"hub-backend/internal/llm"
	"hub-backend/internal/llm/llmmock"
	"hub-backend/internal/usage"
)

const comparisonReply = `Viabilidade: 8/10 para a ideia A
Viabilidade: 5/10 para a ideia B
Impacto: 7/10 para a ideia A
Impacto: 9/10 para a ideia B

A ideia vencedora é a ideia B. Ela resolve o problema com mais impacto.

## Conclusão`

type fixture struct {
	svc     *Service
	llm     *llmmock.MockCompleter
	meter   *usage.Meter
	history *analyses.MemoryRepo
}

func newFixture(t *testing.T, quota int) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	completer := llmmock.NewMockCompleter(ctrl)

	limits := map[string]int{}
	for _, id := range usage.AgentIDs {
		limits[id] = quota
	}
	tiers, err := usage.NewTierTable([]usage.Tier{{ID: "free", Limits: limits}})
	require.NoError(t, err)
	now := time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC)
	meter, err := usage.NewMeter(usage.NewMemoryStore(), tiers, usage.MeterConfig{Now: func() time.Time { return now }})
	require.NoError(t, err)

	history := analyses.NewMemoryRepo()
	svc := NewService(meter, completer, history, Models{Default: "text-model", Vision: "vision-model", Preview: "preview-model"})
	svc.Now = func() time.Time { return now }
	return fixture{svc: svc, llm: completer, meter: meter, history: history}
}

func comparisonInput() Input {
	return Input{IdeaA: "Chat", IdeaB: "FAQ", Problem: "Suporte lento"}
}

func TestRunComparisonConsumesAfterSuccess(t *testing.T) {
	f := newFixture(t, 3)
	f.llm.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.Equal(t, "text-model", req.Model)
			assert.Equal(t, llm.ModeText, req.Mode)
			assert.Contains(t, req.Prompt, "Ideia A: Chat")
			assert.Contains(t, req.System, "Viabilidade")
			return comparisonReply, nil
		})

	out, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "comparison", Input: comparisonInput()})
	require.NoError(t, err)

	assert.NotEmpty(t, out.AnalysisID)
	assert.Equal(t, extract.WinnerOptionB, out.Result.Winner)
	assert.Equal(t, "Ela resolve o problema com mais impacto.", out.Result.WinnerJustification)
	assert.Equal(t, 8.0, out.Result.Scores["feasibility"].OptionA)
	assert.Equal(t, 5.0, out.Result.Scores["feasibility"].OptionB)
	assert.True(t, out.Usage.Allowed)
	assert.Equal(t, 1, out.Usage.Used)
	assert.Equal(t, 2, out.Usage.Remaining)

	stored, err := f.history.GetByID(context.Background(), out.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "comparison", stored.AgentID)
	assert.Equal(t, comparisonReply, stored.RawText)
	assert.Contains(t, string(stored.Result), `"winner":"optionB"`)
}

func TestRunUpstreamFailureDoesNotConsume(t *testing.T) {
	f := newFixture(t, 3)
	f.llm.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("%w: connection refused", llm.ErrUpstreamUnavailable))

	_, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "comparison", Input: comparisonInput()})
	require.ErrorIs(t, err, llm.ErrUpstreamUnavailable)

	d, err := f.meter.Check(context.Background(), "u1", "comparison")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Used)

	list, err := f.history.ListByUser(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunDeniedBeforeModelCall(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.meter.TryConsume(context.Background(), "u1", "patterns")
	require.NoError(t, err)

	// No EXPECT: any model call fails the test.
	out, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "patterns", Input: Input{Challenge: "Checkout"}})
	require.ErrorIs(t, err, usage.ErrLimitReached)
	assert.False(t, out.Usage.Allowed)
	assert.Equal(t, 0, out.Usage.Remaining)
	assert.Equal(t, 1, out.Usage.Used)
}

func TestRunValidationSkipsModel(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "comparison", Input: Input{IdeaA: "x"}})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []FieldIssue{{Field: "ideaB", Issue: "required"}, {Field: "problem", Issue: "required"}}, verr.Issues)

	_, err = f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "nope"})
	require.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRunMalformedHeuristicsDoesNotConsume(t *testing.T) {
	f := newFixture(t, 3)
	f.llm.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"overallScore": 70, "heuristics": [`, nil)

	_, err := f.svc.Run(context.Background(), RunRequest{
		UserID:  "u1",
		AgentID: "heuristics",
		Input:   Input{Images: []string{"data:image/png;base64,AAAA"}},
	})
	require.ErrorIs(t, err, extract.ErrMalformedModelOutput)

	d, err := f.meter.Check(context.Background(), "u1", "heuristics")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Used)
}

func TestRunHeuristicsUsesVisionModel(t *testing.T) {
	f := newFixture(t, 3)
	images := []string{"data:image/png;base64,AAAA", "https://cdn.example.com/b.png"}
	f.llm.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.Equal(t, "vision-model", req.Model)
			assert.Equal(t, llm.ModeJSON, req.Mode)
			assert.Equal(t, images, req.Images)
			return `{"overallScore": 72, "heuristics": [{"id": "visibility", "score": 6, "issues": [{"description": "Sem loading", "imageIndex": 1, "coordinates": {"x": 50, "y": 120}, "recommendation": "Adicionar spinner"}]}]}`, nil
		})

	out, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "heuristics", Input: Input{Images: images}})
	require.NoError(t, err)
	require.Len(t, out.Result.Heuristics, 1)
	assert.Equal(t, "Visibilidade do Status do Sistema", out.Result.Heuristics[0].Name)
	require.Len(t, out.Result.Issues, 1)
	assert.Equal(t, 100.0, out.Result.Issues[0].Coordinates.Y)
	assert.Equal(t, 1, out.Usage.Used)
}

func TestRunPreviewIsNotMetered(t *testing.T) {
	f := newFixture(t, 3)
	images := []string{"data:image/png;base64,AAAA", "data:image/png;base64,BBBB", "data:image/png;base64,CCCC"}
	f.llm.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.Equal(t, "preview-model", req.Model)
			assert.Equal(t, images[:1], req.Images)
			return `{"analysis": "Boa hierarquia visual", "estimatedQuality": "alta"}`, nil
		})

	out, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "heuristics", Preview: true, Input: Input{Images: images}})
	require.NoError(t, err)
	assert.True(t, out.Preview)
	require.NotNil(t, out.Result.Preview)
	assert.Equal(t, extract.QualityHigh, out.Result.Preview.EstimatedQuality)
	assert.Equal(t, 3, out.Result.Preview.FullAnalysisCost)
	assert.Equal(t, 0, out.Usage.Used)
}

func TestRunHistoryFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t, 3)
	f.svc.History = failingHistory{}
	f.llm.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("Sem pontuações aqui.", nil)

	out, err := f.svc.Run(context.Background(), RunRequest{UserID: "u1", AgentID: "coreaction", Input: Input{ProductName: "Hub", ProductDescription: "Agentes"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Result.OverallScore)
	assert.Equal(t, 1, out.Usage.Used)
}

type failingHistory struct{}

func (failingHistory) Create(context.Context, analyses.Analysis) error {
	return errors.New("db down")
}
