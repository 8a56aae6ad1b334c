package agents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"hub-backend/internal/llm"
)

func TestBuildIdeationClampsCount(t *testing.T) {
	req := buildIdeation(nil, Input{CurrentFeature: "Busca", UserProblem: "Lenta", FeatureCount: 12})
	assert.Contains(t, req.System, "gere 5 ideias")
	assert.Contains(t, req.Prompt, "gere 5 ideias")

	req = buildIdeation(nil, Input{CurrentFeature: "Busca", UserProblem: "Lenta"})
	assert.Contains(t, req.Prompt, "gere 3 ideias")
}

func TestBuildCoreActionListsCandidates(t *testing.T) {
	req := buildCoreAction(coreActionDimensions, Input{
		ProductName:        "Hub",
		ProductDescription: "Agentes de design",
		CurrentActions:     []string{"Rodar análise", " ", "Compartilhar resultado"},
	})
	assert.Contains(t, req.Prompt, "- Rodar análise\n- Compartilhar resultado\n")
	assert.Contains(t, req.Prompt, "Público-alvo: Não especificado")
	assert.Contains(t, req.System, "Efeito de Rede")
	assert.Contains(t, req.System, "Esta ação é realizada diariamente, semanalmente ou mensalmente?")
}

func TestBuildHeuristicsNumbersImagesFromZero(t *testing.T) {
	in := Input{Images: []string{"data:image/png;base64,A", "data:image/png;base64,B", "data:image/png;base64,C"}, Device: "mobile"}
	req := buildHeuristics(nielsenHeuristics, in)

	assert.Equal(t, llm.ModeJSON, req.Mode)
	assert.Len(t, req.Images, 3)
	assert.Contains(t, req.Prompt, "Imagem 0: início do fluxo.")
	assert.Contains(t, req.Prompt, "Imagem 1: interação intermediária.")
	assert.Contains(t, req.Prompt, "Imagem 2: fim do fluxo.")
	assert.Contains(t, req.Prompt, `"device":"mobile"`)
	assert.True(t, strings.Contains(req.Prompt, "visibility, match, control"))
}

func TestBuildOptionalFieldsOmitted(t *testing.T) {
	req := buildPatterns(patternCategories, Input{Challenge: "Onboarding"})
	assert.NotContains(t, req.Prompt, "Contexto adicional")
	assert.NotContains(t, req.Prompt, "Tipo de indústria")

	req = buildComparison(comparisonCriteria, Input{IdeaA: "A", IdeaB: "B", Problem: "P", Context: "B2B"})
	assert.Contains(t, req.Prompt, "Contexto adicional: B2B")
}
