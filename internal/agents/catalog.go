package agents

import (
	"fmt"

	"hub-backend/internal/extract"
)

// ModelRole selects which configured model serves a call.
type ModelRole string

const (
	RoleDefault ModelRole = "default"
	RoleVision  ModelRole = "vision"
	RolePreview ModelRole = "preview"
)

// Agent is one analysis workflow.
type Agent struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Description     string                  `json:"description"`
	Category        string                  `json:"category"`
	Structured      bool                    `json:"structured"`
	SupportsPreview bool                    `json:"supportsPreview"`
	Criteria        []extract.CriterionSpec `json:"criteria,omitempty"`

	kind         extract.Kind
	role         ModelRole
	build        promptBuilder
	previewKind  extract.Kind
	previewRole  ModelRole
	previewBuild promptBuilder
}

// Catalog is the fixed set of agents, in display order.
type Catalog struct {
	agents []Agent
	byID   map[string]Agent
}

// DefaultCatalog returns the six built-in agents.
func DefaultCatalog() *Catalog {
	return newCatalog([]Agent{
		{
			ID:              "heuristics",
			Name:            "Análise de Heurísticas",
			Description:     "Analise interfaces com base nas 10 heurísticas de Nielsen",
			Category:        "padrões",
			Structured:      true,
			SupportsPreview: true,
			Criteria:        nielsenHeuristics,
			kind:            extract.KindHeuristics,
			role:            RoleVision,
			build:           buildHeuristics,
			previewKind:     extract.KindHeuristicsPreview,
			previewRole:     RolePreview,
			previewBuild:    buildHeuristicsPreview,
		},
		{
			ID:          "patterns",
			Name:        "Patterns de UX/UI",
			Description: "Banco de padrões de produtos digitais",
			Category:    "padrões",
			Criteria:    patternCategories,
			kind:        extract.KindPatterns,
			role:        RoleDefault,
			build:       buildPatterns,
		},
		{
			ID:          "usecases",
			Name:        "Casos de Uso",
			Description: "Gere casos de uso de sucesso, erro, alternativos, de borda e negativos",
			Category:    "estratégia",
			Criteria:    useCaseTypes,
			kind:        extract.KindUseCases,
			role:        RoleDefault,
			build:       buildUseCases,
		},
		{
			ID:          "coreaction",
			Name:        "Definição de Core Action",
			Description: "Ajuda a definir a ação principal do seu produto",
			Category:    "estratégia",
			Criteria:    coreActionDimensions,
			kind:        extract.KindCoreAction,
			role:        RoleDefault,
			build:       buildCoreAction,
		},
		{
			ID:          "comparison",
			Name:        "Confronto de Ideias",
			Description: "Compare diferentes soluções para um problema",
			Category:    "argumentação",
			Criteria:    comparisonCriteria,
			kind:        extract.KindComparison,
			role:        RoleDefault,
			build:       buildComparison,
		},
		{
			ID:          "ideation",
			Name:        "Ideação de Funcionalidades",
			Description: "Gere ideias de novas funcionalidades a partir de um problema do usuário",
			Category:    "estratégia",
			kind:        extract.KindIdeation,
			role:        RoleDefault,
			build:       buildIdeation,
		},
	})
}

func newCatalog(agents []Agent) *Catalog {
	c := &Catalog{byID: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		c.agents = append(c.agents, a)
		c.byID[a.ID] = a
	}
	return c
}

// Get returns the agent with id.
func (c *Catalog) Get(id string) (Agent, error) {
	a, ok := c.byID[id]
	if !ok {
		return Agent{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return a, nil
}

// All returns the agents in display order.
func (c *Catalog) All() []Agent {
	return append([]Agent(nil), c.agents...)
}

// plan is everything needed to run one variant of an agent.
type plan struct {
	kind  extract.Kind
	role  ModelRole
	build promptBuilder
}

func (a Agent) plan(preview bool) plan {
	if preview && a.SupportsPreview {
		return plan{kind: a.previewKind, role: a.previewRole, build: a.previewBuild}
	}
	return plan{kind: a.kind, role: a.role, build: a.build}
}

// Extract reads a raw model response the way a run of this agent would.
func (a Agent) Extract(raw string, preview bool, in Input) (extract.Result, error) {
	return extract.Extract(a.plan(preview).kind, extract.Input{
		RawText:      raw,
		Criteria:     a.Criteria,
		ImageCount:   len(in.Images),
		FeatureCount: in.FeatureCount,
	})
}
