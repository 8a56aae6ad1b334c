package usage

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentIDs are the metered agents, in catalog order.
var AgentIDs = []string{"heuristics", "patterns", "usecases", "coreaction", "comparison", "ideation"}

// TierTable is the immutable set of configured tiers.
type TierTable struct {
	tiers []Tier
	byID  map[string]Tier
}

// NewTierTable validates tiers and indexes them by id.
func NewTierTable(tiers []Tier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("tier table is empty")
	}
	t := &TierTable{byID: make(map[string]Tier, len(tiers))}
	for i, tier := range tiers {
		id := strings.TrimSpace(tier.ID)
		if id == "" {
			return nil, fmt.Errorf("tier %d: id is required", i)
		}
		if _, dup := t.byID[id]; dup {
			return nil, fmt.Errorf("tier %q: duplicate id", id)
		}
		if len(tier.Limits) == 0 {
			return nil, fmt.Errorf("tier %q: limits are required", id)
		}
		for agentID, limit := range tier.Limits {
			if limit < 0 {
				return nil, fmt.Errorf("tier %q: negative limit for %s", id, agentID)
			}
		}
		tier.ID = id
		t.tiers = append(t.tiers, tier)
		t.byID[id] = tier
	}
	return t, nil
}

// Get returns the tier with the given id.
func (t *TierTable) Get(id string) (Tier, bool) {
	tier, ok := t.byID[strings.TrimSpace(id)]
	return tier, ok
}

// All returns the tiers in configured order.
func (t *TierTable) All() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// Agents returns every agent id that appears in any tier, sorted.
func (t *TierTable) Agents() []string {
	seen := map[string]struct{}{}
	for _, tier := range t.tiers {
		for id := range tier.Limits {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadTiers reads a YAML tier table ({tiers: [...]}) from path. An empty path
// returns the built-in table.
func LoadTiers(path string) (*TierTable, error) {
	if strings.TrimSpace(path) == "" {
		return NewTierTable(DefaultTiers())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers %s: %w", path, err)
	}
	var doc struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse tiers %s: %w", path, err)
	}
	return NewTierTable(doc.Tiers)
}

// DefaultTiers returns the built-in plans.
func DefaultTiers() []Tier {
	return []Tier{
		{
			ID:          "free",
			Name:        "Free",
			Description: "Para designers que querem experimentar a plataforma",
			Price:       price(0),
			Features:    []string{"3 usos de cada agente por mês", "Acesso a todos os agentes", "Suporte por email"},
			Limits:      uniformLimits(3),
		},
		{
			ID:          "designer",
			Name:        "Designer",
			Description: "Para designers que trabalham em projetos regulares",
			Price:       price(97),
			Features:    []string{"15 análises heurísticas por mês", "15 usos dos outros agentes por mês", "Suporte prioritário", "Exportação de relatórios"},
			Limits:      uniformLimits(15),
			IsPopular:   true,
		},
		{
			ID:          "pro",
			Name:        "Pro",
			Description: "Para designers profissionais e freelancers",
			Price:       price(197),
			Features:    []string{"Uso ilimitado de todos os agentes", "Suporte prioritário 24/7", "Exportação de relatórios", "API de integração", "Acesso antecipado a novos recursos"},
			Limits:      uniformLimits(Unlimited),
		},
		{
			ID:           "team",
			Name:         "Team",
			Description:  "Para equipes de design e empresas",
			Features:     []string{"Acesso para 5-10 membros da equipe", "Dashboard de gerenciamento de equipe", "Relatórios consolidados", "Compartilhamento de resultados", "Implementação personalizada", "Suporte dedicado"},
			Limits:       uniformLimits(Unlimited),
			IsEnterprise: true,
		},
	}
}

func uniformLimits(n int) map[string]int {
	out := make(map[string]int, len(AgentIDs))
	for _, id := range AgentIDs {
		out[id] = n
	}
	return out
}

func price(v float64) *float64 {
	return &v
}
