package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"hub-backend/internal/extract"
	"hub-backend/internal/llm"
)

const comparisonSystem = `Você é um especialista em design thinking, UX/UI e avaliação de ideias, com vasto conhecimento em metodologias de inovação e resolução de problemas.

Analise as duas ideias fornecidas para resolver o problema descrito e faça uma comparação detalhada, avaliando cada ideia nos seguintes critérios:

%s
Para cada critério, atribua uma pontuação de 1 a 10 para cada ideia e forneça uma justificativa detalhada. Escreva cada pontuação em uma linha própria, no formato "Critério: 8/10 para a ideia A".

Ao final, determine qual ideia é a vencedora com base na análise global, explicando claramente os motivos da escolha, no formato "A ideia vencedora é a ideia A." seguido da justificativa.`

const coreActionSystem = `Você é um especialista em estratégia de produto e growth, com profundo conhecimento da metodologia Reforge para identificação de Core Actions.

Uma Core Action é a ação principal que os usuários realizam em um produto, que gera valor tanto para eles quanto para o negócio. A Core Action ideal tem alta frequência, alto valor, contribui para efeitos de rede, cria defensibilidade e está alinhada com os objetivos de longo prazo.

Analise o produto descrito e identifique a Core Action ideal, avaliando as ações candidatas em cada uma das dimensões abaixo:

%s
Forneça uma análise detalhada e estruturada, com pontuações para cada dimensão (1-10) no formato "Dimensão: 8/10" e uma pontuação geral. Indique a ação escolhida em uma linha no formato "Core Action recomendada: <ação>".`

const patternsSystem = `Você é um especialista em UX/UI Design com vasto conhecimento em padrões de design, melhores práticas, princípios de usabilidade e psicologia do usuário.

Analise o desafio de design fornecido e forneça um relatório detalhado de padrões UX/UI, melhores práticas, estratégias de copy e gatilhos psicológicos que podem ser aplicados.

Organize o relatório pelas categorias relevantes entre: %s.

Para cada categoria relevante, forneça:
1. Padrões específicos que podem ser aplicados
2. Exemplos de implementação bem-sucedida
3. Princípios de design que fundamentam esses padrões
4. Considerações específicas para o contexto do usuário

Seu relatório deve ser estruturado, detalhado e prático, permitindo que o designer aplique essas recomendações diretamente ao seu trabalho.`

const useCasesSystem = `Você é um especialista em UX/UI Design e engenharia de requisitos, com vasto conhecimento em casos de uso, fluxos de usuário e cenários de teste.

Analise a funcionalidade descrita e gere casos de uso detalhados para cada tipo: %s.

Para cada caso de uso, forneça:
1. Um título descritivo
2. Pré-condições necessárias
3. Atores envolvidos
4. Fluxo detalhado passo a passo
5. Pós-condições esperadas
6. Observações ou considerações especiais

Seu relatório deve ser estruturado, detalhado e prático, permitindo que designers e desenvolvedores entendam todos os cenários possíveis.`

const ideationSystem = `Você é um especialista em UX/UI Design e inovação de produtos, com vasto conhecimento em ideação de novas funcionalidades.

Analise a funcionalidade atual e o problema do usuário descritos, e gere %d ideias inovadoras para novas funcionalidades que poderiam melhorar a experiência do usuário e resolver o problema de forma mais eficaz.

Comece cada ideia com um título em markdown ("## Título da ideia") e, para cada uma, forneça:
1. Uma descrição detalhada da funcionalidade
2. Os benefícios esperados para o usuário
3. Considerações técnicas para implementação
4. Uma descrição visual de como seria a interface

Suas ideias devem ser inovadoras, viáveis e alinhadas com as necessidades do usuário e as restrições fornecidas.`

const heuristicsSystem = `Você é um especialista em UX/UI que analisa interfaces com base nas heurísticas de Nielsen.
Analise detalhadamente as imagens fornecidas, considerando que elas representam um fluxo de interação.
Para cada heurística de Nielsen, identifique problemas específicos, forneça uma pontuação (0-10) e recomendações.
Indique em quais imagens cada problema ocorre, referenciando-as pelo índice (a primeira imagem tem índice 0).
Forneça também coordenadas aproximadas (x,y em %) para cada problema identificado.
Ao final, calcule um score geral de usabilidade (0-100).`

const heuristicsFormat = `Forneça sua análise no seguinte formato JSON:
{
  "overallScore": número de 0 a 100,
  "heuristics": [
    {
      "id": "id_da_heuristica",
      "score": número de 0 a 10,
      "issues": [
        {
          "description": "descrição do problema",
          "imageIndex": número da imagem (começando em 0),
          "coordinates": {"x": percentual, "y": percentual},
          "recommendation": "recomendação para resolver"
        }
      ]
    }
  ]
}
Use apenas os ids: %s.`

const previewSystem = `Você é um especialista em UX/UI que analisa interfaces com base nas heurísticas de Nielsen.
Faça uma análise rápida da imagem fornecida, identificando possíveis problemas de usabilidade.
Forneça uma estimativa da qualidade dos resultados que uma análise completa poderia gerar.`

const previewFormat = `Responda em JSON no formato {"analysis": "texto da análise", "estimatedQuality": "alta" | "média" | "baixa", "fullAnalysisCost": %d}.`

type promptBuilder func(criteria []extract.CriterionSpec, in Input) llm.Request

func buildComparison(criteria []extract.CriterionSpec, in Input) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Problema: %s\n\nIdeia A: %s\n\nIdeia B: %s\n\n", in.Problem, in.IdeaA, in.IdeaB)
	optionalLine(&b, "Contexto adicional", in.Context)
	b.WriteString("\nPor favor, compare estas duas ideias e determine qual é a melhor solução para o problema descrito.")
	return llm.Request{
		System:    fmt.Sprintf(comparisonSystem, numberedCriteria(criteria)),
		Prompt:    b.String(),
		Mode:      llm.ModeText,
		MaxTokens: 3000,
	}
}

func buildCoreAction(criteria []extract.CriterionSpec, in Input) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Produto: %s\n\nDescrição: %s\n\n", in.ProductName, in.ProductDescription)
	fmt.Fprintf(&b, "Público-alvo: %s\n\n", orUnspecified(in.TargetAudience))
	fmt.Fprintf(&b, "Modelo de negócio: %s\n\n", orUnspecified(in.BusinessModel))

	actions := nonEmpty(in.CurrentActions)
	if len(actions) > 0 {
		b.WriteString("Ações candidatas a Core Action:\n")
		for _, a := range actions {
			b.WriteString("- " + a + "\n")
		}
	} else {
		b.WriteString("Não foram fornecidas ações candidatas específicas.\n")
	}
	b.WriteString("\nPor favor, identifique a Core Action ideal para este produto. Se foram fornecidas ações candidatas, avalie cada uma. Caso contrário, sugira possíveis Core Actions.")

	var dims strings.Builder
	for i, c := range criteria {
		fmt.Fprintf(&dims, "%d. %s: %s\n", i+1, c.DisplayName, c.Description)
		for _, q := range c.Questions {
			dims.WriteString("   - " + q + "\n")
		}
	}
	return llm.Request{
		System:    fmt.Sprintf(coreActionSystem, dims.String()),
		Prompt:    b.String(),
		Mode:      llm.ModeText,
		MaxTokens: 3000,
	}
}

func buildPatterns(criteria []extract.CriterionSpec, in Input) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Desafio de Design: %s\n\n", in.Challenge)
	optionalLine(&b, "Contexto adicional", in.Context)
	optionalLine(&b, "Tipo de indústria", in.IndustryType)
	b.WriteString("\nPor favor, forneça um relatório detalhado de padrões UX/UI, melhores práticas, estratégias de copy e gatilhos psicológicos que podem ser aplicados a este desafio.")
	return llm.Request{
		System:    fmt.Sprintf(patternsSystem, criteriaNames(criteria)),
		Prompt:    b.String(),
		Mode:      llm.ModeText,
		MaxTokens: 4000,
	}
}

func buildUseCases(criteria []extract.CriterionSpec, in Input) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Funcionalidade: %s\n\n", in.Feature)
	optionalLine(&b, "Tipo de usuário", in.UserType)
	optionalLine(&b, "Contexto do sistema", in.SystemContext)
	b.WriteString("\nPor favor, gere casos de uso detalhados para esta funcionalidade, incluindo casos de sucesso, erro, alternativos, de borda e negativos.")
	return llm.Request{
		System:    fmt.Sprintf(useCasesSystem, criteriaNames(criteria)),
		Prompt:    b.String(),
		Mode:      llm.ModeText,
		MaxTokens: 4000,
	}
}

func buildIdeation(_ []extract.CriterionSpec, in Input) llm.Request {
	count := extract.ClampFeatureCount(in.FeatureCount)
	var b strings.Builder
	fmt.Fprintf(&b, "Funcionalidade atual: %s\n\nProblema do usuário: %s\n\n", in.CurrentFeature, in.UserProblem)
	optionalLine(&b, "Público-alvo", in.TargetAudience)
	optionalLine(&b, "Restrições", in.Constraints)
	fmt.Fprintf(&b, "\nPor favor, gere %d ideias inovadoras para novas funcionalidades que poderiam melhorar a experiência do usuário.", count)
	return llm.Request{
		System:    fmt.Sprintf(ideationSystem, count),
		Prompt:    b.String(),
		Mode:      llm.ModeText,
		MaxTokens: 3000,
	}
}

func buildHeuristics(criteria []extract.CriterionSpec, in Input) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Analise este fluxo de interface. Contexto: %s.\n", heuristicsContext(in))
	for i := range in.Images {
		switch {
		case i == 0:
			fmt.Fprintf(&b, "Imagem %d: início do fluxo.\n", i)
		case i == len(in.Images)-1:
			fmt.Fprintf(&b, "Imagem %d: fim do fluxo.\n", i)
		default:
			fmt.Fprintf(&b, "Imagem %d: interação intermediária.\n", i)
		}
	}
	ids := make([]string, 0, len(criteria))
	for _, c := range criteria {
		ids = append(ids, c.ID)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, heuristicsFormat, strings.Join(ids, ", "))
	return llm.Request{
		System:    heuristicsSystem,
		Prompt:    b.String(),
		Mode:      llm.ModeJSON,
		Images:    append([]string(nil), in.Images...),
		MaxTokens: 4000,
	}
}

// buildHeuristicsPreview sends only the first screen.
func buildHeuristicsPreview(_ []extract.CriterionSpec, in Input) llm.Request {
	var images []string
	if len(in.Images) > 0 {
		images = []string{in.Images[0]}
	}
	prompt := fmt.Sprintf("Analise esta interface para um preview rápido. Contexto: %s.\n\n", heuristicsContext(in)) +
		fmt.Sprintf(previewFormat, len(in.Images))
	return llm.Request{
		System:    previewSystem,
		Prompt:    prompt,
		Mode:      llm.ModeJSON,
		Images:    images,
		MaxTokens: 500,
	}
}

func heuristicsContext(in Input) string {
	ctx := struct {
		BusinessModel string `json:"businessModel,omitempty"`
		ActionType    string `json:"actionType,omitempty"`
		FlowType      string `json:"flowType,omitempty"`
		Device        string `json:"device,omitempty"`
	}{in.BusinessModel, in.ActionType, in.FlowType, in.Device}
	raw, err := json.Marshal(ctx)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func numberedCriteria(criteria []extract.CriterionSpec) string {
	var b strings.Builder
	for i, c := range criteria {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, c.DisplayName, c.Description)
	}
	return b.String()
}

func criteriaNames(criteria []extract.CriterionSpec) string {
	names := make([]string, 0, len(criteria))
	for _, c := range criteria {
		names = append(names, c.DisplayName)
	}
	return strings.Join(names, ", ")
}

func optionalLine(b *strings.Builder, label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fmt.Fprintf(b, "%s: %s\n", label, v)
	}
}

func orUnspecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Não especificado"
	}
	return v
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
