package agents

import "hub-backend/internal/extract"

var comparisonCriteria = []extract.CriterionSpec{
	{ID: "feasibility", DisplayName: "Viabilidade", Description: "Quão viável é implementar esta ideia considerando recursos, tempo e tecnologia disponíveis?"},
	{ID: "impact", DisplayName: "Impacto", Description: "Qual o potencial impacto desta ideia na resolução do problema e na experiência do usuário?"},
	{ID: "innovation", DisplayName: "Inovação", Description: "Quão inovadora é esta ideia em comparação com soluções existentes no mercado?"},
	{ID: "scalability", DisplayName: "Escalabilidade", Description: "Quão bem esta ideia pode escalar para atender a um número crescente de usuários ou casos de uso?"},
	{ID: "alignment", DisplayName: "Alinhamento", Description: "Quão bem esta ideia se alinha com os objetivos de negócio e necessidades dos usuários?"},
}

// Dimensions follow the Reforge core action method.
var coreActionDimensions = []extract.CriterionSpec{
	{
		ID:          "frequency",
		DisplayName: "Frequência",
		Description: "Com que frequência os usuários realizam esta ação?",
		Questions: []string{
			"Com que frequência os usuários realizam esta ação?",
			"Esta ação é realizada diariamente, semanalmente ou mensalmente?",
			"Qual é o intervalo típico entre repetições desta ação?",
		},
	},
	{
		ID:          "value",
		DisplayName: "Valor",
		Description: "Quanto valor esta ação gera para o usuário e para o negócio?",
		Questions: []string{
			"Qual é o valor direto que esta ação gera para o usuário?",
			"Como esta ação contribui para a proposta de valor do produto?",
			"Qual é o impacto financeiro desta ação para o negócio?",
		},
	},
	{
		ID:          "network",
		DisplayName: "Efeito de Rede",
		Description: "Esta ação contribui para efeitos de rede ou loops virais?",
		Questions: []string{
			"Esta ação cria valor para outros usuários além de quem a executa?",
			"A ação contribui para atrair novos usuários para a plataforma?",
			"Existe um efeito multiplicador quando mais usuários realizam esta ação?",
		},
	},
	{
		ID:          "defensibility",
		DisplayName: "Defensibilidade",
		Description: "Esta ação cria barreiras competitivas ou aumenta o custo de troca?",
		Questions: []string{
			"Esta ação cria dados ou conteúdo que aumentam o valor do produto ao longo do tempo?",
			"A ação contribui para aumentar o custo de troca para concorrentes?",
			"Existe algum aspecto único na forma como esta ação é implementada?",
		},
	},
	{
		ID:          "alignment",
		DisplayName: "Alinhamento",
		Description: "Esta ação está alinhada com os objetivos de longo prazo do negócio?",
		Questions: []string{
			"Como esta ação se alinha com a visão e missão da empresa?",
			"Esta ação contribui para os objetivos estratégicos de longo prazo?",
			"Existe algum conflito potencial entre esta ação e outros objetivos do negócio?",
		},
	},
}

var useCaseTypes = []extract.CriterionSpec{
	{ID: "success", DisplayName: "Caso de Sucesso", Description: "Fluxo principal onde o usuário atinge seu objetivo sem problemas."},
	{ID: "error", DisplayName: "Caso de Erro", Description: "Fluxo onde ocorrem erros ou exceções que impedem o usuário de atingir seu objetivo."},
	{ID: "alternative", DisplayName: "Caso Alternativo", Description: "Fluxo alternativo que leva ao mesmo objetivo por um caminho diferente."},
	{ID: "edge", DisplayName: "Caso de Borda", Description: "Situações extremas ou raras que testam os limites do sistema."},
	{ID: "negative", DisplayName: "Caso Negativo", Description: "Tentativas de uso indevido ou abusivo do sistema."},
}

var patternCategories = []extract.CriterionSpec{
	{ID: "navigation", DisplayName: "Navegação e Estrutura", Description: "Padrões relacionados à navegação, arquitetura da informação e estrutura do site/aplicativo."},
	{ID: "forms", DisplayName: "Formulários e Entrada de Dados", Description: "Padrões para design de formulários, validação e entrada de dados."},
	{ID: "feedback", DisplayName: "Feedback e Comunicação", Description: "Padrões para fornecer feedback ao usuário, mensagens de erro e confirmação."},
	{ID: "onboarding", DisplayName: "Onboarding e Educação", Description: "Padrões para introduzir novos usuários ao produto e educar sobre funcionalidades."},
	{ID: "visual", DisplayName: "Design Visual e Estética", Description: "Padrões relacionados à estética, cores, tipografia e elementos visuais."},
	{ID: "interaction", DisplayName: "Interação e Microinterações", Description: "Padrões para interações específicas, gestos e microinterações."},
	{ID: "accessibility", DisplayName: "Acessibilidade e Inclusão", Description: "Padrões para tornar o produto acessível a todos os usuários."},
	{ID: "persuasion", DisplayName: "Persuasão e Conversão", Description: "Padrões para aumentar conversão, engajamento e persuasão."},
}

// Nielsen's ten usability heuristics.
var nielsenHeuristics = []extract.CriterionSpec{
	{ID: "visibility", DisplayName: "Visibilidade do Status do Sistema", Description: "O sistema deve manter os usuários informados sobre o que está acontecendo, através de feedback apropriado dentro de um tempo razoável."},
	{ID: "match", DisplayName: "Correspondência entre o Sistema e o Mundo Real", Description: "O sistema deve falar a linguagem dos usuários, com palavras, frases e conceitos familiares ao usuário, em vez de termos orientados ao sistema."},
	{ID: "control", DisplayName: "Controle e Liberdade do Usuário", Description: "Os usuários frequentemente escolhem funções por engano e precisam de uma \"saída de emergência\" claramente marcada para deixar o estado indesejado."},
	{ID: "consistency", DisplayName: "Consistência e Padrões", Description: "Os usuários não devem ter que se perguntar se diferentes palavras, situações ou ações significam a mesma coisa."},
	{ID: "errors", DisplayName: "Prevenção de Erros", Description: "Melhor que boas mensagens de erro é um design cuidadoso que previne que um problema ocorra."},
	{ID: "recognition", DisplayName: "Reconhecimento em vez de Lembrança", Description: "Minimize a carga de memória do usuário tornando objetos, ações e opções visíveis."},
	{ID: "flexibility", DisplayName: "Flexibilidade e Eficiência de Uso", Description: "Aceleradores invisíveis para o usuário novato podem frequentemente acelerar a interação para o usuário experiente."},
	{ID: "aesthetic", DisplayName: "Design Estético e Minimalista", Description: "Os diálogos não devem conter informações irrelevantes ou raramente necessárias."},
	{ID: "recovery", DisplayName: "Ajude os Usuários a Reconhecer, Diagnosticar e Recuperar-se de Erros", Description: "Mensagens de erro devem ser expressas em linguagem simples, indicar precisamente o problema e sugerir uma solução."},
	{ID: "help", DisplayName: "Ajuda e Documentação", Description: "Mesmo que seja melhor que um sistema possa ser usado sem documentação, pode ser necessário fornecer ajuda e documentação."},
}
