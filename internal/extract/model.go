package extract

import "encoding/json"

// Kind selects an extraction strategy.
type Kind string

const (
	KindComparison        Kind = "comparison"
	KindCoreAction        Kind = "coreaction"
	KindPatterns          Kind = "patterns"
	KindUseCases          Kind = "usecases"
	KindIdeation          Kind = "ideation"
	KindHeuristics        Kind = "heuristics"
	KindHeuristicsPreview Kind = "heuristics_preview"
)

// CriterionSpec is a named evaluation axis an agent asks the model about.
type CriterionSpec struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Questions   []string `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// Input is the model output plus the context needed to interpret it.
type Input struct {
	RawText      string
	Criteria     []CriterionSpec
	ImageCount   int
	FeatureCount int
}

// Winner identifies the preferred side of a pairwise comparison.
type Winner string

const (
	WinnerNone    Winner = ""
	WinnerOptionA Winner = "optionA"
	WinnerOptionB Winner = "optionB"
)

// Score holds either a single value or a pair of per-side values.
// A zero value means the model output did not state a score.
type Score struct {
	Value   float64
	OptionA float64
	OptionB float64
	Paired  bool
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s.Paired {
		return json.Marshal(struct {
			OptionA float64 `json:"optionA"`
			OptionB float64 `json:"optionB"`
		}{s.OptionA, s.OptionB})
	}
	return json.Marshal(struct {
		Value float64 `json:"value"`
	}{s.Value})
}

// Coordinates are percentages of the image width and height.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Issue is a usability problem anchored to one of the submitted images.
type Issue struct {
	Description    string      `json:"description"`
	ImageIndex     int         `json:"imageIndex"`
	Coordinates    Coordinates `json:"coordinates"`
	Recommendation string      `json:"recommendation"`
}

// HeuristicResult is one heuristic's evaluation in a full image analysis.
type HeuristicResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	Issues      []Issue `json:"issues"`
}

// Category reports whether a category or case type appears in the text.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Included    bool   `json:"included"`
	Segment     string `json:"segment,omitempty"`
}

// Section is one generated idea.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Quality is the preview's estimate of how useful a full analysis would be.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Preview is the cheap single-image heuristic pass.
type Preview struct {
	Analysis         string  `json:"analysis"`
	EstimatedQuality Quality `json:"estimatedQuality"`
	FullAnalysisCost int     `json:"fullAnalysisCost"`
}

// Result is the structured reading of one model response. RawText is always
// set; every other field is best effort and falls back to its zero value.
type Result struct {
	Kind                Kind              `json:"kind"`
	RawText             string            `json:"rawText"`
	Scores              map[string]Score  `json:"scores,omitempty"`
	Unmatched           []string          `json:"unmatched,omitempty"`
	Winner              Winner            `json:"winner,omitempty"`
	WinnerJustification string            `json:"winnerJustification,omitempty"`
	CoreAction          string            `json:"coreAction,omitempty"`
	OverallScore        float64           `json:"overallScore"`
	Categories          []Category        `json:"categories,omitempty"`
	Sections            []Section         `json:"sections,omitempty"`
	Heuristics          []HeuristicResult `json:"heuristics,omitempty"`
	Issues              []Issue           `json:"issues"`
	Preview             *Preview          `json:"preview,omitempty"`
}

func newResult(kind Kind, raw string) Result {
	return Result{Kind: kind, RawText: raw, Issues: []Issue{}}
}
