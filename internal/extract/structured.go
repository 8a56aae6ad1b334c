package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const heuristicsSchemaJSON = `{
  "type": "object",
  "required": ["heuristics"],
  "properties": {
    "overallScore": {"type": ["number", "null"]},
    "heuristics": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "score": {"type": ["number", "null"]},
          "issues": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "properties": {
                "description": {"type": "string"},
                "imageIndex": {"type": "integer"},
                "coordinates": {
                  "type": "object",
                  "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
                },
                "recommendation": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

const previewSchemaJSON = `{
  "type": "object",
  "required": ["analysis", "estimatedQuality"],
  "properties": {
    "analysis": {"type": "string"},
    "estimatedQuality": {"type": "string"},
    "fullAnalysisCost": {"type": ["integer", "null"]}
  }
}`

var (
	heuristicsSchema = mustCompileSchema(heuristicsSchemaJSON, "heuristics.schema.json")
	previewSchema    = mustCompileSchema(previewSchemaJSON, "preview.schema.json")
)

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}

// decodeStructured validates raw against schema and decodes it into out.
func decodeStructured(raw string, schema *jsonschema.Schema, out any) error {
	body := stripCodeFence(raw)
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type heuristicsPayload struct {
	OverallScore *float64 `json:"overallScore"`
	Heuristics   []struct {
		ID     string   `json:"id"`
		Score  *float64 `json:"score"`
		Issues []struct {
			Description    string  `json:"description"`
			ImageIndex     float64 `json:"imageIndex"`
			Coordinates    struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
			Recommendation string  `json:"recommendation"`
		} `json:"issues"`
	} `json:"heuristics"`
}

type heuristicsExtractor struct{}

func (heuristicsExtractor) Extract(in Input) (Result, error) {
	var payload heuristicsPayload
	if err := decodeStructured(in.RawText, heuristicsSchema, &payload); err != nil {
		return Result{}, err
	}

	byID := make(map[string]CriterionSpec, len(in.Criteria))
	for _, c := range in.Criteria {
		byID[strings.ToLower(c.ID)] = c
	}

	res := newResult(KindHeuristics, in.RawText)
	res.Scores = make(map[string]Score, len(in.Criteria))
	if payload.OverallScore != nil {
		res.OverallScore = nonNegative(*payload.OverallScore)
	}

	seen := make(map[string]bool, len(payload.Heuristics))
	for _, h := range payload.Heuristics {
		id := strings.TrimSpace(h.ID)
		hr := HeuristicResult{ID: id, Issues: []Issue{}}
		if h.Score != nil {
			hr.Score = nonNegative(*h.Score)
		}
		if spec, ok := byID[strings.ToLower(id)]; ok {
			hr.ID = spec.ID
			hr.Name = spec.DisplayName
			hr.Description = spec.Description
		}
		for _, raw := range h.Issues {
			index, ok := wholeNumber(raw.ImageIndex)
			if !ok {
				return Result{}, fmt.Errorf("%w: heuristic %q imageIndex %v", ErrMalformedModelOutput, id, raw.ImageIndex)
			}
			if in.ImageCount > 0 && (index < 0 || index >= in.ImageCount) {
				return Result{}, fmt.Errorf("%w: heuristic %q references image %d of %d", ErrIndexOutOfRange, id, index, in.ImageCount)
			}
			issue := Issue{
				Description:    strings.TrimSpace(raw.Description),
				ImageIndex:     index,
				Coordinates:    Coordinates{X: clampPercent(raw.Coordinates.X), Y: clampPercent(raw.Coordinates.Y)},
				Recommendation: strings.TrimSpace(raw.Recommendation),
			}
			hr.Issues = append(hr.Issues, issue)
			res.Issues = append(res.Issues, issue)
		}
		if hr.ID != "" && !seen[hr.ID] {
			seen[hr.ID] = true
			res.Scores[hr.ID] = Score{Value: hr.Score}
		}
		res.Heuristics = append(res.Heuristics, hr)
	}
	for _, c := range in.Criteria {
		if !seen[c.ID] {
			res.Scores[c.ID] = Score{}
			res.Unmatched = append(res.Unmatched, c.ID)
		}
	}
	return res, nil
}

type previewPayload struct {
	Analysis         string   `json:"analysis"`
	EstimatedQuality string   `json:"estimatedQuality"`
	FullAnalysisCost *float64 `json:"fullAnalysisCost"`
}

type previewExtractor struct{}

func (previewExtractor) Extract(in Input) (Result, error) {
	var payload previewPayload
	if err := decodeStructured(in.RawText, previewSchema, &payload); err != nil {
		return Result{}, err
	}
	quality, ok := normalizeQuality(payload.EstimatedQuality)
	if !ok {
		return Result{}, fmt.Errorf("%w: estimatedQuality %q", ErrMalformedModelOutput, payload.EstimatedQuality)
	}
	cost := in.ImageCount
	if payload.FullAnalysisCost != nil {
		n, ok := wholeNumber(*payload.FullAnalysisCost)
		if !ok {
			return Result{}, fmt.Errorf("%w: fullAnalysisCost %v", ErrMalformedModelOutput, *payload.FullAnalysisCost)
		}
		if n > 0 {
			cost = n
		}
	}

	res := newResult(KindHeuristicsPreview, in.RawText)
	res.Preview = &Preview{
		Analysis:         strings.TrimSpace(payload.Analysis),
		EstimatedQuality: quality,
		FullAnalysisCost: cost,
	}
	return res, nil
}

func normalizeQuality(raw string) (Quality, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "alta", "alto":
		return QualityHigh, true
	case "medium", "média", "media", "médio", "medio":
		return QualityMedium, true
	case "low", "baixa", "baixo":
		return QualityLow, true
	}
	return "", false
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// wholeNumber converts a JSON number such as 1 or 1.0 to an int.
func wholeNumber(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
