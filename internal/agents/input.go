package agents

import "strings"

// MaxImages caps the screens accepted by one heuristics run.
const MaxImages = 10

// Input is the union of every agent's form fields. Each agent reads only
// the fields it needs.
type Input struct {
	// comparison
	IdeaA   string `json:"ideaA"`
	IdeaB   string `json:"ideaB"`
	Problem string `json:"problem"`
	Context string `json:"context"`

	// coreaction
	ProductName        string   `json:"productName"`
	ProductDescription string   `json:"productDescription"`
	TargetAudience     string   `json:"targetAudience"`
	BusinessModel      string   `json:"businessModel"`
	CurrentActions     []string `json:"currentActions"`

	// patterns
	Challenge    string `json:"challenge"`
	IndustryType string `json:"industryType"`

	// usecases
	Feature       string `json:"feature"`
	UserType      string `json:"userType"`
	SystemContext string `json:"systemContext"`

	// ideation
	CurrentFeature string `json:"currentFeature"`
	UserProblem    string `json:"userProblem"`
	Constraints    string `json:"constraints"`
	FeatureCount   int    `json:"featureCount"`

	// heuristics
	Images     []string `json:"images"`
	ActionType string   `json:"actionType"`
	FlowType   string   `json:"flowType"`
	Device     string   `json:"device"`
}

// Validate checks the fields agentID requires.
func (in Input) Validate(agentID string) error {
	var issues []FieldIssue
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			issues = append(issues, FieldIssue{Field: field, Issue: "required"})
		}
	}

	switch agentID {
	case "comparison":
		require("ideaA", in.IdeaA)
		require("ideaB", in.IdeaB)
		require("problem", in.Problem)
	case "coreaction":
		require("productName", in.ProductName)
		require("productDescription", in.ProductDescription)
	case "patterns":
		require("challenge", in.Challenge)
	case "usecases":
		require("feature", in.Feature)
	case "ideation":
		require("currentFeature", in.CurrentFeature)
		require("userProblem", in.UserProblem)
	case "heuristics":
		issues = append(issues, validateImages(in.Images)...)
	default:
		return ErrAgentNotFound
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateImages(images []string) []FieldIssue {
	switch {
	case len(images) == 0:
		return []FieldIssue{{Field: "images", Issue: "required"}}
	case len(images) > MaxImages:
		return []FieldIssue{{Field: "images", Issue: "too_many"}}
	}
	for _, img := range images {
		if !validImageRef(img) {
			return []FieldIssue{{Field: "images", Issue: "invalid_format"}}
		}
	}
	return nil
}

func validImageRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	return strings.HasPrefix(ref, "data:image/") || strings.HasPrefix(ref, "https://")
}
