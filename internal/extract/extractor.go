package extract

import (
	"fmt"
	"sort"

	"hub-backend/internal/shared/metrics"
	"hub-backend/internal/shared/telemetry"
)

// Extractor turns one model response into a Result.
type Extractor interface {
	Extract(in Input) (Result, error)
}

var registry = map[Kind]Extractor{
	KindComparison:        comparisonExtractor{},
	KindCoreAction:        coreActionExtractor{},
	KindPatterns:          categoryExtractor{kind: KindPatterns},
	KindUseCases:          categoryExtractor{kind: KindUseCases},
	KindIdeation:          ideationExtractor{},
	KindHeuristics:        heuristicsExtractor{},
	KindHeuristicsPreview: previewExtractor{},
}

// For returns the extractor registered for kind.
func For(kind Kind) (Extractor, error) {
	ex, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return ex, nil
}

// Kinds lists the registered kinds in stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Extract runs the extractor for kind. Free-text kinds never fail; only the
// structured kinds return ErrMalformedModelOutput or ErrIndexOutOfRange.
func Extract(kind Kind, in Input) (Result, error) {
	ex, err := For(kind)
	if err != nil {
		return Result{}, err
	}
	res, err := ex.Extract(in)
	if err != nil {
		return Result{}, err
	}
	if len(res.Unmatched) > 0 {
		metrics.AddExtractionMisses(len(res.Unmatched))
		telemetry.Debug("extract.miss", map[string]any{
			"kind":      string(kind),
			"unmatched": res.Unmatched,
		})
	}
	return res, nil
}
