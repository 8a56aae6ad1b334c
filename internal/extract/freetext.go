package extract

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	DefaultFeatureCount = 3
	MaxFeatureCount     = 5

	segmentMatchTimeout = 250 * time.Millisecond
)

var (
	winnerSentenceRe = regexp.MustCompile(`(?i)(?:vencedora|vencedor|melhor|winner|best)[^:\n]*?(?:é|seria|\bis\b)[^:\n]*?(?:ideia|idea|opção|opcao|option)\s*([ab])\b`)
	winnerLabelRe    = regexp.MustCompile(`(?i)(?:vencedora|vencedor|winner)\W*:\W*(?:a\s+)?(?:ideia|idea|opção|opcao|option)\s*([ab])\b`)
	coreActionRe     = regexp.MustCompile(`(?i)core action(?:\s+recomendada)?(?:\s+identificada)?(?:\s+sugerida)?(?:\s+ideal)?:?\s*([^\n.]+)`)
	ideaMarkerRe     = regexp.MustCompile(`(?i)^[\s*\-]*(?:ideia|idea|funcionalidade|feature)\s*\d+`)

	headingSectionRe = compileRegexp2(`^#{1,6}[ \t]+(.*?)(?=^#{1,6}[ \t]|\z)`, regexp2.Multiline|regexp2.Singleline)
)

func compileRegexp2(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = segmentMatchTimeout
	return re
}

type comparisonExtractor struct{}

func (comparisonExtractor) Extract(in Input) (Result, error) {
	res := newResult(KindComparison, in.RawText)
	res.Scores = make(map[string]Score, len(in.Criteria))

	var totalA, totalB float64
	anyScore := false
	for _, c := range in.Criteria {
		a, b, foundA, foundB := pairedScore(in.RawText, c.DisplayName)
		res.Scores[c.ID] = Score{OptionA: a, OptionB: b, Paired: true}
		if !foundA || !foundB {
			res.Unmatched = append(res.Unmatched, c.ID)
		}
		anyScore = anyScore || foundA || foundB
		totalA += a
		totalB += b
	}

	winner, end := declaredWinner(in.RawText)
	switch {
	case winner != WinnerNone:
		res.Winner = winner
		res.WinnerJustification = justificationAfter(in.RawText[end:])
	case anyScore:
		// Without any score or declaration there is no winner; ties on totals go to option A.
		if totalA >= totalB {
			res.Winner = WinnerOptionA
		} else {
			res.Winner = WinnerOptionB
		}
	}
	return res, nil
}

// declaredWinner looks for an explicit winner sentence and returns the side
// and the offset where the declaration ends.
func declaredWinner(text string) (Winner, int) {
	best := -1
	var side string
	end := 0
	for _, re := range []*regexp.Regexp{winnerSentenceRe, winnerLabelRe} {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		if best == -1 || m[0] < best {
			best = m[0]
			side = text[m[2]:m[3]]
			end = m[1]
		}
	}
	switch strings.ToLower(side) {
	case "a":
		return WinnerOptionA, end
	case "b":
		return WinnerOptionB, end
	}
	return WinnerNone, 0
}

// justificationAfter skips the rest of the declaration, which ends at the
// first period or line break, and returns what follows up to the next blank
// line, heading, or capitalized line.
func justificationAfter(rest string) string {
	end := strings.IndexAny(rest, ".\n")
	if end < 0 {
		return ""
	}
	body := strings.TrimLeft(rest[end+1:], " \t\r\n")
	if strings.HasPrefix(body, "#") {
		return ""
	}
	cut := len(body)
	if i := strings.Index(body, "\n\n"); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.Index(body, "\n#"); i >= 0 && i < cut {
		cut = i
	}
	for i := 0; i < cut; i++ {
		if body[i] != '\n' {
			continue
		}
		r, _ := utf8.DecodeRuneInString(body[i+1:])
		if unicode.IsUpper(r) && strings.TrimSpace(body[:i]) != "" {
			cut = i
			break
		}
	}
	return strings.TrimSpace(body[:cut])
}

type coreActionExtractor struct{}

func (coreActionExtractor) Extract(in Input) (Result, error) {
	res := newResult(KindCoreAction, in.RawText)
	res.Scores = make(map[string]Score, len(in.Criteria))

	var sum float64
	for _, c := range in.Criteria {
		v, ok := singleScore(in.RawText, c.DisplayName)
		if !ok {
			res.Unmatched = append(res.Unmatched, c.ID)
		}
		res.Scores[c.ID] = Score{Value: v}
		sum += v
	}
	if n := len(in.Criteria); n > 0 {
		res.OverallScore = math.Round(sum / float64(n))
	}
	if m := coreActionRe.FindStringSubmatch(in.RawText); m != nil {
		res.CoreAction = strings.Trim(strings.TrimSpace(m[1]), "*_ ")
	}
	return res, nil
}

// categoryExtractor serves the pattern and use-case agents: a category is
// included when its name or id appears anywhere in the text.
type categoryExtractor struct {
	kind Kind
}

func (e categoryExtractor) Extract(in Input) (Result, error) {
	res := newResult(e.kind, in.RawText)
	lower := strings.ToLower(in.RawText)
	res.Categories = make([]Category, 0, len(in.Criteria))
	for _, c := range in.Criteria {
		cat := Category{ID: c.ID, Name: c.DisplayName, Description: c.Description}
		cat.Included = containsFold(lower, c.DisplayName) || containsFold(lower, c.ID)
		if cat.Included {
			cat.Segment = segmentFor(in.RawText, c)
		} else {
			res.Unmatched = append(res.Unmatched, c.ID)
		}
		res.Categories = append(res.Categories, cat)
	}
	return res, nil
}

func containsFold(lowerText, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return needle != "" && strings.Contains(lowerText, needle)
}

// segmentFor captures from the first mention of the category up to the next
// blank line, heading, or end of text.
func segmentFor(text string, c CriterionSpec) string {
	alts := make([]string, 0, 2)
	for _, s := range []string{c.DisplayName, c.ID} {
		if s = strings.TrimSpace(s); s != "" {
			alts = append(alts, regexp2.Escape(s))
		}
	}
	if len(alts) == 0 {
		return ""
	}
	re := compileRegexp2(`(?:`+strings.Join(alts, "|")+`).*?(?=\n\s*\n|\n#{1,6}\s|\z)`, regexp2.IgnoreCase|regexp2.Singleline)
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return ""
	}
	return strings.TrimSpace(m.String())
}

type ideationExtractor struct{}

func (ideationExtractor) Extract(in Input) (Result, error) {
	res := newResult(KindIdeation, in.RawText)
	limit := ClampFeatureCount(in.FeatureCount)

	sections := headingSections(in.RawText)
	if len(sections) == 0 {
		sections = markerSections(in.RawText)
	}
	if len(sections) == 0 {
		sections = []Section{{Title: "Ideia 1", Content: strings.TrimSpace(in.RawText)}}
	}
	if len(sections) > limit {
		sections = sections[:limit]
	}
	res.Sections = sections
	return res, nil
}

// ClampFeatureCount bounds the requested idea count to [1, MaxFeatureCount];
// zero selects DefaultFeatureCount.
func ClampFeatureCount(n int) int {
	switch {
	case n == 0:
		return DefaultFeatureCount
	case n < 1:
		return 1
	case n > MaxFeatureCount:
		return MaxFeatureCount
	}
	return n
}

func headingSections(text string) []Section {
	var out []Section
	m, err := headingSectionRe.FindStringMatch(text)
	for err == nil && m != nil {
		if body := strings.TrimSpace(m.GroupByNumber(1).String()); body != "" {
			out = append(out, Section{Title: titleOf(body), Content: body})
		}
		m, err = headingSectionRe.FindNextMatch(m)
	}
	return out
}

func markerSections(text string) []Section {
	var out []Section
	var current *Section
	for _, line := range strings.Split(text, "\n") {
		if ideaMarkerRe.MatchString(line) {
			if current != nil {
				out = append(out, *current)
			}
			current = &Section{Title: titleOf(line), Content: line + "\n"}
			continue
		}
		if current != nil {
			current.Content += line + "\n"
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	for i := range out {
		out[i].Content = strings.TrimSpace(out[i].Content)
	}
	return out
}

func titleOf(body string) string {
	first, _, _ := strings.Cut(body, "\n")
	return strings.Trim(strings.TrimSpace(first), "#*_- ")
}
