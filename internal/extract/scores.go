package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)(?:\s*/\s*10\b)?`)
	// pairTokenRe matches either a score or a side qualifier such as "ideia A".
	pairTokenRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)(?:\s*/\s*10\b)?|\b(?:ideia|idea|opção|opcao|option)\s*([ab])\b`)
)

type pairToken struct {
	isNumber bool
	value    float64
	side     byte
}

// singleScore finds the first number stated after name on the same line.
func singleScore(text, name string) (float64, bool) {
	nameRe := namePattern(name)
	for _, line := range strings.Split(text, "\n") {
		loc := nameRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		m := numberRe.FindStringSubmatch(line[loc[1]:])
		if m == nil {
			continue
		}
		if v, ok := parseNumber(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

// pairedScore finds per-side scores stated after name on the same line.
// First match per side wins.
func pairedScore(text, name string) (a, b float64, foundA, foundB bool) {
	nameRe := namePattern(name)
	for _, line := range strings.Split(text, "\n") {
		loc := nameRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		for _, p := range pairUp(scanPairTokens(line[loc[1]:])) {
			switch p.side {
			case 'a':
				if !foundA {
					a, foundA = p.value, true
				}
			case 'b':
				if !foundB {
					b, foundB = p.value, true
				}
			}
		}
		if foundA && foundB {
			return a, b, true, true
		}
	}
	return a, b, foundA, foundB
}

func scanPairTokens(s string) []pairToken {
	var out []pairToken
	for _, m := range pairTokenRe.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			if v, ok := parseNumber(m[1]); ok {
				out = append(out, pairToken{isNumber: true, value: v})
			}
			continue
		}
		if m[2] != "" {
			out = append(out, pairToken{side: strings.ToLower(m[2])[0]})
		}
	}
	return out
}

// pairUp binds each score to its side qualifier. Tokens are first paired in
// the order the line opens with; a side left over after that takes the
// nearest unclaimed score, so mixed phrasings such as "8/10 para a ideia A,
// enquanto a ideia B recebe 5/10" still yield both sides.
func pairUp(tokens []pairToken) []pairToken {
	if len(tokens) < 2 {
		return nil
	}
	numberFirst := tokens[0].isNumber
	used := make([]bool, len(tokens))
	var out []pairToken
	for i := 0; i+1 < len(tokens); {
		first, second := tokens[i], tokens[i+1]
		if first.isNumber == numberFirst && second.isNumber != numberFirst {
			if numberFirst {
				out = append(out, pairToken{value: first.value, side: second.side})
			} else {
				out = append(out, pairToken{value: second.value, side: first.side})
			}
			used[i], used[i+1] = true, true
			i += 2
			continue
		}
		i++
	}

	for i, t := range tokens {
		if used[i] || t.isNumber {
			continue
		}
		if j := nearestFreeNumber(tokens, used, i); j >= 0 {
			out = append(out, pairToken{value: tokens[j].value, side: t.side})
			used[i], used[j] = true, true
		}
	}
	return out
}

// nearestFreeNumber returns the index of the closest unused number token to
// tokens[i], preferring the following one on a tie, or -1.
func nearestFreeNumber(tokens []pairToken, used []bool, i int) int {
	for d := 1; d < len(tokens); d++ {
		if j := i + d; j < len(tokens) && tokens[j].isNumber && !used[j] {
			return j
		}
		if j := i - d; j >= 0 && tokens[j].isNumber && !used[j] {
			return j
		}
	}
	return -1
}

func namePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(strings.TrimSpace(name)))
}

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
