package extract

import (
	"sort"
	"strconv"
	"strings"
)

const (
	confidenceLabeled  = 95
	confidenceWindowed = 75
	confidenceFallback = 50

	// tieWindow is the confidence gap within which two candidates are
	// considered tied and a secondary ordering applies.
	tieWindow = 10

	// Numeric tokens outside this range are never amount candidates.
	amountTokenMin = 100
	amountTokenMax = 999_999_999

	// tailLines is how many trailing lines the second amount tier
	// scans; receipt totals sit near the bottom.
	tailLines = 10
)

type amountCandidate struct {
	value      float64
	confidence int
	sourceLine string
	lineIndex  int
}

// amountTier is one step of the extraction cascade. A tier's scan runs
// only if every earlier tier produced zero candidates.
type amountTier struct {
	name string
	scan func(lines []string) []amountCandidate
}

var amountTiers = []amountTier{
	{name: "labeled", scan: labeledAmounts},
	{name: "tail", scan: tailAmounts},
	{name: "fallback", scan: fallbackAmounts},
}

// extractAmount runs the tiered cascade and picks the winning
// candidate, or nil when no tier found anything.
func extractAmount(lines []string) *amountCandidate {
	for _, tier := range amountTiers {
		if candidates := tier.scan(lines); len(candidates) > 0 {
			return pickAmount(candidates)
		}
	}
	return nil
}

// labeledAmounts scans lines carrying a total keyword.
func labeledAmounts(lines []string) []amountCandidate {
	var out []amountCandidate
	for i, line := range lines {
		if !totalLabelRe.MatchString(line) {
			continue
		}
		for _, v := range amountsInLine(line) {
			out = append(out, amountCandidate{value: v, confidence: confidenceLabeled, sourceLine: line, lineIndex: i})
		}
	}
	return out
}

// tailAmounts scans the last lines of the document, keeping only
// total-sized values.
func tailAmounts(lines []string) []amountCandidate {
	start := len(lines) - tailLines
	if start < 0 {
		start = 0
	}
	var out []amountCandidate
	for i := start; i < len(lines); i++ {
		for _, v := range amountsInLine(lines[i]) {
			if v < 1000 {
				continue
			}
			out = append(out, amountCandidate{value: v, confidence: confidenceWindowed, sourceLine: lines[i], lineIndex: i})
		}
	}
	return out
}

// fallbackAmounts scans everything as a last resort.
func fallbackAmounts(lines []string) []amountCandidate {
	var out []amountCandidate
	for i, line := range lines {
		for _, v := range amountsInLine(line) {
			if v < 1000 || v > amountTokenMax {
				continue
			}
			out = append(out, amountCandidate{value: v, confidence: confidenceFallback, sourceLine: line, lineIndex: i})
		}
	}
	return out
}

// amountsInLine finds the numeric tokens of one line that could be an
// amount, deduplicating identical values.
func amountsInLine(line string) []float64 {
	var out []float64
	seen := make(map[float64]bool)
	for _, tok := range numberRe.FindAllString(line, -1) {
		v, ok := parseNumber(tok)
		if !ok || v < amountTokenMin || v > amountTokenMax {
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// parseNumber parses a grouped/decimal numeric token. A comma followed
// by exactly two trailing digits is the decimal separator (44017,00 and
// 1.234,56); any other comma is a thousands separator.
func parseNumber(tok string) (float64, bool) {
	if i := strings.LastIndexByte(tok, ','); i >= 0 && len(tok)-i-1 == 2 {
		intPart := strings.NewReplacer(",", "", ".", "").Replace(tok[:i])
		tok = intPart + "." + tok[i+1:]
	} else {
		tok = strings.ReplaceAll(tok, ",", "")
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// pickAmount orders candidates by confidence and resolves near-ties in
// favor of the larger value: when a subtotal and the true total score
// alike, the total is the bigger number.
func pickAmount(candidates []amountCandidate) *amountCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence > candidates[j].confidence
	})
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.confidence-c.confidence <= tieWindow && c.value > best.value {
			best = c
		}
	}
	return &best
}
