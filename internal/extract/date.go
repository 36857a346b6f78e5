package extract

import (
	"regexp"
	"sort"
	"strconv"
	"time"
)

const (
	// headLines is how many leading lines the second date tier scans;
	// issue dates print near the top.
	headLines = 15

	// futureLimitDays rejects dates too far ahead of now: due dates and
	// card expiries misread as the transaction date. There is
	// deliberately no matching bound on the past.
	futureLimitDays = 365
)

type dateCandidate struct {
	value      time.Time
	confidence int
	sourceLine string
	lineIndex  int
}

type datePattern struct {
	re        *regexp.Regexp
	yearFirst bool
	shortYear bool
}

type dateTier struct {
	name string
	scan func(lines []string, now time.Time) []dateCandidate
}

var dateTiers = []dateTier{
	{name: "labeled", scan: labeledDates},
	{name: "head", scan: headDates},
	{name: "fallback", scan: fallbackDates},
}

// extractDate runs the tiered cascade and picks the winning candidate,
// or nil when no tier found anything.
func extractDate(lines []string, now time.Time) *dateCandidate {
	for _, tier := range dateTiers {
		if candidates := tier.scan(lines, now); len(candidates) > 0 {
			return pickDate(candidates, now)
		}
	}
	return nil
}

func labeledDates(lines []string, now time.Time) []dateCandidate {
	var out []dateCandidate
	for i, line := range lines {
		if !dateLabelRe.MatchString(line) {
			continue
		}
		for _, d := range datesInLine(line, now) {
			out = append(out, dateCandidate{value: d, confidence: confidenceLabeled, sourceLine: line, lineIndex: i})
		}
	}
	return out
}

func headDates(lines []string, now time.Time) []dateCandidate {
	end := headLines
	if end > len(lines) {
		end = len(lines)
	}
	var out []dateCandidate
	for i := 0; i < end; i++ {
		for _, d := range datesInLine(lines[i], now) {
			out = append(out, dateCandidate{value: d, confidence: confidenceWindowed, sourceLine: lines[i], lineIndex: i})
		}
	}
	return out
}

func fallbackDates(lines []string, now time.Time) []dateCandidate {
	var out []dateCandidate
	for i, line := range lines {
		for _, d := range datesInLine(line, now) {
			out = append(out, dateCandidate{value: d, confidence: confidenceFallback, sourceLine: line, lineIndex: i})
		}
	}
	return out
}

// datesInLine finds the parseable, plausible dates of one line,
// deduplicating identical values.
func datesInLine(line string, now time.Time) []time.Time {
	var out []time.Time
	seen := make(map[time.Time]bool)
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(line, -1) {
			d, ok := parseDate(m, p)
			if !ok {
				continue
			}
			if d.After(now.AddDate(0, 0, futureLimitDays)) {
				continue
			}
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// parseDate builds a calendar date from a pattern's captured groups,
// rejecting impossible day/month combinations. Two-digit years pivot at
// 50: 00-49 map to 2000-2049, 50-99 to 1950-1999.
func parseDate(m []string, p datePattern) (time.Time, bool) {
	var year, month, day int
	if p.yearFirst {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	} else {
		day, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
	}
	if p.shortYear {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// pickDate orders candidates by confidence and resolves near-ties in
// favor of the date closest to now: a receipt's transaction date is the
// most recent plausible one, not the largest.
func pickDate(candidates []dateCandidate, now time.Time) *dateCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence > candidates[j].confidence
	})
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.confidence-c.confidence <= tieWindow && absDuration(c.value.Sub(now)) < absDuration(best.value.Sub(now)) {
			best = c
		}
	}
	return &best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
