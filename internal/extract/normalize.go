package extract

import "strings"

// normalize turns raw recognized text into the two forms the extractors
// work on: a single line with all whitespace runs collapsed, and the
// ordered list of trimmed, non-empty lines. Pure and total.
func normalize(text string) (flat string, lines []string) {
	flat = strings.Join(strings.Fields(text), " ")

	for _, raw := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(raw); t != "" {
			lines = append(lines, t)
		}
	}
	return flat, lines
}
