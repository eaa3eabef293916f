package flow

import "strings"

// SplitLine tokenizes one CSV row. A double quote toggles quoted mode and a
// comma only separates fields outside of it. Quote characters are dropped
// from the output but doubled quotes are not collapsed; the export format
// never produces them.
func SplitLine(line string) []string {
	fields := make([]string, 0, 16)
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}
