package service

import "strings"

// normalizeOutput canonicalizes program output before comparison:
// line endings collapse to LF, trailing whitespace on each line is
// stripped, and trailing empty lines are dropped. Interior whitespace
// is preserved so formatting mistakes still count as wrong answers.
func normalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

// outputsMatch compares actual against expected after normalization.
func outputsMatch(actual, expected string) bool {
	return normalizeOutput(actual) == normalizeOutput(expected)
}
