package corpus

import (
	"strconv"
	"strings"
)

// TestCase is one input/expected-output pair. Ordinal defines execution
// order and starts at 1.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Ordinal  int    `json:"ordinal"`
}

// Parse resolves two raw text blobs into an ordered case list.
//
// The blobs carry no schema, so detection tries a fixed priority order and
// stops at the first strategy that yields a structurally consistent split:
//
//	1. blank-line separated sections
//	2. one non-empty line per case
//	3. count-prefixed (first input line is a bare integer N)
//	4. whole-blob fallback (always succeeds)
//
// The order is fixed priority, not best-fit scoring. A strategy whose
// counts do not line up falls through silently. Parse is a pure function
// of its inputs so re-parsing the same corpus yields identical ordinals.
func Parse(rawInputs, rawOutputs string) []TestCase {
	if cases, ok := parseBlankLineSections(rawInputs, rawOutputs); ok {
		return cases
	}
	if cases, ok := parseOneLinePerCase(rawInputs, rawOutputs); ok {
		return cases
	}
	if cases, ok := parseCountPrefixed(rawInputs, rawOutputs); ok {
		return cases
	}
	return []TestCase{{Input: rawInputs, Expected: rawOutputs, Ordinal: 1}}
}

// parseBlankLineSections splits both blobs on blank-line separators.
// Matches only when both sides produce the same multi-section count.
func parseBlankLineSections(rawInputs, rawOutputs string) ([]TestCase, bool) {
	inSections := splitSections(rawInputs)
	outSections := splitSections(rawOutputs)
	if len(inSections) < 2 || len(inSections) != len(outSections) {
		return nil, false
	}
	return pair(inSections, outSections), true
}

// parseOneLinePerCase treats each non-empty line as one case.
func parseOneLinePerCase(rawInputs, rawOutputs string) ([]TestCase, bool) {
	inLines := splitLines(rawInputs)
	outLines := splitLines(rawOutputs)
	if len(inLines) < 2 || len(inLines) != len(outLines) {
		return nil, false
	}
	return pair(inLines, outLines), true
}

// parseCountPrefixed reads a bare integer N from the first input line and
// chunks the remaining lines of both blobs into N equal groups.
func parseCountPrefixed(rawInputs, rawOutputs string) ([]TestCase, bool) {
	inLines := splitLines(rawInputs)
	if len(inLines) < 2 {
		return nil, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(inLines[0]))
	if err != nil || n < 1 || n > 1000 {
		return nil, false
	}
	rest := inLines[1:]
	outLines := splitLines(rawOutputs)
	if len(rest) == 0 || len(rest)%n != 0 {
		return nil, false
	}
	if len(outLines) == 0 || len(outLines)%n != 0 {
		return nil, false
	}
	return pair(chunk(rest, n), chunk(outLines, n)), true
}

// splitSections splits a blob on blank-line separators, dropping empty
// sections. Line endings are normalized first so CRLF corpora behave the
// same as LF ones.
func splitSections(blob string) []string {
	normalized := normalizeNewlines(blob)
	parts := strings.Split(normalized, "\n\n")
	sections := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.Trim(p, "\n")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		sections = append(sections, trimmed)
	}
	return sections
}

// splitLines returns the non-empty lines of a blob.
func splitLines(blob string) []string {
	normalized := normalizeNewlines(blob)
	parts := strings.Split(normalized, "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// chunk groups consecutive lines into n equal-size cases.
func chunk(lines []string, n int) []string {
	size := len(lines) / n
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, strings.Join(lines[i*size:(i+1)*size], "\n"))
	}
	return out
}

func pair(inputs, outputs []string) []TestCase {
	cases := make([]TestCase, 0, len(inputs))
	for i := range inputs {
		cases = append(cases, TestCase{
			Input:    inputs[i],
			Expected: outputs[i],
			Ordinal:  i + 1,
		})
	}
	return cases
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
