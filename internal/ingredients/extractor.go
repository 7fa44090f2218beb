package ingredients

import (
	"strings"
	"unicode"
)

// Recognized ingredient list markers, in priority order.
var markers = []string{
	"ingredients:",
	"active ingredients:",
	"other ingredients:",
	"contains:",
}

// Extract turns a free-text ingredient statement (product label,
// specification sheet) into an ordered, deduplicated list of raw
// ingredient names.
//
// It scans for the first case-insensitive occurrence of a recognized
// marker, takes the text up to the first sentence boundary as the
// ingredient clause, and splits it into names. No marker means no result:
// an empty list is a defined outcome, not an error.
func Extract(text string) []string {
	lower := strings.ToLower(text)

	start := -1
	for _, marker := range markers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			start = idx + len(marker)
			break
		}
	}
	if start < 0 {
		return nil
	}

	clause := text[start:]
	if end := sentenceEnd(clause); end >= 0 {
		clause = clause[:end]
	}

	return SplitList(clause)
}

// SplitList splits an ingredient clause on commas and semicolons at
// parenthesis depth zero, so a nested parenthetical list survives as part
// of its parent fragment. Fragments are trimmed of whitespace and trailing
// punctuation; empties are dropped and duplicates (case-insensitive)
// removed, preserving first-occurrence order.
func SplitList(clause string) []string {
	var names []string
	seen := make(map[string]struct{})

	depth := 0
	fragStart := 0
	flush := func(end int) {
		frag := cleanFragment(clause[fragStart:end])
		if frag == "" {
			return
		}
		key := strings.ToLower(frag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		names = append(names, frag)
	}

	for i, r := range clause {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',', ';':
			if depth == 0 {
				flush(i)
				fragStart = i + len(",")
			}
		}
	}
	flush(len(clause))

	return names
}

// SplitComposite separates a raw ingredient fragment into its display name
// and the nested ingredient list carried in a trailing parenthetical, if
// any. "Enriched Flour (Wheat Flour, Niacin)" yields ("Enriched Flour",
// "Wheat Flour, Niacin"); fragments without a parenthetical yield an empty
// nested text.
func SplitComposite(raw string) (name, nested string) {
	open := strings.IndexAny(raw, "([")
	if open < 0 {
		return strings.TrimSpace(raw), ""
	}

	name = strings.TrimSpace(raw[:open])

	depth := 0
	for i := open; i < len(raw); i++ {
		switch raw[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				return name, strings.TrimSpace(raw[open+1 : i])
			}
		}
	}

	// Unbalanced parenthetical: take everything after the opener.
	return name, strings.TrimSpace(raw[open+1:])
}

// sentenceEnd returns the index of the period ending the first sentence —
// a period followed by whitespace and an uppercase letter — or -1 if the
// clause runs to the end of input.
func sentenceEnd(clause string) int {
	for i := 0; i < len(clause); i++ {
		if clause[i] != '.' {
			continue
		}

		j := i + 1
		for j < len(clause) && (clause[j] == ' ' || clause[j] == '\t' || clause[j] == '\n' || clause[j] == '\r') {
			j++
		}
		if j == i+1 {
			// No whitespace after the period (e.g. a decimal number).
			continue
		}
		if j < len(clause) {
			r := []rune(clause[j:])[0]
			if unicode.IsUpper(r) {
				return i
			}
		}
	}
	return -1
}

// cleanFragment strips surrounding whitespace and trailing punctuation
// from a split fragment.
func cleanFragment(frag string) string {
	frag = strings.TrimSpace(frag)
	frag = strings.TrimRight(frag, ".,;:")
	return strings.TrimSpace(frag)
}
