// Package textextract reconstructs each document's long-form text from the
// concatenated OCR of its page range. OCR output is noisy, so boundaries are
// found by fuzzy title matching rather than exact search.
package textextract

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Default similarity thresholds. They are empirical and tunable, not derived.
const (
	DefaultStartThreshold = 60
	DefaultEndThreshold   = 90
)

// TrimBeforeTitle drops everything before the line that opens the document.
// A line qualifies when its leading word window, the same word count as the
// title, scores at least threshold against the title. When the document
// number has a second dash-separated component, that component must also
// appear verbatim in the line; OCR mangles titles but rarely digits, and the
// gate keeps the trimmer off sibling documents of the same type.
//
// When no line qualifies the input is returned unchanged. Losing a boundary
// costs some leading boilerplate; trimming at the wrong line loses text.
func TrimBeforeTitle(text, title, number string, threshold int) (string, bool) {
	if threshold == 0 {
		threshold = DefaultStartThreshold
	}
	want := strings.Fields(title)
	if len(want) == 0 {
		return text, false
	}

	var gate string
	if parts := strings.Split(number, "-"); len(parts) > 1 {
		gate = parts[1]
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		if len(words) < len(want) {
			continue
		}
		window := strings.Join(words[:len(want)], " ")
		if fuzzy.Ratio(title, window) < threshold {
			continue
		}
		if gate != "" && !strings.Contains(line, gate) {
			continue
		}
		return strings.Join(lines[i:], "\n"), true
	}
	return text, false
}

// TrimAfterKeywords cuts the text at the line that opens the next document,
// recognized by a heading keyword scoring at least threshold against the
// line's leading words. On the first page of a range the document's own
// heading is still present, so the cut happens at the second keyword hit
// there and at the first hit on later pages. Returns the possibly shortened
// text and whether a boundary was found.
func TrimAfterKeywords(text string, firstPage bool, threshold int) (string, bool) {
	if threshold == 0 {
		threshold = DefaultEndThreshold
	}

	lines := strings.Split(text, "\n")
	hits := 0
	need := 1
	if firstPage {
		need = 2
	}
	for i, line := range lines {
		words := strings.Fields(line)
		if !lineOpensHeading(words, threshold) {
			continue
		}
		hits++
		if hits == need {
			return strings.Join(lines[:i], "\n"), true
		}
	}
	return text, false
}

func lineOpensHeading(words []string, threshold int) bool {
	for _, kw := range headingKeywords {
		n := len(strings.Fields(kw))
		if len(words) < n {
			continue
		}
		window := strings.Join(words[:n], " ")
		if fuzzy.PartialRatio(kw, window) >= threshold {
			return true
		}
	}
	return false
}
