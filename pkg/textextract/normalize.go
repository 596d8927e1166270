package textextract

import "strings"

// Normalize cleans already-extracted long-form text: repeated blank lines
// collapse, whitespace-only lines go, and so do lines that are nothing but
// digits, which are almost always stray page numbers. Idempotent.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\n\n", "\n")
	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isDigits(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
