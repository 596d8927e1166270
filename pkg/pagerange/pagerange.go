// Package pagerange reconciles document start pages into per-document page
// spans within one scanned issue.
package pagerange

import "github.com/rbenz/gazette/internal/models"

// Span is the scanned pages one document occupies.
type Span struct {
	ID    int64
	Pages []int
}

// Reconcile assigns each record the pages from its start page up to the next
// record's start page, exclusive. Records sharing a start page all get just
// that page, except that a record followed by a later start keeps the full
// run. The last record extends through lastPage, the highest scanned page of
// the issue. Records must be sorted by start page.
func Reconcile(records []models.Record, lastPage int) []Span {
	spans := make([]Span, 0, len(records))
	for i, r := range records {
		next := lastPage + 1
		if i+1 < len(records) {
			next = records[i+1].StartPage
		}
		pages := []int{r.StartPage}
		for p := r.StartPage + 1; p < next; p++ {
			pages = append(pages, p)
		}
		spans = append(spans, Span{ID: r.ID, Pages: pages})
	}
	return spans
}
