package types

import (
	"context"
	"time"

	"github.com/rbenz/gazette/internal/models"
)

// ResultState is the outcome of probing the result frame after a search or a
// page transition.
type ResultState int

const (
	ResultsNotReady ResultState = iota
	ResultsReady
	ResultsEmpty
)

// UIClient is one live session against the register's framed web UI. All
// methods block up to the session's configured timeout for the step; any
// timeout or structural mismatch is fatal to the session as a whole.
type UIClient interface {
	SubmitSearch(category string, since time.Time) error
	ProbeResults() (ResultState, error)
	SetPageSize(n int) error
	ResultCount() (int, error)
	ReadRows() ([]models.RawRow, error)
	RangeStart() (int, error)
	AdvancePage() error
	Close() error
}

// SessionFactory opens a fresh UI session. The supervisor calls it once per
// attempt and discards the session on any fault.
type SessionFactory func(ctx context.Context) (UIClient, error)

// PageSink receives one fully parsed result page as a single batch. A failed
// batch must leave the store untouched.
type PageSink interface {
	StorePage(ctx context.Context, records []models.Record, assocs []models.Association) error
	StoreSectors(ctx context.Context, records []models.Record) error
}

// PageCorrector is what the page-fix crawler needs from the store.
type PageCorrector interface {
	CorrectPages(ctx context.Context, issue models.Issue, printed []int) error
	MarkIssueCorrected(ctx context.Context, issue models.Issue) error
}

// WatermarkReader exposes per-stage progress watermarks for the status API.
type WatermarkReader interface {
	Watermarks(ctx context.Context) (map[string]time.Time, error)
}

// TextStore is what the long-form text stages need from the store.
type TextStore interface {
	Issues(ctx context.Context, sinceYear int) ([]models.Issue, error)
	PageCorrected(ctx context.Context, issue models.Issue, maxPage int) ([]models.Record, error)
	UpdateLongText(ctx context.Context, id int64, text string) error
	LongTexts(ctx context.Context, fn func(id int64, text string) error) error
}
