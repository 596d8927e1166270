package textextract

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
	"github.com/rbenz/gazette/pkg/issues"
	"github.com/rbenz/gazette/pkg/pagerange"
)

// Config wires the extraction run.
type Config struct {
	// ArchiveRoot is the OCR archive directory, one subdirectory per year.
	ArchiveRoot string

	// SinceYear bounds the run to issues from this year on. Default 1964.
	SinceYear int

	// StartThreshold is the title-match similarity floor. Default 60.
	StartThreshold int

	// TrimEnd also cuts each document at the next heading found by keyword
	// match, instead of relying on the neighbor's start page alone.
	TrimEnd bool

	// EndThreshold is the keyword-match similarity floor. Default 90.
	EndThreshold int

	// Parallelism bounds concurrent issues. Issues share nothing but the
	// store, so this only throttles disk and database pressure. Default 4.
	Parallelism int
}

func (c *Config) defaults() {
	if c.SinceYear == 0 {
		c.SinceYear = 1964
	}
	if c.StartThreshold == 0 {
		c.StartThreshold = DefaultStartThreshold
	}
	if c.EndThreshold == 0 {
		c.EndThreshold = DefaultEndThreshold
	}
	if c.Parallelism == 0 {
		c.Parallelism = 4
	}
}

// Enricher fills in the long-form text of page-corrected documents.
type Enricher struct {
	cfg   Config
	store types.TextStore
}

func NewEnricher(store types.TextStore, cfg Config) *Enricher {
	cfg.defaults()
	return &Enricher{cfg: cfg, store: store}
}

// Run walks every known issue since the configured year, reconciles page
// ranges and writes each document's trimmed text back to the store. Issues
// whose OCR directory does not exist yet are skipped, not failed; the OCR
// pipeline runs independently and fills the archive over time.
func (e *Enricher) Run(ctx context.Context) error {
	list, err := e.store.Issues(ctx, e.cfg.SinceYear)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)
	for _, issue := range list {
		issue := issue
		g.Go(func() error {
			err := e.runIssue(ctx, issue)
			if errors.Is(err, fs.ErrNotExist) {
				log.Printf("textextract: issue %s has no OCR pages yet, skipping", issue)
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func (e *Enricher) runIssue(ctx context.Context, issue models.Issue) error {
	ix, err := issues.Load(e.cfg.ArchiveRoot, issue)
	if err != nil {
		return err
	}
	last := ix.LastPage()
	if last == 0 {
		return nil
	}

	records, err := e.store.PageCorrected(ctx, issue, last)
	if err != nil {
		return err
	}
	spans := pagerange.Reconcile(records, last)

	byID := make(map[int64]models.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	for _, span := range spans {
		text, err := ix.ReadRange(span.Pages)
		if err != nil {
			return err
		}
		rec := byID[span.ID]
		trimmed, found := TrimBeforeTitle(text, rec.Title(), rec.DocNumber, e.cfg.StartThreshold)
		if !found {
			log.Printf("textextract: issue %s document %d: no title boundary, keeping full range", issue, span.ID)
		}
		if e.cfg.TrimEnd && found {
			// The document's own heading survives the start trim, so the
			// end boundary is the second heading from here.
			trimmed, _ = TrimAfterKeywords(trimmed, true, e.cfg.EndThreshold)
		}
		if err := e.store.UpdateLongText(ctx, span.ID, trimmed); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeAll runs the normalization pass over every document that already
// has long-form text, rewriting only the ones it changes.
func NormalizeAll(ctx context.Context, store types.TextStore) error {
	return store.LongTexts(ctx, func(id int64, text string) error {
		clean := Normalize(text)
		if clean == text {
			return nil
		}
		return store.UpdateLongText(ctx, id, clean)
	})
}
