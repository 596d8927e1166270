// Package store persists documents, association edges and pipeline progress
// in Postgres. All writes are idempotent upserts keyed by the register's own
// identifiers, so any pipeline stage can be re-run safely.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rbenz/gazette/internal/models"
)

type Config struct {
	ConnString string
}

type Store struct {
	pool *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	s := &Store{pool: pool}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id BIGINT PRIMARY KEY,
			category TEXT NOT NULL DEFAULT '',
			doc_type TEXT NOT NULL DEFAULT '',
			doc_number TEXT NOT NULL DEFAULT '',
			issue_date DATE,
			issue_number INTEGER,
			start_page INTEGER,
			signature_date DATE,
			authority TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			sector TEXT NOT NULL DEFAULT '',
			long_text TEXT NOT NULL DEFAULT '',
			page_corrected BOOLEAN NOT NULL DEFAULT FALSE)`,
		`CREATE TABLE IF NOT EXISTS associations (
			source_id BIGINT NOT NULL,
			label TEXT NOT NULL,
			target_ids BIGINT[] NOT NULL DEFAULT '{}',
			PRIMARY KEY (source_id, label))`,
		`CREATE TABLE IF NOT EXISTS progress (
			stage TEXT PRIMARY KEY,
			watermark DATE NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS documents_issue_idx
			ON documents (issue_number, issue_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %v", err)
		}
	}
	return nil
}

// StorePage writes one result page's records and edges in a single
// transaction. Scraped metadata is overwritten on every re-sighting, but the
// fields owned by later stages (long_text, page_corrected, sector) are never
// touched here. On error the whole batch rolls back.
func (s *Store) StorePage(ctx context.Context, records []models.Record, assocs []models.Association) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	const upsertRecord = `
		INSERT INTO documents (id, category, doc_type, doc_number, issue_date,
			issue_number, start_page, signature_date, authority, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			doc_type = EXCLUDED.doc_type,
			doc_number = EXCLUDED.doc_number,
			issue_date = EXCLUDED.issue_date,
			issue_number = EXCLUDED.issue_number,
			start_page = EXCLUDED.start_page,
			signature_date = EXCLUDED.signature_date,
			authority = EXCLUDED.authority,
			summary = EXCLUDED.summary`

	for _, r := range records {
		_, err := tx.Exec(ctx, upsertRecord,
			r.ID, r.Category, r.DocType, r.DocNumber, r.IssueDate,
			r.IssueNumber, r.StartPage, r.SignatureDate, r.Authority, r.Summary)
		if err != nil {
			return fmt.Errorf("failed to upsert document %d: %v", r.ID, err)
		}
	}

	const upsertAssoc = `
		INSERT INTO associations (source_id, label, target_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id, label) DO UPDATE SET
			target_ids = EXCLUDED.target_ids`

	for _, a := range assocs {
		if _, err := tx.Exec(ctx, upsertAssoc, a.SourceID, a.Label, a.TargetIDs); err != nil {
			return fmt.Errorf("failed to upsert association (%d, %q): %v", a.SourceID, a.Label, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit page batch: %v", err)
	}
	return nil
}

// StoreSectors writes the sector pass for one page: existing documents get
// only their sector column updated; documents first sighted here are inserted
// whole. Metadata owned by the register pass is left alone on conflict.
func (s *Store) StoreSectors(ctx context.Context, records []models.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	const upsertSector = `
		INSERT INTO documents (id, category, doc_type, doc_number, issue_date,
			issue_number, start_page, signature_date, authority, summary, sector)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			sector = EXCLUDED.sector`

	for _, r := range records {
		_, err := tx.Exec(ctx, upsertSector,
			r.ID, r.Category, r.DocType, r.DocNumber, r.IssueDate,
			r.IssueNumber, r.StartPage, r.SignatureDate, r.Authority, r.Summary, r.Sector)
		if err != nil {
			return fmt.Errorf("failed to upsert sector for document %d: %v", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sector batch: %v", err)
	}
	return nil
}

// PageCorrected returns the issue's page-corrected documents whose starting
// page does not exceed maxPage, sorted ascending by starting page. Only these
// are trustworthy inputs for page-range reconciliation.
func (s *Store) PageCorrected(ctx context.Context, issue models.Issue, maxPage int) ([]models.Record, error) {
	const query = `
		SELECT id, category, doc_type, doc_number, issue_date, issue_number,
			start_page, signature_date, authority, summary, sector,
			long_text, page_corrected
		FROM documents
		WHERE issue_number = $1
			AND issue_date >= $2 AND issue_date <= $3
			AND page_corrected = TRUE
			AND start_page <= $4
		ORDER BY start_page, id`

	rows, err := s.pool.Query(ctx, query, issue.Number,
		fmt.Sprintf("%d-01-01", issue.Year), fmt.Sprintf("%d-12-31", issue.Year), maxPage)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrected documents: %v", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		err := rows.Scan(&r.ID, &r.Category, &r.DocType, &r.DocNumber, &r.IssueDate,
			&r.IssueNumber, &r.StartPage, &r.SignatureDate, &r.Authority, &r.Summary,
			&r.Sector, &r.LongText, &r.PageCorrected)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %v", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Issues lists the distinct issues sighted during extraction from the given
// year onward, ordered oldest first.
func (s *Store) Issues(ctx context.Context, sinceYear int) ([]models.Issue, error) {
	const query = `
		SELECT DISTINCT EXTRACT(YEAR FROM issue_date)::int, issue_number
		FROM documents
		WHERE issue_date IS NOT NULL
			AND issue_number IS NOT NULL
			AND EXTRACT(YEAR FROM issue_date) BETWEEN $1 AND 9000
		ORDER BY 1, 2`

	rows, err := s.pool.Query(ctx, query, sinceYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %v", err)
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		var is models.Issue
		if err := rows.Scan(&is.Year, &is.Number); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %v", err)
		}
		issues = append(issues, is)
	}
	return issues, rows.Err()
}

// UpdateLongText stores a document's reconstructed long-form text.
func (s *Store) UpdateLongText(ctx context.Context, id int64, text string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE documents SET long_text = $2 WHERE id = $1`, id, text)
	if err != nil {
		return fmt.Errorf("failed to update long text of document %d: %v", id, err)
	}
	return nil
}

// LongTexts streams every document that already has long-form text to fn.
func (s *Store) LongTexts(ctx context.Context, fn func(id int64, text string) error) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, long_text FROM documents WHERE long_text <> ''`)
	if err != nil {
		return fmt.Errorf("failed to query long texts: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return fmt.Errorf("failed to scan long text: %v", err)
		}
		if err := fn(id, text); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CorrectPages remaps an issue's printed page numbers to scan order. printed
// holds the page numbers as printed, in scan order: the document whose start
// page equals printed[i] really starts on scanned page i+1. Every remapped
// document is marked page-corrected. One transaction per issue.
func (s *Store) CorrectPages(ctx context.Context, issue models.Issue, printed []int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	const update = `
		UPDATE documents SET start_page = $4, page_corrected = TRUE
		WHERE issue_number = $1
			AND issue_date >= $2 AND issue_date <= $3
			AND start_page = $5
			AND page_corrected = FALSE`

	from := fmt.Sprintf("%d-01-01", issue.Year)
	to := fmt.Sprintf("%d-12-31", issue.Year)
	for i, p := range printed {
		if _, err := tx.Exec(ctx, update, issue.Number, from, to, i+1, p); err != nil {
			return fmt.Errorf("failed to correct page %d of issue %s: %v", p, issue, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit page correction: %v", err)
	}
	return nil
}

// MarkIssueCorrected flags every document of the issue as page-corrected
// without remapping; used when printed numbering already matches scan order.
func (s *Store) MarkIssueCorrected(ctx context.Context, issue models.Issue) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE documents SET page_corrected = TRUE
		WHERE issue_number = $1 AND issue_date >= $2 AND issue_date <= $3`,
		issue.Number, fmt.Sprintf("%d-01-01", issue.Year), fmt.Sprintf("%d-12-31", issue.Year))
	if err != nil {
		return fmt.Errorf("failed to mark issue %s corrected: %v", issue, err)
	}
	return nil
}

// Record fetches one document by id. Missing documents report pgx.ErrNoRows.
func (s *Store) Record(ctx context.Context, id int64) (models.Record, error) {
	var r models.Record
	err := s.pool.QueryRow(ctx, `
		SELECT id, category, doc_type, doc_number, issue_date, issue_number,
			start_page, signature_date, authority, summary, sector,
			long_text, page_corrected
		FROM documents WHERE id = $1`, id).
		Scan(&r.ID, &r.Category, &r.DocType, &r.DocNumber, &r.IssueDate,
			&r.IssueNumber, &r.StartPage, &r.SignatureDate, &r.Authority,
			&r.Summary, &r.Sector, &r.LongText, &r.PageCorrected)
	if err != nil {
		return r, fmt.Errorf("failed to load document %d: %w", id, err)
	}
	return r, nil
}

// Associations returns a source document's edges keyed by label.
func (s *Store) Associations(ctx context.Context, sourceID int64) (map[string][]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT label, target_ids FROM associations WHERE source_id = $1`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query associations: %v", err)
	}
	defer rows.Close()

	edges := make(map[string][]int64)
	for rows.Next() {
		var label string
		var targets []int64
		if err := rows.Scan(&label, &targets); err != nil {
			return nil, fmt.Errorf("failed to scan association: %v", err)
		}
		edges[label] = targets
	}
	return edges, rows.Err()
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
