package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbenz/gazette/internal/models"
)

// Integration tests run against a throwaway database when TEST_DATABASE_URL
// is set, e.g. postgres://localhost:5432/gazette_test.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewWithConfig(context.Background(), Config{ConnString: url})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	// Tests own the 900000+ id range.
	ctx := context.Background()
	_, err = s.pool.Exec(ctx, `DELETE FROM associations WHERE source_id >= 900000`)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `DELETE FROM documents WHERE id >= 900000`)
	require.NoError(t, err)
	return s
}

func sampleRecord(id int64) models.Record {
	return models.Record{
		ID:            id,
		Category:      "مرسوم",
		DocType:       "مرسوم",
		DocNumber:     "99-1",
		IssueDate:     time.Date(1999, time.May, 12, 0, 0, 0, 0, time.UTC),
		IssueNumber:   45,
		StartPage:     int(id),
		SignatureDate: time.Date(1999, time.May, 5, 0, 0, 0, 0, time.UTC),
		Authority:     "وزارة العدل",
		Summary:       "ملخص",
	}
}

func TestStorePageIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := sampleRecord(900001)

	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, nil))
	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, nil))

	got, err := s.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Summary, got.Summary)
	assert.Equal(t, rec.IssueNumber, got.IssueNumber)
}

func TestStorePagePreservesEnrichedFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := sampleRecord(900002)

	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, nil))
	require.NoError(t, s.UpdateLongText(ctx, rec.ID, "النص الكامل"))

	// A re-sighting overwrites metadata but never the enriched fields.
	rec.Summary = "ملخص محدث"
	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, nil))

	got, err := s.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "ملخص محدث", got.Summary)
	assert.Equal(t, "النص الكامل", got.LongText)
}

func TestAssociationsReplaceNotMerge(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := sampleRecord(900003)

	edge := models.Association{SourceID: rec.ID, Label: "يعدل", TargetIDs: []int64{1, 2}}
	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, []models.Association{edge}))

	edge.TargetIDs = []int64{3}
	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, []models.Association{edge}))

	edges, err := s.Associations(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, edges["يعدل"])
}

func TestStoreSectorsOnlyTouchesSector(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := sampleRecord(900004)
	require.NoError(t, s.StorePage(ctx, []models.Record{rec}, nil))

	sectored := rec
	sectored.Sector = "العدالة"
	sectored.Summary = "يجب ألا يظهر"
	require.NoError(t, s.StoreSectors(ctx, []models.Record{sectored}))

	got, err := s.Record(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "العدالة", got.Sector)
	assert.Equal(t, rec.Summary, got.Summary)
}

func TestCorrectPagesRemapsAndFlags(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	issue := models.Issue{Year: 1999, Number: 45}

	a := sampleRecord(900005)
	a.StartPage = 243
	b := sampleRecord(900006)
	b.StartPage = 245
	require.NoError(t, s.StorePage(ctx, []models.Record{a, b}, nil))

	require.NoError(t, s.CorrectPages(ctx, issue, []int{243, 244, 245}))

	got, err := s.Record(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StartPage)
	assert.True(t, got.PageCorrected)

	got, err = s.Record(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StartPage)
	assert.True(t, got.PageCorrected)
}

func TestWatermarks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mark, err := s.Watermark(ctx, "never_set")
	require.NoError(t, err)
	assert.True(t, mark.IsZero())

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetWatermark(ctx, models.StageRegister, day))

	mark, err = s.Watermark(ctx, models.StageRegister)
	require.NoError(t, err)
	assert.True(t, day.Equal(mark))

	all, err := s.Watermarks(ctx)
	require.NoError(t, err)
	assert.True(t, day.Equal(all[models.StageRegister]))
}
