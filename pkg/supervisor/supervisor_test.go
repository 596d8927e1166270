package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
	"github.com/rbenz/gazette/pkg/paginate"
)

// fakeRegister simulates the remote UI for a fixed set of record ids, two
// result pages of two records each.
type fakeRegister struct {
	ids      [][]int64
	pageSize int
	page     int
}

func rowsFor(ids []int64) []models.RawRow {
	var rows []models.RawRow
	for _, id := range ids {
		rows = append(rows,
			models.RawRow{
				BgColor: "#78a7b9",
				Cells: []models.RawCell{
					{Href: fmt.Sprintf("#%d", id)},
					{Href: fmt.Sprintf(`javascript:JoOpen("1999", "45", "%d", "A")`, id)},
				},
			},
			models.RawRow{Cells: []models.RawCell{{Colspan: 6, Text: fmt.Sprintf("قرار رقم 99-%d مؤرخ في 5 مايو 1999", id)}}},
			models.RawRow{Cells: []models.RawCell{{Colspan: 6, Text: "الجريدة الرسمية المؤرخة في 12 مايو 1999"}}},
			models.RawRow{Cells: []models.RawCell{{Colspan: 6, Text: "ملخص"}}},
		)
	}
	return rows
}

func (f *fakeRegister) SubmitSearch(string, time.Time) error { f.page = 0; return nil }
func (f *fakeRegister) ProbeResults() (types.ResultState, error) {
	return types.ResultsReady, nil
}
func (f *fakeRegister) SetPageSize(n int) error { f.pageSize = n; return nil }
func (f *fakeRegister) ResultCount() (int, error) {
	total := 0
	for _, p := range f.ids {
		total += len(p)
	}
	return total, nil
}
func (f *fakeRegister) ReadRows() ([]models.RawRow, error) {
	if f.page >= len(f.ids) {
		return nil, nil
	}
	return rowsFor(f.ids[f.page]), nil
}
func (f *fakeRegister) RangeStart() (int, error) { return f.page*f.pageSize + 1, nil }
func (f *fakeRegister) AdvancePage() error { f.page++; return nil }
func (f *fakeRegister) Close() error { return nil }

// flakySink stores batches atomically and fails the nth StorePage call.
type flakySink struct {
	mu      sync.Mutex
	records map[int64]models.Record
	calls   int
	failOn  int
}

func newFlakySink(failOn int) *flakySink {
	return &flakySink{records: make(map[int64]models.Record), failOn: failOn}
}

func (s *flakySink) StorePage(_ context.Context, records []models.Record, _ []models.Association) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == s.failOn {
		return errors.New("transaction rolled back")
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *flakySink) StoreSectors(_ context.Context, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		existing := s.records[r.ID]
		existing.ID = r.ID
		existing.Sector = r.Sector
		s.records[r.ID] = existing
	}
	return nil
}

func (s *flakySink) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}

func testConfig() Config {
	return Config{
		Policy:   Policy{Attempts: 5, Delay: time.Millisecond, MaxJitter: time.Millisecond},
		Paginate: paginate.Config{PageSize: 2, PollInterval: time.Millisecond},
	}
}

func factoryFor(ids [][]int64) types.SessionFactory {
	return func(context.Context) (types.UIClient, error) {
		return &fakeRegister{ids: ids}, nil
	}
}

func TestRunCategoryCleanRun(t *testing.T) {
	ids := [][]int64{{1, 2}, {3, 4}}
	sink := newFlakySink(0)
	sup := NewWithConfig(factoryFor(ids), sink, testConfig())

	err := sup.RunCategory(context.Background(), "قرار", time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, sink.ids())
}

// A fault mid-walk discards the session and restarts from page 0; because
// batches are idempotent the final state matches an uninterrupted run.
func TestRunCategoryRestartAfterMidWalkFault(t *testing.T) {
	ids := [][]int64{{1, 2}, {3, 4}}

	// First attempt fails while storing page 1.
	sink := newFlakySink(2)
	sup := NewWithConfig(factoryFor(ids), sink, testConfig())
	err := sup.RunCategory(context.Background(), "قرار", time.Now())
	require.NoError(t, err)

	clean := newFlakySink(0)
	cleanSup := NewWithConfig(factoryFor(ids), clean, testConfig())
	require.NoError(t, cleanSup.RunCategory(context.Background(), "قرار", time.Now()))

	assert.ElementsMatch(t, clean.ids(), sink.ids())
}

func TestRunCategoryGivesUpAfterAttempts(t *testing.T) {
	sink := newFlakySink(0)
	cfg := testConfig()
	cfg.Policy.Attempts = 2

	attempts := 0
	factory := func(context.Context) (types.UIClient, error) {
		attempts++
		return nil, errors.New("browser did not start")
	}
	sup := NewWithConfig(factory, sink, cfg)

	err := sup.RunCategory(context.Background(), "قرار", time.Now())
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRunCategorySectorMode(t *testing.T) {
	ids := [][]int64{{7, 8}}
	sink := newFlakySink(0)
	cfg := testConfig()
	cfg.SectorMode = true
	sup := NewWithConfig(factoryFor(ids), sink, cfg)

	err := sup.RunCategory(context.Background(), "الفلاحة", time.Now())
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.records, 2)
	for _, r := range sink.records {
		assert.Equal(t, "الفلاحة", r.Sector)
	}
}

func TestRunAllCoversEveryCategory(t *testing.T) {
	ids := [][]int64{{1, 2}, {3, 4}}
	sink := newFlakySink(0)
	sup := NewWithConfig(factoryFor(ids), sink, testConfig())

	err := sup.RunAll(context.Background(), []string{"أمر", "قرار", "مرسوم"}, time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, sink.ids())
}
