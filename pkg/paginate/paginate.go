// Package paginate drives a UI session through every result page of one
// search. It owns the two correctness guards of the walk: results are not
// read before the UI reports them ready, and a page transition is not trusted
// until the UI's reported first-row ordinal matches the expected offset.
package paginate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
)

// PageFunc consumes one result page. Returning an error aborts the walk.
type PageFunc func(pageIndex int, rows []models.RawRow) error

// Config tunes the controller. Zero values take the deployment defaults.
type Config struct {
	// PageSize is the number of records requested per page. Default 200.
	PageSize int

	// SearchTimeout bounds search execution and page transitions, the two
	// slowest operations of the remote UI. Default 180s.
	SearchTimeout time.Duration

	// PollInterval is the probe cadence while waiting. Default 2s.
	PollInterval time.Duration
}

func (c *Config) defaults() {
	if c.PageSize == 0 {
		c.PageSize = 200
	}
	if c.SearchTimeout == 0 {
		c.SearchTimeout = 180 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 2 * time.Second
	}
}

// Controller walks the result pages of one submitted search.
type Controller struct {
	cfg    Config
	client types.UIClient
}

func New(client types.UIClient, cfg Config) *Controller {
	cfg.defaults()
	return &Controller{cfg: cfg, client: client}
}

// Run submits the search and feeds every page to fn in order. It returns nil
// when the last page has been processed, or when the search matched nothing.
func (c *Controller) Run(ctx context.Context, category string, since time.Time, fn PageFunc) error {
	if err := c.client.SubmitSearch(category, since); err != nil {
		return err
	}

	state, err := c.waitResults(ctx)
	if err != nil {
		return err
	}
	if state == types.ResultsEmpty {
		log.Printf("paginate: no results for category %q since %s", category, since.Format("2006-01-02"))
		return nil
	}

	if err := c.client.SetPageSize(c.cfg.PageSize); err != nil {
		return err
	}
	count, err := c.client.ResultCount()
	if err != nil {
		return err
	}
	pageCount := count / c.cfg.PageSize
	log.Printf("paginate: category %q has %d records over pages 0..%d", category, count, pageCount)

	for i := 0; i <= pageCount; i++ {
		rows, err := c.client.ReadRows()
		if err != nil {
			return err
		}
		if err := fn(i, rows); err != nil {
			return err
		}
		if i == pageCount {
			break
		}
		if err := c.client.AdvancePage(); err != nil {
			return err
		}
		if err := c.waitOffset(ctx, (i+1)*c.cfg.PageSize+1); err != nil {
			return err
		}
	}
	return nil
}

// waitResults polls the result frame until the UI reports either an empty
// result set or a ready first page.
func (c *Controller) waitResults(ctx context.Context) (types.ResultState, error) {
	deadline := time.Now().Add(c.cfg.SearchTimeout)
	for {
		state, err := c.client.ProbeResults()
		if err != nil {
			return types.ResultsNotReady, err
		}
		if state != types.ResultsNotReady {
			return state, nil
		}
		if time.Now().After(deadline) {
			return types.ResultsNotReady, fmt.Errorf("search results not ready after %s", c.cfg.SearchTimeout)
		}
		select {
		case <-ctx.Done():
			return types.ResultsNotReady, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// waitOffset polls the UI's reported range start until it equals the expected
// first-row ordinal of the freshly requested page. A mismatch is treated as a
// transient rendering state, never as a cue to advance; the cursor only moves
// once the ordinal confirms the page.
func (c *Controller) waitOffset(ctx context.Context, expected int) error {
	deadline := time.Now().Add(c.cfg.SearchTimeout)
	for {
		start, err := c.client.RangeStart()
		if err == nil && start == expected {
			return nil
		}
		if err == nil {
			log.Printf("paginate: reported range start %d, expected %d; waiting", start, expected)
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return fmt.Errorf("page offset %d not confirmed after %s", expected, c.cfg.SearchTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}
