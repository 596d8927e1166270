// Package supervisor keeps category scrapes alive against a flaky remote UI.
// Any fault inside an attempt discards the whole browser session; the next
// attempt starts over with a fresh one. Page batches are idempotent, so a
// restart only re-reads pages, it never duplicates data.
package supervisor

import (
	"context"
	"log"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
	"github.com/rbenz/gazette/pkg/extract"
	"github.com/rbenz/gazette/pkg/paginate"
	"github.com/rbenz/gazette/pkg/worker"
)

// Policy shapes the retry loop of a single category.
type Policy struct {
	// Attempts caps retries per category; 0 retries forever. Default 0.
	Attempts uint

	// Delay is the fixed part of the pause between attempts. Default 3s.
	Delay time.Duration

	// MaxJitter is the random extra added to Delay. Default 7s.
	MaxJitter time.Duration
}

func (p *Policy) defaults() {
	if p.Delay == 0 {
		p.Delay = 3 * time.Second
	}
	if p.MaxJitter == 0 {
		p.MaxJitter = 7 * time.Second
	}
}

// Config wires a supervisor.
type Config struct {
	Policy   Policy
	Paginate paginate.Config

	// Workers bounds concurrent category scrapes. Default 3.
	Workers int

	// SectorMode stamps the search partition onto records as their sector
	// instead of their document type, and routes batches to the sector sink.
	SectorMode bool
}

// Supervisor drives categories to completion through restarts.
type Supervisor struct {
	cfg     Config
	factory types.SessionFactory
	sink    types.PageSink
}

func NewWithConfig(factory types.SessionFactory, sink types.PageSink, cfg Config) *Supervisor {
	cfg.Policy.defaults()
	if cfg.Workers == 0 {
		cfg.Workers = 3
	}
	return &Supervisor{cfg: cfg, factory: factory, sink: sink}
}

// RunCategory scrapes one category from the since date until its last result
// page is stored, restarting on every fault until it succeeds or ctx ends.
func (s *Supervisor) RunCategory(ctx context.Context, category string, since time.Time) error {
	attempt := 0
	return retry.Do(
		func() error {
			attempt++
			return s.runOnce(ctx, category, since)
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.Policy.Attempts),
		retry.Delay(s.cfg.Policy.Delay),
		retry.MaxJitter(s.cfg.Policy.MaxJitter),
		retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, err error) {
			log.Printf("supervisor: category %q attempt %d failed: %v; restarting with a fresh session", category, attempt, err)
		}),
	)
}

// runOnce is one attempt: a fresh session, the full page walk, one stored
// batch per page. The session never outlives the attempt.
func (s *Supervisor) runOnce(ctx context.Context, category string, since time.Time) error {
	client, err := s.factory(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	ctrl := paginate.New(client, s.cfg.Paginate)
	return ctrl.Run(ctx, category, since, func(pageIndex int, rows []models.RawRow) error {
		res := extract.Page(category, rows)
		if res.Skipped > 0 {
			log.Printf("supervisor: category %q page %d: skipped %d malformed records", category, pageIndex, res.Skipped)
		}
		if s.cfg.SectorMode {
			for i := range res.Records {
				res.Records[i].Sector = category
				res.Records[i].DocType = ""
			}
			return s.sink.StoreSectors(ctx, res.Records)
		}
		return s.sink.StorePage(ctx, res.Records, res.Associations)
	})
}

type categoryJob struct {
	sup      *Supervisor
	category string
	since    time.Time
}

func (j *categoryJob) Execute(ctx context.Context) error {
	return j.sup.RunCategory(ctx, j.category, j.since)
}

// RunAll scrapes every category concurrently on a fixed-size pool and returns
// the first category error, if any. One browser per worker.
func (s *Supervisor) RunAll(ctx context.Context, categories []string, since time.Time) error {
	pool := worker.NewPool(ctx, s.cfg.Workers)
	pool.Start()
	for _, c := range categories {
		pool.Submit(&categoryJob{sup: s, category: c, since: since})
	}
	errs := pool.Wait()
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
