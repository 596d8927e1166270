// Package pagefix verifies document start pages against the gazette's own
// per-issue page index and remaps printed page numbers to scan order. Issues
// from 2000 on are printed with scan-order numbering already; older issues
// carry the original print numbering and need the remap before page-range
// reconciliation can trust them.
package pagefix

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
)

// The archive splits pre-2000 issues across two collections by year band.
const (
	collection6283 = "Jo6283"
	collection8499 = "Jo8499"
)

type Config struct {
	// BaseURL is the archive root, without a trailing slash.
	BaseURL string

	// CurrentYear is the newest year to walk. Defaults to the wall clock.
	CurrentYear int

	// SinceYear is the oldest year to walk. Default 1964.
	SinceYear int

	// RequestsPerSecond throttles the crawl. Default 2.
	RequestsPerSecond float64

	// Client is the HTTP client. Default has a 30s timeout.
	Client *http.Client
}

func (c *Config) defaults() {
	if c.CurrentYear == 0 {
		c.CurrentYear = time.Now().Year()
	}
	if c.SinceYear == 0 {
		c.SinceYear = 1964
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 2
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
}

// Fixer crawls the archive's issue indexes and corrects start pages.
type Fixer struct {
	cfg     Config
	store   types.PageCorrector
	limiter *rate.Limiter
}

func NewWithConfig(store types.PageCorrector, cfg Config) *Fixer {
	cfg.defaults()
	return &Fixer{
		cfg:     cfg,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Run walks every year from CurrentYear down to SinceYear, lists the year's
// issue numbers and corrects each issue. A year that fails to list is logged
// and skipped so one bad index page cannot stall the whole pass.
func (f *Fixer) Run(ctx context.Context) error {
	for year := f.cfg.CurrentYear; year >= f.cfg.SinceYear; year-- {
		numbers, err := f.issueNumbers(ctx, year)
		if err != nil {
			log.Printf("pagefix: failed to list issues of %d: %v", year, err)
			continue
		}
		for _, number := range numbers {
			issue := models.Issue{Year: year, Number: number}
			if err := f.fixIssue(ctx, issue); err != nil {
				return fmt.Errorf("failed to fix issue %s: %v", issue, err)
			}
		}
	}
	return nil
}

// issueNumbers scrapes the year's index page for its issue dropdown.
func (f *Fixer) issueNumbers(ctx context.Context, year int) ([]int, error) {
	doc, err := f.fetch(ctx, fmt.Sprintf("%s/JRN/ZA%d.htm", f.cfg.BaseURL, year))
	if err != nil {
		return nil, err
	}

	var numbers []int
	doc.Find(`form[name="zFrm2"] select[name="znjo"] option[value]`).Each(func(_ int, sel *goquery.Selection) {
		value, _ := sel.Attr("value")
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil && n > 0 {
			numbers = append(numbers, n)
		}
	})
	return numbers, nil
}

// fixIssue corrects one issue. Modern issues only need the flag; older ones
// get their page index fetched and compared against scan order.
func (f *Fixer) fixIssue(ctx context.Context, issue models.Issue) error {
	if issue.Year >= 2000 {
		return f.store.MarkIssueCorrected(ctx, issue)
	}

	printed, err := f.printedPages(ctx, issue)
	if err != nil {
		return err
	}
	if len(printed) == 0 || printed[0] == 1 {
		// Print numbering already matches scan order.
		return f.store.MarkIssueCorrected(ctx, issue)
	}
	return f.store.CorrectPages(ctx, issue, printed)
}

// printedPages fetches the issue's page index: one table row per scanned
// page, in scan order, carrying the page number as printed. The leading
// header row is dropped.
func (f *Fixer) printedPages(ctx context.Context, issue models.Issue) ([]int, error) {
	collection := collection8499
	if issue.Year <= 1983 {
		collection = collection6283
	}
	url := fmt.Sprintf("%s/%s/%d/%03d/A_Pag1.htm",
		f.cfg.BaseURL, collection, issue.Year, issue.Number)

	doc, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var printed []int
	doc.Find("tr").Each(func(i int, sel *goquery.Selection) {
		if i == 0 {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
		if err == nil {
			printed = append(printed, n)
		}
	})
	return printed, nil
}

func (f *Fixer) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", url, err)
	}
	return doc, nil
}
