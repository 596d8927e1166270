package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
	"github.com/rbenz/gazette/pkg/browser"
	"github.com/rbenz/gazette/pkg/config"
	"github.com/rbenz/gazette/pkg/pagefix"
	"github.com/rbenz/gazette/pkg/paginate"
	"github.com/rbenz/gazette/pkg/store"
	"github.com/rbenz/gazette/pkg/supervisor"
	"github.com/rbenz/gazette/pkg/textextract"
	"github.com/rbenz/gazette/server"
)

// sectorFieldCSS is the partition dropdown used by the sector pass; the
// default field partitions by document type instead.
const sectorFieldCSS = `select[name="zsec"]`

type cliConfig struct {
	Stage       string
	ConfigPath  string
	DBUrl       string
	Since       string
	ShowBrowser bool
}

func main() {
	var cli cliConfig
	flag.StringVar(&cli.Stage, "stage", "", "Pipeline stage: scrape, sectors, pagefix, extract, normalize or serve")
	flag.StringVar(&cli.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&cli.DBUrl, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&cli.Since, "since", "", "Override start date (dd/mm/yyyy) for scraping stages")
	flag.BoolVar(&cli.ShowBrowser, "show-browser", false, "Run the browser with a visible window")
	flag.Parse()

	if err := run(cli); err != nil {
		log.Fatal(err)
	}
}

func run(cli cliConfig) error {
	cfg, err := config.LoadConfig(cli.ConfigPath)
	if err != nil {
		return err
	}
	if cli.DBUrl != "" {
		cfg.Database.URL = cli.DBUrl
	}
	if cli.ShowBrowser {
		cfg.Browser.Show = true
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s", e.Error())
		}
		return fmt.Errorf("invalid configuration")
	}

	ctx := context.Background()

	db, err := store.NewWithConfig(ctx, store.Config{ConnString: cfg.Database.URL})
	if err != nil {
		return fmt.Errorf("failed to initialize store: %v", err)
	}
	defer db.Close()

	switch cli.Stage {
	case "scrape":
		return runScrape(ctx, cfg, db, models.StageRegister, false, cli.Since)
	case "sectors":
		return runScrape(ctx, cfg, db, models.StageSectors, true, cli.Since)
	case "pagefix":
		return runPageFix(ctx, cfg, db)
	case "extract":
		return runExtract(ctx, cfg, db)
	case "normalize":
		return runNormalize(ctx, db)
	case "serve":
		return server.New(cfg.Server.Addr, db).ListenAndServe()
	default:
		return fmt.Errorf("unknown stage %q", cli.Stage)
	}
}

func sessionFactory(cfg *config.Config, sectorMode bool) types.SessionFactory {
	browserCfg := browser.Config{
		BaseURL:         cfg.Register.BaseURL,
		PresenceTimeout: time.Duration(cfg.Browser.PresenceTimeoutSeconds) * time.Second,
		FormTimeout:     time.Duration(cfg.Browser.FormTimeoutSeconds) * time.Second,
		ShowBrowser:     cfg.Browser.Show,
	}
	if sectorMode {
		browserCfg.CategoryField = sectorFieldCSS
	}
	return func(ctx context.Context) (types.UIClient, error) {
		return browser.OpenSession(ctx, browserCfg)
	}
}

// runScrape walks every category of the chosen partition axis from the since
// date forward. The since date resumes from the stage watermark when one
// exists; a fully completed earlier run only re-reads what came after it.
func runScrape(ctx context.Context, cfg *config.Config, db *store.Store, stage string, sectorMode bool, sinceOverride string) error {
	since, err := sinceDate(ctx, cfg, db, stage, sinceOverride)
	if err != nil {
		return err
	}

	factory := sessionFactory(cfg, sectorMode)

	// One throwaway session just to enumerate the partition values.
	client, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to open bootstrap session: %v", err)
	}
	session, ok := client.(*browser.Session)
	if !ok {
		client.Close()
		return fmt.Errorf("bootstrap session has no category listing")
	}
	categories, err := session.Categories()
	client.Close()
	if err != nil {
		return fmt.Errorf("failed to list categories: %v", err)
	}

	color.Blue("Scraping %d categories since %s with %d workers\n",
		len(categories), since.Format("02/01/2006"), cfg.Register.Workers)

	sup := supervisor.NewWithConfig(factory, db, supervisor.Config{
		Workers:    cfg.Register.Workers,
		SectorMode: sectorMode,
		Paginate: paginate.Config{
			PageSize:      cfg.Register.PageSize,
			SearchTimeout: time.Duration(cfg.Browser.SearchTimeoutSeconds) * time.Second,
		},
	})
	if err := sup.RunAll(ctx, categories, since); err != nil {
		return err
	}

	color.Green("✓ All categories scraped\n")
	return db.SetWatermark(ctx, stage, today())
}

func runPageFix(ctx context.Context, cfg *config.Config, db *store.Store) error {
	spinner := getSpinner("Fixing page numbers against the archive index...")
	defer spinner.Finish()

	fixer := pagefix.NewWithConfig(db, pagefix.Config{
		BaseURL:   archiveBaseURL(cfg.Register.BaseURL),
		SinceYear: cfg.Archive.SinceYear,
	})
	if err := fixer.Run(ctx); err != nil {
		return err
	}

	color.Green("\n✓ Page numbers fixed\n")
	return db.SetWatermark(ctx, models.StagePageFix, today())
}

func runExtract(ctx context.Context, cfg *config.Config, db *store.Store) error {
	spinner := getSpinner("Reconstructing document texts...")
	defer spinner.Finish()

	enricher := textextract.NewEnricher(db, textextract.Config{
		ArchiveRoot:    cfg.Archive.Root,
		SinceYear:      cfg.Archive.SinceYear,
		StartThreshold: cfg.Extract.StartThreshold,
		TrimEnd:        cfg.Extract.TrimEnd,
		EndThreshold:   cfg.Extract.EndThreshold,
		Parallelism:    cfg.Extract.Parallelism,
	})
	if err := enricher.Run(ctx); err != nil {
		return err
	}

	color.Green("\n✓ Document texts reconstructed\n")
	return db.SetWatermark(ctx, models.StageExtraction, today())
}

func runNormalize(ctx context.Context, db *store.Store) error {
	if err := textextract.NormalizeAll(ctx, db); err != nil {
		return err
	}
	color.Green("✓ Long-form texts normalized\n")
	return db.SetWatermark(ctx, models.StageNormalize, today())
}

// sinceDate resolves the scrape start date: an explicit -since flag wins over
// the stage watermark, which wins over the configured default.
func sinceDate(ctx context.Context, cfg *config.Config, db *store.Store, stage, override string) (time.Time, error) {
	if override != "" {
		return time.Parse("02/01/2006", override)
	}
	mark, err := db.Watermark(ctx, stage)
	if err != nil {
		return time.Time{}, err
	}
	if !mark.IsZero() {
		return mark, nil
	}
	return time.Parse("02/01/2006", cfg.Register.SinceDate)
}

// archiveBaseURL strips the entry-page path off the register URL; the
// page-index crawl addresses the archive root directly.
func archiveBaseURL(registerURL string) string {
	u, err := url.Parse(registerURL)
	if err != nil {
		return registerURL
	}
	return u.Scheme + "://" + u.Host
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
