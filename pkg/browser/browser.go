package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/rbenz/gazette/internal/models"
	"github.com/rbenz/gazette/internal/types"
)

// Fixed landmarks of the register UI. The site is frame-based and has been
// structurally stable for decades; these are part of its de-facto protocol.
const (
	titleFrameXPath    = `//frame[@src="ATitre.htm"]`
	searchFrameXPath   = `//frame[@name="FnCli"]`
	searchLinkXPath    = `/html/body/div/table[2]/tbody/tr/td[3]/a`
	searchButtonXPath  = `//a[contains(@title, "تشغيل البحث")]`
	settingsLinkXPath  = `/html/body/div/table[1]/tbody/tr/td[1]/a`
	settingsSendXPath  = `/html/body/div/form/table[2]/tbody/tr[1]/td/a`
	nextPageXPath      = `//a[@href="javascript:Sauter('a',3);"]`
	emptyResultsCSS    = `#tit`
	countMessageCSS    = `#tex`
	pageSizeFieldCSS   = `input[name="daff"]`
	sinceDateFieldCSS  = `input[name="znjd"]`
	defaultCategoryCSS = `select[name="znat"]`
)

var (
	countPattern      = regexp.MustCompile(`العدد (\d+)`)
	rangeStartPattern = regexp.MustCompile(`من (\d+) إلى`)
)

// Config configures one browser session against the register UI.
type Config struct {
	// BaseURL is the framed entry page of the register.
	BaseURL string

	// CategoryField is the CSS selector of the partition dropdown. The
	// default targets the document-type field; the sector pass overrides it.
	CategoryField string

	// PresenceTimeout bounds simple element-presence checks. Default 10s.
	PresenceTimeout time.Duration

	// FormTimeout bounds form interactions (select, input, click). Default 60s.
	FormTimeout time.Duration

	// ShowBrowser disables headless mode for local debugging.
	ShowBrowser bool
}

func (c *Config) defaults() {
	if c.CategoryField == "" {
		c.CategoryField = defaultCategoryCSS
	}
	if c.PresenceTimeout == 0 {
		c.PresenceTimeout = 10 * time.Second
	}
	if c.FormTimeout == 0 {
		c.FormTimeout = 60 * time.Second
	}
}

// NavigationError is a failed step against the remote UI: a timeout or an
// expected element that was absent. It is fatal to the whole session.
type NavigationError struct {
	Step string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed at %s: %v", e.Step, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func navErr(step string, err error) error {
	return &NavigationError{Step: step, Err: err}
}

// Session owns one headless browser and the result frame of the register UI.
// It is not safe for concurrent use; each worker owns exactly one session.
type Session struct {
	cfg     Config
	lnch    *launcher.Launcher
	browser *rod.Browser
	results *rod.Page
}

// OpenSession launches a browser, loads the register's entry page and
// navigates the frame chain down to the search form.
func OpenSession(ctx context.Context, cfg Config) (*Session, error) {
	cfg.defaults()

	l := launcher.New().Headless(!cfg.ShowBrowser).Set("disable-gpu")
	wsURL, err := l.Launch()
	if err != nil {
		return nil, navErr("launch", err)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, navErr("connect", err)
	}

	s := &Session{cfg: cfg, lnch: l, browser: b}

	page, err := b.Page(proto.TargetCreateTarget{URL: cfg.BaseURL})
	if err != nil {
		s.Close()
		return nil, navErr("open entry page", err)
	}
	if err := page.Timeout(cfg.FormTimeout).WaitLoad(); err != nil {
		s.Close()
		return nil, navErr("load entry page", err)
	}

	// The entry page is a frameset: the title frame carries the link into the
	// search form, which lives in its own named frame.
	titleFrame, err := s.frame(page, titleFrameXPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	link, err := titleFrame.Timeout(cfg.FormTimeout).ElementX(searchLinkXPath)
	if err != nil {
		s.Close()
		return nil, navErr("find search link", err)
	}
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.Close()
		return nil, navErr("click search link", err)
	}

	results, err := s.frame(page, searchFrameXPath)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.results = results

	return s, nil
}

func (s *Session) frame(page *rod.Page, xpath string) (*rod.Page, error) {
	el, err := page.Timeout(s.cfg.FormTimeout).ElementX(xpath)
	if err != nil {
		return nil, navErr("find frame "+xpath, err)
	}
	f, err := el.Frame()
	if err != nil {
		return nil, navErr("enter frame "+xpath, err)
	}
	return f, nil
}

// SubmitSearch selects the category, fills the since-date field and fires the
// search. The result count is not available until the caller has observed
// ResultsReady and requested a page size.
func (s *Session) SubmitSearch(category string, since time.Time) error {
	sel, err := s.results.Timeout(s.cfg.FormTimeout).Element(s.cfg.CategoryField)
	if err != nil {
		return navErr("find category select", err)
	}
	if err := sel.Select([]string{category}, true, rod.SelectorTypeText); err != nil {
		return navErr("select category", err)
	}

	date, err := s.results.Timeout(s.cfg.FormTimeout).Element(sinceDateFieldCSS)
	if err != nil {
		return navErr("find since-date field", err)
	}
	if err := date.SelectAllText(); err != nil {
		return navErr("clear since-date field", err)
	}
	if err := date.Input(since.Format("02/01/2006")); err != nil {
		return navErr("fill since-date field", err)
	}

	btn, err := s.results.Timeout(s.cfg.FormTimeout).ElementX(searchButtonXPath)
	if err != nil {
		return navErr("find search button", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return navErr("click search button", err)
	}
	return nil
}

// ProbeResults is a single non-blocking check of the result frame. The
// pagination controller polls it; search execution can take minutes.
func (s *Session) ProbeResults() (types.ResultState, error) {
	empty, _, err := s.results.Has(emptyResultsCSS)
	if err != nil {
		return types.ResultsNotReady, navErr("probe empty marker", err)
	}
	if empty {
		return types.ResultsEmpty, nil
	}
	ready, _, err := s.results.HasX(settingsLinkXPath)
	if err != nil {
		return types.ResultsNotReady, navErr("probe settings link", err)
	}
	if ready {
		return types.ResultsReady, nil
	}
	return types.ResultsNotReady, nil
}

// SetPageSize opens the display settings and requests n records per page.
func (s *Session) SetPageSize(n int) error {
	link, err := s.results.Timeout(s.cfg.FormTimeout).ElementX(settingsLinkXPath)
	if err != nil {
		return navErr("find settings link", err)
	}
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return navErr("open display settings", err)
	}

	field, err := s.results.Timeout(s.cfg.FormTimeout).Element(pageSizeFieldCSS)
	if err != nil {
		return navErr("find page-size field", err)
	}
	if err := field.SelectAllText(); err != nil {
		return navErr("clear page-size field", err)
	}
	if err := field.Input(strconv.Itoa(n)); err != nil {
		return navErr("fill page-size field", err)
	}

	send, err := s.results.Timeout(s.cfg.FormTimeout).ElementX(settingsSendXPath)
	if err != nil {
		return navErr("find settings send link", err)
	}
	if err := send.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return navErr("apply display settings", err)
	}
	return nil
}

// ResultCount reads the total number of matching records from the count
// message above the result table.
func (s *Session) ResultCount() (int, error) {
	text, err := s.countMessage(s.cfg.FormTimeout)
	if err != nil {
		return 0, err
	}
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, navErr("parse result count", fmt.Errorf("no count in %q", text))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, navErr("parse result count", err)
	}
	return n, nil
}

// RangeStart reads the first-row ordinal the UI reports for the current page
// ("from <n> to ..."). The controller uses it to verify page transitions.
func (s *Session) RangeStart() (int, error) {
	text, err := s.countMessage(s.cfg.PresenceTimeout)
	if err != nil {
		return 0, err
	}
	m := rangeStartPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, navErr("parse range start", fmt.Errorf("no range in %q", text))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, navErr("parse range start", err)
	}
	return n, nil
}

func (s *Session) countMessage(timeout time.Duration) (string, error) {
	el, err := s.results.Timeout(timeout).Element(countMessageCSS)
	if err != nil {
		return "", navErr("find count message", err)
	}
	text, err := el.Text()
	if err != nil {
		return "", navErr("read count message", err)
	}
	return text, nil
}

// readRowsJS serialises every result-table row in document order. Grouping a
// primary row with its trailing siblings is left to the extractor, which only
// needs colspans, background colors, cell text and link targets.
const readRowsJS = `() => {
	const rows = Array.from(document.querySelectorAll("tr"));
	return JSON.stringify(rows.map(tr => ({
		bgcolor: tr.getAttribute("bgcolor") || "",
		cells: Array.from(tr.querySelectorAll("td")).map(td => {
			const font = td.querySelector("font");
			const a = td.querySelector("a");
			return {
				colspan: parseInt(td.getAttribute("colspan") || "1", 10),
				bgcolor: td.getAttribute("bgcolor") || "",
				text: (font ? font.textContent : td.textContent) || "",
				href: a ? (a.getAttribute("href") || "") : "",
			};
		}),
	})));
}`

// ReadRows snapshots the current result page.
func (s *Session) ReadRows() ([]models.RawRow, error) {
	res, err := s.results.Timeout(s.cfg.FormTimeout).Eval(readRowsJS)
	if err != nil {
		return nil, navErr("read result rows", err)
	}
	var rows []models.RawRow
	if err := json.Unmarshal([]byte(res.Value.Str()), &rows); err != nil {
		return nil, navErr("decode result rows", err)
	}
	return rows, nil
}

// AdvancePage clicks the next-page link. The caller must verify the reported
// range start before trusting the new page.
func (s *Session) AdvancePage() error {
	link, err := s.results.Timeout(s.cfg.FormTimeout).ElementX(nextPageXPath)
	if err != nil {
		return navErr("find next-page link", err)
	}
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return navErr("click next-page link", err)
	}
	return nil
}

// Categories returns the values of the partition dropdown, minus the blank
// first option. Used once at startup to enumerate worker partitions.
func (s *Session) Categories() ([]string, error) {
	sel, err := s.results.Timeout(s.cfg.FormTimeout).Element(s.cfg.CategoryField)
	if err != nil {
		return nil, navErr("find category select", err)
	}
	res, err := sel.Eval(`() => JSON.stringify(Array.from(this.options).map(o => o.text))`)
	if err != nil {
		return nil, navErr("read category options", err)
	}
	var all []string
	if err := json.Unmarshal([]byte(res.Value.Str()), &all); err != nil {
		return nil, navErr("decode category options", err)
	}
	if len(all) > 0 {
		all = all[1:]
	}
	return all, nil
}

// Close tears the whole session down. Safe to call more than once.
func (s *Session) Close() error {
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return nil
}
