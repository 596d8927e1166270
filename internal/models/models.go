package models

import (
	"fmt"
	"time"
)

// SentinelDate marks a date field that failed to parse. A record with an
// unreadable date is still stored; it must never abort page processing.
var SentinelDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Record is one catalogued gazette document. The ID is the register's own
// numeric identifier and is stable across runs.
type Record struct {
	ID            int64
	Category      string
	DocType       string
	DocNumber     string
	IssueDate     time.Time
	IssueNumber   int
	StartPage     int
	SignatureDate time.Time
	Authority     string
	Summary       string
	Sector        string
	LongText      string
	PageCorrected bool
}

// Title returns the heading expected at the start of the document's OCR text:
// "<type> رقم <number>" when the register carries a number, else just the type.
func (r Record) Title() string {
	if r.DocNumber != "" {
		return fmt.Sprintf("%s رقم %s", r.DocType, r.DocNumber)
	}
	return r.DocType
}

// Association links a source document to the ordered set of documents it
// amends, repeals or references under one label. Re-extraction replaces the
// target set wholesale.
type Association struct {
	SourceID  int64
	Label     string
	TargetIDs []int64
}

// Issue identifies one dated edition of the gazette.
type Issue struct {
	Year   int
	Number int
}

func (is Issue) String() string {
	return fmt.Sprintf("%d_%d", is.Year, is.Number)
}

// RawCell is one td of a result-table row as reported by the remote UI.
type RawCell struct {
	Colspan int    `json:"colspan"`
	BgColor string `json:"bgcolor"`
	Text    string `json:"text"`
	Href    string `json:"href"`
}

// RawRow is one tr of the result table, in document order. Rows carrying the
// primary background color open a new record group; everything until the next
// primary row belongs to the current group.
type RawRow struct {
	BgColor string    `json:"bgcolor"`
	Cells   []RawCell `json:"cells"`
}

// Pipeline stages tracked in the progress table.
const (
	StageRegister   = "register"
	StageSectors    = "sectors"
	StagePageFix    = "page_fix"
	StageExtraction = "text_extraction"
	StageNormalize  = "normalize"
)
