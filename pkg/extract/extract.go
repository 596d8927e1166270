// Package extract turns raw result-table rows into document records and
// association edges. It is pure: all UI access happens before it runs.
package extract

import (
	"log"
	"regexp"
	"strconv"

	"github.com/rbenz/gazette/internal/models"
)

// Row-group markers of the result table. A row with the primary background
// color starts a new record; its trailing siblings describe the record until
// the next primary row.
const (
	primaryRowColor = "#78a7b9"
	targetCellColor = "#9ec7d7"
)

var (
	idPattern     = regexp.MustCompile(`#(\d+)`)
	openPattern   = regexp.MustCompile(`JoOpen\("(\d+)", *"(\d+)", *"(\d+)", *"([A-Za-z]+)"\)`)
	numberPattern = regexp.MustCompile(`رقم (\S+)`)
)

// PageResult is everything one result page yields.
type PageResult struct {
	Records      []models.Record
	Associations []models.Association
	// Skipped counts primary rows whose group had neither 3 nor 4
	// descriptive sub-rows and was dropped.
	Skipped int
}

// Page parses one snapshot of the result table. Category is stamped onto every
// record; it is the search partition, not something the rows repeat.
func Page(category string, rows []models.RawRow) PageResult {
	var res PageResult
	for start := 0; start < len(rows); start++ {
		if !isPrimary(rows[start]) {
			continue
		}
		end := start + 1
		for end < len(rows) && !isPrimary(rows[end]) {
			end++
		}
		rec, assocs, ok := parseGroup(category, rows[start], rows[start+1:end])
		if !ok {
			res.Skipped++
			start = end - 1
			continue
		}
		res.Records = append(res.Records, rec)
		res.Associations = append(res.Associations, assocs...)
		start = end - 1
	}
	return res
}

func isPrimary(row models.RawRow) bool {
	return row.BgColor == primaryRowColor
}

// parseGroup parses one primary row and its continuation rows. The sibling
// span carries two interleaved kinds of content: wide descriptive rows and
// association groups (a label row followed by marked target rows).
func parseGroup(category string, primary models.RawRow, siblings []models.RawRow) (models.Record, []models.Association, bool) {
	rec := models.Record{Category: category, DocType: category}

	if len(primary.Cells) < 2 {
		log.Printf("extract: primary row with %d cells, dropping record", len(primary.Cells))
		return rec, nil, false
	}
	m := idPattern.FindStringSubmatch(primary.Cells[0].Href)
	if m == nil {
		log.Printf("extract: primary row without record id, dropping record")
		return rec, nil, false
	}
	rec.ID, _ = strconv.ParseInt(m[1], 10, 64)

	issueYear := 0
	if m := openPattern.FindStringSubmatch(primary.Cells[1].Href); m != nil {
		issueYear = atoi(m[1])
		rec.IssueNumber = atoi(m[2])
		rec.StartPage = atoi(m[3])
	}

	var descriptive []string
	var assocs []models.Association
	open := models.Association{SourceID: rec.ID}

	for _, row := range siblings {
		switch {
		case len(row.Cells) > 0 && row.Cells[0].Colspan == 6:
			descriptive = append(descriptive, row.Cells[0].Text)

		case len(row.Cells) > 1 && row.Cells[1].Colspan == 5:
			if open.Label != "" {
				assocs = append(assocs, open)
			}
			open = models.Association{SourceID: rec.ID, Label: row.Cells[1].Text}

		case len(row.Cells) == 3 && row.Cells[0].Colspan == 2 && row.Cells[2].BgColor == targetCellColor:
			if m := idPattern.FindStringSubmatch(row.Cells[1].Href); m != nil {
				id, _ := strconv.ParseInt(m[1], 10, 64)
				open.TargetIDs = append(open.TargetIDs, id)
			}
		}
	}
	if open.Label != "" {
		assocs = append(assocs, open)
	}

	// 4 descriptive rows carry [title, authority, issue-ref, summary];
	// 3 rows mean the authority line is absent. Anything else is malformed
	// and the record is dropped, per the register's own quirks.
	switch len(descriptive) {
	case 4:
		parseTitle(&rec, descriptive[0])
		rec.Authority = descriptive[1]
		rec.IssueDate = parseDate(descriptive[2], issueYear)
		rec.Summary = descriptive[3]
	case 3:
		parseTitle(&rec, descriptive[0])
		rec.IssueDate = parseDate(descriptive[1], issueYear)
		rec.Summary = descriptive[2]
	default:
		log.Printf("extract: record %d has %d descriptive rows, dropping", rec.ID, len(descriptive))
		return rec, nil, false
	}

	return rec, assocs, true
}

// parseTitle pulls the document number and signature date out of the title row.
func parseTitle(rec *models.Record, title string) {
	if m := numberPattern.FindStringSubmatch(title); m != nil {
		rec.DocNumber = m[1]
	}
	rec.SignatureDate = parseDate(title, 0)
}
