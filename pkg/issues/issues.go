// Package issues reads the on-disk OCR archive. Each issue is a directory of
// one text file per scanned page, named by scan-order page number.
package issues

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rbenz/gazette/internal/models"
)

var pageFilePattern = regexp.MustCompile(`^(\d+)\.txt$`)

// Index is one issue directory and its available page numbers, ascending.
type Index struct {
	Dir   string
	Pages []int
}

// IssueDir maps an issue to its directory under the archive root.
func IssueDir(root string, issue models.Issue) string {
	return filepath.Join(root, strconv.Itoa(issue.Year), issue.String())
}

// Load indexes an issue directory. Files that are not numbered page text,
// and a stray page zero, are ignored.
func Load(root string, issue models.Issue) (*Index, error) {
	dir := IssueDir(root, issue)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue directory %s: %w", dir, err)
	}

	var pages []int
	for _, e := range entries {
		m := pageFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return &Index{Dir: dir, Pages: pages}, nil
}

// LastPage is the highest scanned page, or 0 for an empty issue.
func (ix *Index) LastPage() int {
	if len(ix.Pages) == 0 {
		return 0
	}
	return ix.Pages[len(ix.Pages)-1]
}

// ReadPage returns one page's OCR text.
func (ix *Index) ReadPage(n int) (string, error) {
	b, err := os.ReadFile(filepath.Join(ix.Dir, fmt.Sprintf("%d.txt", n)))
	if err != nil {
		return "", fmt.Errorf("failed to read page %d: %w", n, err)
	}
	return string(b), nil
}

// ReadRange concatenates the given pages in order. Pages missing from the
// archive are skipped; OCR batches have holes and a hole must not sink the
// whole document.
func (ix *Index) ReadRange(pages []int) (string, error) {
	var sb strings.Builder
	for _, n := range pages {
		text, err := ix.ReadPage(n)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
