package textextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimBeforeTitle(t *testing.T) {
	text := strings.Join([]string{
		"الجمهورية الجزائرية الديمقراطية الشعبية",
		"الجريدة الرسمية",
		"مرسوم تنفيذي رقم 99-123 مؤرخ في 5 مايو 1999",
		"المادة الأولى",
	}, "\n")

	out, found := TrimBeforeTitle(text, "مرسوم تنفيذي رقم 99-123", "99-123", 0)
	require.True(t, found)
	assert.True(t, strings.HasPrefix(out, "مرسوم تنفيذي رقم 99-123"))
	assert.Contains(t, out, "المادة الأولى")
	assert.NotContains(t, out, "الجريدة الرسمية")
}

func TestTrimBeforeTitleToleratesOCRNoise(t *testing.T) {
	// One character mangled by OCR still scores above the threshold.
	text := "ترويسة\nمرسوم تنفيذي رفم 99-123 مؤرخ\nالنص"

	out, found := TrimBeforeTitle(text, "مرسوم تنفيذي رقم 99-123", "99-123", 0)
	require.True(t, found)
	assert.False(t, strings.HasPrefix(out, "ترويسة"))
}

// The fail-open guarantee: an undetectable boundary returns the input
// untouched, byte for byte.
func TestTrimBeforeTitleFailOpen(t *testing.T) {
	text := "سطر أول\nسطر ثان\nسطر ثالث"

	out, found := TrimBeforeTitle(text, "مرسوم تنفيذي رقم 99-123", "99-123", 0)
	assert.False(t, found)
	assert.Equal(t, text, out)
}

// A multi-part number requires its second component verbatim; a similar title
// with a different number must not match.
func TestTrimBeforeTitleNumberGate(t *testing.T) {
	text := strings.Join([]string{
		"مرسوم تنفيذي رقم 99-100 مؤرخ في 1 مايو 1999",
		"نص المرسوم الآخر",
		"مرسوم تنفيذي رقم 99-123 مؤرخ في 5 مايو 1999",
		"النص المطلوب",
	}, "\n")

	out, found := TrimBeforeTitle(text, "مرسوم تنفيذي رقم 99-123", "99-123", 0)
	require.True(t, found)
	assert.True(t, strings.HasPrefix(out, "مرسوم تنفيذي رقم 99-123"))
	assert.NotContains(t, out, "نص المرسوم الآخر")
}

func TestTrimBeforeTitleSingleComponentNumber(t *testing.T) {
	text := "ترويسة\nقانون رقم 12 مؤرخ في 3 يناير 1970\nالنص"

	out, found := TrimBeforeTitle(text, "قانون رقم 12", "12", 0)
	require.True(t, found)
	assert.True(t, strings.HasPrefix(out, "قانون رقم 12"))
}

func TestTrimAfterKeywordsFirstPageNeedsSecondHit(t *testing.T) {
	text := strings.Join([]string{
		"مرسوم تنفيذي رقم 99-123 مؤرخ في 5 مايو 1999",
		"المادة الأولى",
		"مرسوم تنفيذي رقم 99-124 مؤرخ في 6 مايو 1999",
		"نص المرسوم التالي",
	}, "\n")

	out, found := TrimAfterKeywords(text, true, 0)
	require.True(t, found)
	assert.Contains(t, out, "المادة الأولى")
	assert.NotContains(t, out, "99-124")
}

func TestTrimAfterKeywordsLaterPageCutsAtFirstHit(t *testing.T) {
	text := strings.Join([]string{
		"تتمة النص السابق",
		"قرار وزاري مشترك مؤرخ في 2 يونيو 1999",
		"نص القرار",
	}, "\n")

	out, found := TrimAfterKeywords(text, false, 0)
	require.True(t, found)
	assert.Equal(t, "تتمة النص السابق", out)
}

func TestTrimAfterKeywordsNoBoundary(t *testing.T) {
	text := "نص بلا عناوين\nمجرد فقرات"

	out, found := TrimAfterKeywords(text, false, 0)
	assert.False(t, found)
	assert.Equal(t, text, out)
}
