package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	in := "عنوان\n\n\nفقرة أولى\n   \n42\nفقرة ثانية\n"
	out := Normalize(in)
	assert.Equal(t, "عنوان\nفقرة أولى\nفقرة ثانية", out)
}

func TestNormalizeDropsStandalonePageNumbers(t *testing.T) {
	out := Normalize("نص\n128\nتتمة")
	assert.Equal(t, "نص\nتتمة", out)
}

func TestNormalizeKeepsLinesWithDigitsAndText(t *testing.T) {
	out := Normalize("المادة 12 تنص على")
	assert.Equal(t, "المادة 12 تنص على", out)
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "عنوان\n\nفقرة\n7\n"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("  \n \n42\n"))
}
