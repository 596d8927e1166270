package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountPattern(t *testing.T) {
	m := countPattern.FindStringSubmatch("نتائج البحث : العدد 4521")
	require.NotNil(t, m)
	assert.Equal(t, "4521", m[1])
}

func TestRangeStartPattern(t *testing.T) {
	m := rangeStartPattern.FindStringSubmatch("من 201 إلى 400")
	require.NotNil(t, m)
	assert.Equal(t, "201", m[1])
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()

	assert.Equal(t, defaultCategoryCSS, cfg.CategoryField)
	assert.Equal(t, 10*time.Second, cfg.PresenceTimeout)
	assert.Equal(t, 60*time.Second, cfg.FormTimeout)
}

func TestNavigationErrorUnwrap(t *testing.T) {
	cause := errors.New("element not found")
	err := navErr("find search link", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "find search link")
}
