package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHeadersMap(t *testing.T) {
	t.Parallel()
	m := toHeadersMap(map[string]string{"Accept-Language": "en-US"})
	require.Contains(t, m, "Accept-Language")
	assert.Equal(t, "en-US", m["Accept-Language"].Str())
}
