package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestIsAdHost(t *testing.T) {
	t.Parallel()
	assert.True(t, isAdHost("doubleclick.net"))
	assert.True(t, isAdHost("static.DoubleClick.net"))
	assert.True(t, isAdHost("pagead2.googlesyndication.com"))
	assert.False(t, isAdHost("www.youtube.com"))
	assert.False(t, isAdHost("i.ytimg.com"))
	assert.False(t, isAdHost(""))
}

func TestBlockedTypeSet(t *testing.T) {
	t.Parallel()
	got := blockedTypeSet([]string{"Font", "Media", "Script", "bogus"})
	assert.Len(t, got, 2)
	assert.Contains(t, got, proto.NetworkResourceTypeFont)
	assert.Contains(t, got, proto.NetworkResourceTypeMedia)
}
