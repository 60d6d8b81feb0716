package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "PCL Solar wins contract", NormalizeWhitespace("  PCL\tSolar \n wins   contract "))
	assert.Equal(t, "", NormalizeWhitespace(" \n\t "))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", TruncateRunes("short", 10))
	assert.Equal(t, "abcd...", TruncateRunes("abcdefghij", 7))
	assert.Equal(t, "ab", TruncateRunes("abcdef", 2))
	assert.Equal(t, "日本...", TruncateRunes("日本語のテキスト", 5))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty())
}

func TestBuildHeaders(t *testing.T) {
	h := BuildHeaders(map[string]string{"User-Agent": "Mozilla/5.0", "X-Api-Key": "k"})

	assert.Equal(t, "Mozilla/5.0", h.Get("User-Agent"))
	assert.Equal(t, "k", h.Get("X-Api-Key"))
	assert.NotEmpty(t, h.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, BuildHeaders(nil).Get("User-Agent"))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"absolute", "https://a.com", "https://b.com/x", "https://b.com/x"},
		{"root relative", "https://canada.constructconnect.com", "/dcn/news/1", "https://canada.constructconnect.com/dcn/news/1"},
		{"path relative", "https://www.renewcanada.net/news/", "item-2", "https://www.renewcanada.net/news/item-2"},
		{"empty", "https://a.com", "  ", ""},
		{"bad base", "not a url", "x", "not a url/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveURL(tt.base, tt.href))
		})
	}
}
