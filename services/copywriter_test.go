package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"puzzle2profit/models"
	"puzzle2profit/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fencedCopy = "Here is your post:\n```html\n<!DOCTYPE html>\n<html><head><title>Automate Everything</title></head>\n<body>\n<h1>Automate Everything</h1>\n<p>First paragraph about <strong>Zapier</strong>.</p>\n<h2>Step one</h2>\n<p>Do it.</p>\n</body></html>\n```\n\nExcerpt: Automate your solo business in a weekend.\n\nAffiliate Suggestions:\n1. Zapier - connects 6000 apps\n2. Make - visual scenarios\n"

func TestCopyGenerate(t *testing.T) {
	provider := staticProvider(fencedCopy)
	svc := NewCopyService(testConfig(), provider, nopLogger())

	res, err := svc.Generate(context.Background(), CopyRequest{Category: "convert", Topic: "Checkout automation"})
	require.NoError(t, err)

	assert.Equal(t, "<p>First paragraph about <strong>Zapier</strong>.</p>\n<h2>Step one</h2>\n<p>Do it.</p>", res.Content)
	assert.Equal(t, "Automate your solo business in a weekend.", res.Excerpt)
	assert.Equal(t, []models.AffiliateLink{
		{URL: "", Description: "Zapier - connects 6000 apps"},
		{URL: "", Description: "Make - visual scenarios"},
	}, res.AffiliateSuggestions)

	calls := provider.calls()
	require.Len(t, calls, 1)
	assert.InDelta(t, 0.7, calls[0].Temperature, 1e-9)
	assert.Contains(t, calls[0].Prompt, `about Checkout automation in the "Convert" phase`)
}

func TestCopyGenerate_DefaultTopic(t *testing.T) {
	provider := staticProvider("<p>ok</p>")
	svc := NewCopyService(testConfig(), provider, nopLogger())

	_, err := svc.Generate(context.Background(), CopyRequest{Category: "Build"})
	require.NoError(t, err)
	assert.Contains(t, provider.calls()[0].Prompt, defaultTopic)
}

func TestCopyGenerate_InvalidCategory(t *testing.T) {
	provider := staticProvider("<p>never</p>")
	svc := NewCopyService(testConfig(), provider, nopLogger())

	_, err := svc.Generate(context.Background(), CopyRequest{Category: "Monday", Topic: "x"})

	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Invalid category. Must be one of: Build, Attract, Convert, Deliver, Support, Profit, Rest")
	assert.Empty(t, provider.calls())
}

func TestCopyGenerate_ProviderError(t *testing.T) {
	svc := NewCopyService(testConfig(), &fakeProvider{respond: func(providers.CompletionRequest) (string, error) {
		return "", &providers.UpstreamError{Provider: "Grok", StatusCode: 429, Body: "slow down"}
	}}, nopLogger())

	_, err := svc.Generate(context.Background(), CopyRequest{Category: "Rest"})

	var upstream *providers.UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestProcessCopy_PlainTextIsRenderedAsMarkdown(t *testing.T) {
	res := ProcessCopy("# My Title\n\nFirst **bold** paragraph.\n\n- one\n- two\n")

	assert.NotContains(t, res.Content, "My Title")
	assert.Contains(t, res.Content, "<p>First <strong>bold</strong> paragraph.</p>")
	assert.Contains(t, res.Content, "<li>one</li>")
	assert.Equal(t, "First bold paragraph.", res.Excerpt)
	assert.NotNil(t, res.AffiliateSuggestions)
	assert.Empty(t, res.AffiliateSuggestions)
}

func TestProcessCopy_DropsPreamble(t *testing.T) {
	res := ProcessCopy("Sure, here it is: <h2>Start</h2><p>Go.</p>")
	assert.Equal(t, "<h2>Start</h2><p>Go.</p>", res.Content)
}

func TestProcessCopy_DecodesEntitiesInExcerpt(t *testing.T) {
	res := ProcessCopy("<h2>Intro</h2>\n<p>Don&#39;t miss &quot;this&quot; &mdash; it&rsquo;s key</p>")

	assert.Equal(t, "Don't miss \"this\" \u2014 it\u2019s key", res.Excerpt)
	assert.Contains(t, res.Content, "<h2>Intro</h2>")
}

func TestProcessCopy_DropsDocumentHead(t *testing.T) {
	res := ProcessCopy("<html><head><meta charset=\"utf-8\"><title>T</title><style>p{}</style></head><body><h1>T</h1><section><h1>Nested</h1><p>Kept &amp; shown</p></section></body></html>")

	assert.Equal(t, "<section><p>Kept &amp; shown</p></section>", res.Content)
	assert.Equal(t, "Kept & shown", res.Excerpt)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a b", stripTags("<li>a</li><li>b</li>"))
	assert.Equal(t, "Fish & Chips", stripTags("**Fish &amp;&nbsp;Chips**"))
	assert.Equal(t, "1 < 2", stripTags("1 &lt; 2"))
}

func TestExtractExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		content string
		want    string
	}{
		{"same line with bold label", "**Excerpt:** Learn fast.\n", "", "Learn fast."},
		{"quoted", `Excerpt: "Ship in a day."`, "", "Ship in a day."},
		{"html heading and paragraph", "<h3>Excerpt</h3>\n<p>Short <em>pitch</em>.</p>", "", "Short pitch."},
		{"next line", "Excerpt\nThe next line wins.\n", "", "The next line wins."},
		{"fallback to first paragraph", "<p>no marker</p>", "<p>Hello <b>world</b></p><p>second</p>", "Hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractExcerpt(tt.raw, tt.content))
		})
	}
}

func TestExtractExcerpt_FallbackIsTruncated(t *testing.T) {
	long := "<p>" + strings.Repeat("word ", 60) + "</p>"
	got := ExtractExcerpt("", long)
	assert.Len(t, []rune(got), excerptRunes)
}

func TestParseAffiliateSuggestions(t *testing.T) {
	t.Run("html list", func(t *testing.T) {
		got := ParseAffiliateSuggestions("<p>Body</p>\n<h3>Affiliate Links</h3>\n<ul>\n<li><strong>Zapier</strong>: automation</li>\n<li>Airtable</li>\n</ul>")
		assert.Equal(t, []models.AffiliateLink{
			{Description: "Zapier: automation"},
			{Description: "Airtable"},
		}, got)
	})

	t.Run("stops at excerpt", func(t *testing.T) {
		got := ParseAffiliateSuggestions("Affiliate Suggestions:\n1) Notion - docs\n\nExcerpt: done\n2. Not a suggestion")
		assert.Equal(t, []models.AffiliateLink{{Description: "Notion - docs"}}, got)
	})

	t.Run("none", func(t *testing.T) {
		got := ParseAffiliateSuggestions("<p>No suggestions here.</p>")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
