package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTagsKeepsShortHashtags(t *testing.T) {
	a := NewTextAnalyzer()

	tags := a.ExtractTags("Shipping the #ai assistant this quarter #v2")
	require.Contains(t, tags, "ai")
	require.Contains(t, tags, "v2")
	require.NotContains(t, tags, "#ai")
}

func TestExtractTagsDeduplicates(t *testing.T) {
	a := NewTextAnalyzer()

	tags := a.ExtractTags("#ai and #AI and #ai again")
	count := 0
	for _, tag := range tags {
		if tag == "ai" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestAnalyzeDetectsMoneyAndDates(t *testing.T) {
	a := NewTextAnalyzer()

	signals := a.Analyze("Pay the $450 invoice by 12/05/2026")
	require.True(t, signals.HasMoney)
	require.True(t, signals.HasDate)

	signals = a.Analyze("nothing notable here")
	require.False(t, signals.HasMoney)
	require.False(t, signals.HasDate)
}
