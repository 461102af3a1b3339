package services

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// TextSignals are the entity cues feeding the categorization bonuses.
type TextSignals struct {
	HasPeopleOrPlaces bool
	HasMoney          bool
	HasDate           bool
}

var (
	moneyPattern = regexp.MustCompile(`(?i)([$€£]\s?\d[\d,.]*)|(\b\d[\d,.]*\s?(dollars?|euros?|pounds?|bucks|usd|eur|gbp)\b)`)
	datePattern  = regexp.MustCompile(`(?i)\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b|\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(st|nd|rd|th)?,?\s+\d{4}\b`)
	hashtagRe    = regexp.MustCompile(`#(\w+)`)
)

// TextAnalyzer extracts entities and tags from free text using an NLP
// tokenizer plus regex matchers for shapes the tagger misses.
type TextAnalyzer struct{}

func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{}
}

// Analyze detects the entity signals used by the categorizer.
func (a *TextAnalyzer) Analyze(text string) TextSignals {
	signals := TextSignals{
		HasMoney: moneyPattern.MatchString(text),
		HasDate:  datePattern.MatchString(text),
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		slog.Warn("Entity extraction failed", "error", err)
		return signals
	}
	for _, ent := range doc.Entities() {
		if ent.Label == "PERSON" || ent.Label == "GPE" {
			signals.HasPeopleOrPlaces = true
			break
		}
	}
	return signals
}

// ExtractTags returns up to ten lowercase tags: nouns of a reasonable
// length plus explicit hashtags.
func (a *TextAnalyzer) ExtractTags(text string) []string {
	seen := map[string]bool{}
	var tags []string
	add := func(tag string, anyLength bool) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			return
		}
		if !anyLength && (len(tag) <= 3 || len(tag) >= 20) {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	doc, err := prose.NewDocument(text)
	if err == nil {
		for _, tok := range doc.Tokens() {
			if strings.HasPrefix(tok.Tag, "NN") {
				add(tok.Text, false)
			}
		}
	}

	// Hashtags are deliberate, keep them whatever their length.
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		add(m[1], true)
	}

	if len(tags) > 10 {
		tags = tags[:10]
	}
	return tags
}
