package services

import (
	"regexp"
	"sort"
	"strings"
)

// categoryRule scores one label. The table is an ordered slice so that
// score ties always resolve the same way.
type categoryRule struct {
	name     string
	keywords []string
	pattern  *regexp.Regexp
}

var categoryRules = []categoryRule{
	{
		name:     "meeting",
		keywords: []string{"meeting", "discussion", "agenda", "minutes", "action items", "follow up", "schedule", "conference", "team", "project"},
		pattern:  regexp.MustCompile(`(?i)\b(meeting|call|conference|discussion|agenda)\b`),
	},
	{
		name:     "idea",
		keywords: []string{"idea", "thought", "concept", "brainstorm", "innovation", "creative", "suggestion", "proposal", "imagine"},
		pattern:  regexp.MustCompile(`(?i)\b(idea|thought|what if|maybe we could|suggestion)\b`),
	},
	{
		name:     "todo",
		keywords: []string{"todo", "task", "reminder", "need to", "must", "should", "deadline", "due", "complete", "finish"},
		pattern:  regexp.MustCompile(`(?i)\b(need to|have to|must|should|todo|task|remind me)\b`),
	},
	{
		name:     "personal",
		keywords: []string{"personal", "private", "diary", "journal", "feeling", "emotion", "family", "friend", "life"},
		pattern:  regexp.MustCompile(`(?i)\b(personal|private|myself|feeling|family)\b`),
	},
	{
		name:     "work",
		keywords: []string{"work", "job", "office", "colleague", "boss", "client", "project", "deadline", "professional"},
		pattern:  regexp.MustCompile(`(?i)\b(work|office|client|project|boss|colleague)\b`),
	},
	{
		name:     "learning",
		keywords: []string{"learn", "study", "course", "book", "article", "research", "understand", "knowledge", "education"},
		pattern:  regexp.MustCompile(`(?i)\b(learn|study|read|research|course|understand)\b`),
	},
	{
		name:     "finance",
		keywords: []string{"money", "budget", "expense", "income", "investment", "savings", "cost", "price", "payment"},
		pattern:  regexp.MustCompile(`(?i)\b(money|budget|expense|cost|pay|investment|dollar|euro)\b`),
	},
	{
		name:     "health",
		keywords: []string{"health", "fitness", "exercise", "diet", "medical", "doctor", "wellness", "symptom", "medication"},
		pattern:  regexp.MustCompile(`(?i)\b(health|fitness|exercise|doctor|medical|symptom)\b`),
	},
}

// FallbackCategory labels notes no rule claims.
const FallbackCategory = "general"

var tokenSplitter = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Categorizer assigns up to three category labels to a transcript.
type Categorizer struct {
	analyzer *TextAnalyzer
}

func NewCategorizer(analyzer *TextAnalyzer) *Categorizer {
	return &Categorizer{analyzer: analyzer}
}

// Categorize scores the combined transcript and summary against the rule
// table: 2 points for a pattern hit, 1 per exact keyword token, 0.5 per
// token/keyword substring overlap, plus entity bonuses. Labels scoring 2 or
// less are dropped; the top three survive in score order, ties broken by
// table order. Output is deterministic for a fixed input.
func (c *Categorizer) Categorize(transcription, summary string) []string {
	text := strings.ToLower(transcription + " " + summary)
	tokens := tokenize(text)
	tokenSet := map[string]bool{}
	for _, t := range tokens {
		tokenSet[t] = true
	}

	scores := make([]float64, len(categoryRules))
	index := map[string]int{}

	for i, rule := range categoryRules {
		index[rule.name] = i
		if rule.pattern.MatchString(text) {
			scores[i] += 2
		}
		for _, keyword := range rule.keywords {
			if tokenSet[keyword] {
				scores[i]++
			}
			for _, token := range tokens {
				if strings.Contains(token, keyword) || strings.Contains(keyword, token) {
					scores[i] += 0.5
					break
				}
			}
		}
	}

	signals := c.analyzer.Analyze(transcription + " " + summary)
	if signals.HasPeopleOrPlaces {
		scores[index["meeting"]]++
	}
	if signals.HasMoney {
		scores[index["finance"]] += 2
	}
	if signals.HasDate {
		scores[index["todo"]]++
	}

	type scored struct {
		name  string
		score float64
		order int
	}
	var qualified []scored
	for i, rule := range categoryRules {
		if scores[i] > 2 {
			qualified = append(qualified, scored{name: rule.name, score: scores[i], order: i})
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].score > qualified[j].score
	})
	if len(qualified) > 3 {
		qualified = qualified[:3]
	}

	if len(qualified) == 0 {
		return []string{FallbackCategory}
	}
	result := make([]string, len(qualified))
	for i, q := range qualified {
		result[i] = q.name
	}
	return result
}

func tokenize(text string) []string {
	var tokens []string
	for _, t := range tokenSplitter.Split(text, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
