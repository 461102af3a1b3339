package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCategorizer() *Categorizer {
	return NewCategorizer(NewTextAnalyzer())
}

func TestCategorizer_MeetingTranscript(t *testing.T) {
	categorizer := newTestCategorizer()

	text := "We had a meeting to discuss the project agenda and schedule a follow up call with the team."
	got := categorizer.Categorize(text, "")

	require.NotEmpty(t, got)
	require.Equal(t, "meeting", got[0])
	require.LessOrEqual(t, len(got), 3)
	require.Contains(t, got, "work")
}

func TestCategorizer_MoneyBoostsFinance(t *testing.T) {
	categorizer := newTestCategorizer()

	text := "Remember the budget: I spent $450 on the investment payment and need to track every expense."
	got := categorizer.Categorize(text, "")

	require.Contains(t, got, "finance")
}

func TestCategorizer_NeutralTextFallsBack(t *testing.T) {
	categorizer := newTestCategorizer()

	got := categorizer.Categorize("hello there nothing specific", "")

	require.Equal(t, []string{"general"}, got)
}

func TestCategorizer_EmptyInputFallsBack(t *testing.T) {
	categorizer := newTestCategorizer()

	require.Equal(t, []string{"general"}, categorizer.Categorize("", ""))
}

func TestCategorizer_Deterministic(t *testing.T) {
	categorizer := newTestCategorizer()

	text := "Meeting about work budget: need to study the course material and exercise before the doctor visit."
	first := categorizer.Categorize(text, "")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, categorizer.Categorize(text, ""))
	}
}

func TestCategorizer_AtMostThreeLabels(t *testing.T) {
	categorizer := newTestCategorizer()

	// Dense text that triggers many rules at once.
	text := "Meeting agenda for the work project: study the course, pay the expense budget money, " +
		"exercise with the doctor for health and fitness, and remember the personal family diary task deadline."
	got := categorizer.Categorize(text, "")

	require.LessOrEqual(t, len(got), 3)
	require.NotContains(t, got, "general")
}

func TestCategorizer_SummaryContributes(t *testing.T) {
	categorizer := newTestCategorizer()

	withSummary := categorizer.Categorize("hello there", "Discussed the meeting agenda and schedule with the team about the project.")
	require.Equal(t, "meeting", withSummary[0])
}
