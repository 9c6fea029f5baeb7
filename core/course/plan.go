package course

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/darasa/core/document"
)

const (
	// PlaceholderTopic fills class dates left over once sections run out.
	PlaceholderTopic = "Topic to be announced"

	// SummaryUnavailable marks lessons whose summarization call failed.
	SummaryUnavailable = "[summary unavailable]"

	summarizeSystemPrompt = "You are an instructional designer. Answer with exactly one sentence and nothing else."
)

// GeneratePlan rebuilds the course's lesson list and formatted plan in place.
// Class dates are zipped positionally with sections: surplus dates get
// PlaceholderTopic, surplus sections are dropped. A failed summarization call
// marks that one lesson and never aborts the plan.
func (svc *Service) GeneratePlan(ctx context.Context, c *Course) {
	dates := ClassDates(c.StartDate, c.EndDate, c.ClassDays)

	lessons := make([]Lesson, 0, len(dates))
	for i, d := range dates {
		lesson := Lesson{Number: i + 1, Date: d, TopicSummary: PlaceholderTopic}
		if i < len(c.Sections) {
			sec := c.Sections[i]
			lesson.SectionTitle = sec.Title
			lesson.PageReference = sec.Page

			summary, err := svc.summarize(ctx, sec)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf(
					"course %s: summarizing section %q: %v", c.Key, sec.Title, err))
				lesson.TopicSummary = SummaryUnavailable
			} else {
				lesson.TopicSummary = summary
			}
		}
		lessons = append(lessons, lesson)
	}

	c.Lessons = lessons
	c.LessonPlanFormatted = FormatPlan(lessons)
	c.UpdatedAt = nowFunc().UTC()
}

func (svc *Service) summarize(ctx context.Context, sec document.Section) (string, error) {
	content := truncateRunes(sec.Content, svc.conf.TextAPI.CharBudget)
	prompt := fmt.Sprintf("Summarize this course section titled %q in one sentence:\n\n%s", sec.Title, content)

	summary, err := svc.text.GenerateText(ctx, summarizeSystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", errEmptyCompletion
	}
	return summary, nil
}

// FormatPlan renders lessons as a human-readable outline grouped by ISO
// calendar week. Lessons are date-ascending, so the week groups come out in
// order without an intermediate map.
func FormatPlan(lessons []Lesson) string {
	var b strings.Builder
	var curYear, curWeek int

	for _, l := range lessons {
		year, week := l.Date.ISOWeek()
		if year != curYear || week != curWeek {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "Week %d, %d\n", week, year)
			curYear, curWeek = year, week
		}

		fmt.Fprintf(&b, "  Lesson %d - %s", l.Number, l.Date.Format("Mon 02 Jan 2006"))
		if l.PageReference > 0 {
			fmt.Fprintf(&b, " (p. %d)", l.PageReference)
		}
		fmt.Fprintf(&b, ": %s\n", l.TopicSummary)
	}
	return b.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
