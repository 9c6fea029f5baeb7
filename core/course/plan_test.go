package course

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/document"
	testutil "github.com/trezcool/darasa/tests"
)

type fakeTextClient struct {
	fn func(system, user string) (string, error)
}

func (f fakeTextClient) GenerateText(_ context.Context, system, user string) (string, error) {
	return f.fn(system, user)
}

func newPlanTestService(t *testing.T, text TextClient) *Service {
	conf := &core.Config{TextAPI: core.TextAPIConfig{CharBudget: 6000}}
	return NewService(nil, text, nil, nil, conf, testutil.NewLogger(t))
}

func testSections(n int) []document.Section {
	secs := make([]document.Section, 0, n)
	for i := 0; i < n; i++ {
		secs = append(secs, document.Section{
			Title:   fmt.Sprintf("Chapter %d", i+1),
			Content: fmt.Sprintf("Content of chapter %d.", i+1),
			Page:    i + 1,
		})
	}
	return secs
}

func TestGeneratePlanMoreSectionsThanDates(t *testing.T) {
	svc := newPlanTestService(t, fakeTextClient{fn: func(_, user string) (string, error) {
		return "A one-sentence summary.", nil
	}})

	c := Course{
		Key:       "test",
		StartDate: NewDate(2026, time.January, 5), // Monday
		EndDate:   NewDate(2026, time.January, 9),
		ClassDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Sections:  testSections(5),
	}
	svc.GeneratePlan(context.Background(), &c)

	if len(c.Lessons) != 3 {
		t.Fatalf("got %d lessons, want 3", len(c.Lessons))
	}
	for i, l := range c.Lessons {
		if l.Number != i+1 {
			t.Errorf("lessons[%d].Number = %d, want %d", i, l.Number, i+1)
		}
		if want := fmt.Sprintf("Chapter %d", i+1); l.SectionTitle != want {
			t.Errorf("lessons[%d].SectionTitle = %q, want %q", i, l.SectionTitle, want)
		}
		if l.TopicSummary != "A one-sentence summary." {
			t.Errorf("lessons[%d].TopicSummary = %q", i, l.TopicSummary)
		}
	}
}

func TestGeneratePlanMoreDatesThanSections(t *testing.T) {
	svc := newPlanTestService(t, fakeTextClient{fn: func(_, user string) (string, error) {
		return "Summary.", nil
	}})

	c := Course{
		Key:       "test",
		StartDate: NewDate(2026, time.January, 5),
		EndDate:   NewDate(2026, time.January, 14),
		ClassDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Sections:  testSections(3),
	}
	svc.GeneratePlan(context.Background(), &c)

	if len(c.Lessons) != 5 {
		t.Fatalf("got %d lessons, want 5", len(c.Lessons))
	}
	for i, l := range c.Lessons[:3] {
		if l.TopicSummary != "Summary." {
			t.Errorf("lessons[%d].TopicSummary = %q", i, l.TopicSummary)
		}
	}
	for i, l := range c.Lessons[3:] {
		if l.TopicSummary != PlaceholderTopic {
			t.Errorf("surplus lessons[%d].TopicSummary = %q, want placeholder", i+3, l.TopicSummary)
		}
		if l.SectionTitle != "" {
			t.Errorf("surplus lessons[%d] bound to section %q", i+3, l.SectionTitle)
		}
	}
}

func TestGeneratePlanSummarizationFailure(t *testing.T) {
	calls := 0
	svc := newPlanTestService(t, fakeTextClient{fn: func(_, user string) (string, error) {
		calls++
		if calls == 2 {
			return "", fmt.Errorf("upstream timeout")
		}
		return "Fine.", nil
	}})

	c := Course{
		Key:       "test",
		StartDate: NewDate(2026, time.January, 5),
		EndDate:   NewDate(2026, time.January, 9),
		ClassDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Sections:  testSections(3),
	}
	svc.GeneratePlan(context.Background(), &c)

	if len(c.Lessons) != 3 {
		t.Fatalf("got %d lessons, want 3", len(c.Lessons))
	}
	if c.Lessons[0].TopicSummary != "Fine." || c.Lessons[2].TopicSummary != "Fine." {
		t.Errorf("healthy lessons affected: %+v", c.Lessons)
	}
	if c.Lessons[1].TopicSummary != SummaryUnavailable {
		t.Errorf("lessons[1].TopicSummary = %q, want %q", c.Lessons[1].TopicSummary, SummaryUnavailable)
	}
}

func TestGeneratePlanTruncatesContent(t *testing.T) {
	var gotPrompt string
	svc := newPlanTestService(t, fakeTextClient{fn: func(_, user string) (string, error) {
		gotPrompt = user
		return "Summary.", nil
	}})
	svc.conf.TextAPI.CharBudget = 100

	c := Course{
		Key:       "test",
		StartDate: NewDate(2026, time.January, 5),
		EndDate:   NewDate(2026, time.January, 5),
		ClassDays: []time.Weekday{time.Monday},
		Sections: []document.Section{{
			Title:   "Chapter 1",
			Content: strings.Repeat("x", 5000),
		}},
	}
	svc.GeneratePlan(context.Background(), &c)

	if strings.Count(gotPrompt, "x") > 100 {
		t.Errorf("prompt carries %d content chars, budget is 100", strings.Count(gotPrompt, "x"))
	}
}

func TestFormatPlanGroupsByISOWeek(t *testing.T) {
	lessons := []Lesson{
		{Number: 1, Date: NewDate(2026, time.January, 5), TopicSummary: "Intro"},
		{Number: 2, Date: NewDate(2026, time.January, 7), TopicSummary: "Bonds", PageReference: 4},
		{Number: 3, Date: NewDate(2026, time.January, 12), TopicSummary: "Reactions"},
	}

	want := "" +
		"Week 2, 2026\n" +
		"  Lesson 1 - Mon 05 Jan 2026: Intro\n" +
		"  Lesson 2 - Wed 07 Jan 2026 (p. 4): Bonds\n" +
		"\n" +
		"Week 3, 2026\n" +
		"  Lesson 3 - Mon 12 Jan 2026: Reactions\n"

	testutil.AssertMultilineEqual(t, FormatPlan(lessons), want)
}
