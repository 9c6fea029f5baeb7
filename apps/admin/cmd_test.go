package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/notify"
	"github.com/trezcool/darasa/services/docgen"
	emailsvc "github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/storage/coursecfg"
	testutil "github.com/trezcool/darasa/tests"
)

func TestMain(m *testing.M) {
	core.InitValidators()
	course.InitValidators()
	os.Exit(m.Run())
}

type fakeTextClient struct{}

func (fakeTextClient) GenerateText(_ context.Context, _, _ string) (string, error) {
	return "Generated text.", nil
}

type fakeProgressClient struct{}

func (fakeProgressClient) Fetch(_ context.Context, _, _, _ string) (notify.ProgressReport, error) {
	return notify.ProgressReport{Engagement: "high"}, nil
}

func setup(t *testing.T) (*commandLine, course.Repository) {
	conf := &core.Config{
		AppName:         "Darasa",
		TestMode:        true,
		SecretKey:       "test-secret",
		FrontendBaseURL: "https://classroom.test",
		TextAPI:         core.TextAPIConfig{CharBudget: 6000},
	}
	logger := testutil.NewLogger(t)

	repo, err := coursecfg.NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("setting up store: %v", err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := course.NewService(repo, fakeTextClient{}, docgen.NewRenderer(), mailSvc, conf, logger)
	dispatcher := notify.NewDispatcher(
		repo, course.NewTokenIssuer(conf), mailSvc, fakeProgressClient{}, conf, logger)

	return &commandLine{
		ctx:        context.Background(),
		svc:        svc,
		dispatcher: dispatcher,
	}, repo
}

func seedCourse(t *testing.T, repo course.Repository) course.Course {
	t.Helper()
	c := course.Course{
		Key:        "history_101",
		Name:       "History 101",
		Instructor: course.Instructor{Name: "Dr. Okoye", Email: "okoye@test.test"},
		ClassDays:  []time.Weekday{time.Monday},
		StartDate:  course.NewDate(2026, time.January, 5),
		EndDate:    course.NewDate(2026, time.January, 19),
		Students: []course.Student{
			{ID: "s1", Name: "Jane", Email: "jane@test.test"},
		},
		Description: "About history.",
	}
	if err := repo.Save(c); err != nil {
		t.Fatal(err)
	}
	return c
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func Test_commandLine_help(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "plan: no name", args: []string{"plan"}, wantErr: errHelp},
		{name: "send: no name", args: []string{"send"}, wantErr: errHelp},
		{name: "runjob: no name", args: []string{"runjob"}, wantErr: errHelp},
		{name: "runjob: unknown job", args: []string{"runjob", "-name", "lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_plan(t *testing.T) {
	cli, repo := setup(t)
	seedCourse(t, repo)

	if err := cli.run([]string{"admin", "plan", "-name", "History 101"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	c, err := repo.Get("history_101")
	if err != nil {
		t.Fatal(err)
	}
	// 3 Mondays between Jan 5 and Jan 19
	if len(c.Lessons) != 3 {
		t.Errorf("got %d lessons, want 3", len(c.Lessons))
	}
	if c.LessonPlanFormatted == "" {
		t.Error("formatted plan missing")
	}
}

func Test_commandLine_planUnknownCourse(t *testing.T) {
	cli, _ := setup(t)

	if err := cli.run([]string{"admin", "plan", "-name", "nope"}); err != course.ErrNotFound {
		t.Errorf("cli.run() error = %v, wantErr ErrNotFound", err)
	}
}

func Test_commandLine_send(t *testing.T) {
	cli, repo := setup(t)
	seedCourse(t, repo)

	if err := cli.run([]string{"admin", "send", "-name", "history_101"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}
}

func Test_commandLine_runjob(t *testing.T) {
	cli, repo := setup(t)
	seedCourse(t, repo)

	if err := cli.run([]string{"admin", "runjob", "-name", "reminders"}); err != nil {
		t.Errorf("runjob reminders failed: %v", err)
	}
	if err := cli.run([]string{"admin", "runjob", "-name", "progress"}); err != nil {
		t.Errorf("runjob progress failed: %v", err)
	}
}

func Test_parseWeekdays(t *testing.T) {
	days, err := parseWeekdays("1,3, 5")
	if err != nil {
		t.Fatal(err)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	if len(days) != len(want) {
		t.Fatalf("got %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %v, want %v", i, days[i], want[i])
		}
	}

	if _, err = parseWeekdays("7"); err == nil {
		t.Error("expected an error for an out-of-range day")
	}
	if _, err = parseWeekdays("monday"); err == nil {
		t.Error("expected an error for a non-numeric day")
	}
}
