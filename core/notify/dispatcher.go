// Package notify runs the scheduled email jobs: morning lesson reminders to
// students and evening progress alerts to instructors.
package notify

import (
	"context"
	"fmt"
	"math/rand"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type (
	// ProgressReport is one student's standing in a lesson, as reported by the
	// external progress service.
	ProgressReport struct {
		QuizScore  *float64 `json:"quiz_score"` // nil when no quiz was taken
		Engagement string   `json:"engagement"` // "low", "medium", "high"
		DetailURL  string   `json:"detail_url,omitempty"`
	}

	// ProgressClient fetches a student's progress for one lesson.
	ProgressClient interface {
		Fetch(ctx context.Context, courseKey, studentID, lessonID string) (ProgressReport, error)
	}

	Dispatcher struct {
		repo     course.Repository
		issuer   *course.TokenIssuer
		mail     core.EmailService
		progress ProgressClient
		conf     *core.Config
		logger   core.Logger

		now  func() time.Time
		code func() string
	}
)

const (
	failingQuizScore = 60
	lowEngagement    = "low"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

func NewDispatcher(
	repo course.Repository,
	issuer *course.TokenIssuer,
	mailSvc core.EmailService,
	progress ProgressClient,
	conf *core.Config,
	logger core.Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		issuer:   issuer,
		mail:     mailSvc,
		progress: progress,
		conf:     conf,
		logger:   logger,
		now:      time.Now,
		code:     newSessionCode,
	}
}

// newSessionCode returns the 5-digit verbal check-in code included in every
// reminder. It is informational only; access control is the token.
func newSessionCode() string {
	return fmt.Sprintf("%05d", rand.Intn(100000))
}

// RunReminders emails every enrolled student a session link and check-in code
// for each lesson scheduled today. Students without an email address are
// logged and skipped; a send problem for one course never stops the rest.
func (d *Dispatcher) RunReminders(ctx context.Context) error {
	today := course.DateOf(d.now().UTC())

	courses, err := d.repo.All()
	if err != nil {
		return err
	}

	var msgs []*core.EmailMessage
	for _, c := range courses {
		for _, lesson := range c.LessonsOn(today) {
			for _, s := range c.Students {
				if s.Email == "" {
					d.logger.Warn(fmt.Sprintf(
						"reminders: course %s lesson %d: student %q has no email, skipping", c.Key, lesson.Number, s.Name))
					continue
				}
				msg, err := d.reminderMessage(c, lesson, s)
				if err != nil {
					d.logger.Error(fmt.Sprintf(
						"reminders: course %s lesson %d student %s: %v", c.Key, lesson.Number, s.ID, err), err)
					continue
				}
				msgs = append(msgs, msg)
			}
		}
	}
	if len(msgs) > 0 {
		d.mail.SendMessages(msgs...)
	}
	d.logger.Info(fmt.Sprintf("reminders: queued %d message(s) for %s", len(msgs), today))
	return nil
}

func (d *Dispatcher) reminderMessage(c course.Course, lesson course.Lesson, s course.Student) (*core.EmailMessage, error) {
	token, err := d.issuer.Issue(s.ID, c.Key, lesson.Number, lesson.Date)
	if err != nil {
		return nil, err
	}
	link := d.conf.FrontendBaseURL + "/session?token=" + url.QueryEscape(token)
	code := d.code()
	notBefore, notAfter := course.Window(lesson.Date)

	data := struct {
		Course      course.Course
		Lesson      course.Lesson
		Student     course.Student
		SessionLink string
		SessionCode string
		OpensAt     time.Time
		ClosesAt    time.Time
	}{c, lesson, s, link, code, notBefore, notAfter}

	return &core.EmailMessage{
		To:      []mail.Address{{Name: s.Name, Address: s.Email}},
		Subject: fmt.Sprintf("Today's lesson: %s", c.Name),
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nLesson %d of %s is today: %s\n\n"+
				"Join here: %s\nCheck-in code: %s\n\n"+
				"The session is open from %s to %s UTC.",
			s.Name, lesson.Number, c.Name, lesson.TopicSummary,
			link, code,
			notBefore.Format("15:04"), notAfter.Format("15:04")),
		TemplateName: "lesson_reminder",
		TemplateData: data,
	}, nil
}

// RunProgressChecks reviews yesterday's lessons and emails each instructor
// about students who failed the quiz or showed low engagement. A fetch
// failure for one student is logged and does not block the others.
func (d *Dispatcher) RunProgressChecks(ctx context.Context) error {
	yesterday := course.DateOf(d.now().UTC().AddDate(0, 0, -1))

	courses, err := d.repo.All()
	if err != nil {
		return err
	}

	var msgs []*core.EmailMessage
	for _, c := range courses {
		for _, lesson := range c.LessonsOn(yesterday) {
			if msg := d.progressAlert(ctx, c, lesson); msg != nil {
				msgs = append(msgs, msg)
			}
		}
	}
	if len(msgs) > 0 {
		d.mail.SendMessages(msgs...)
	}
	d.logger.Info(fmt.Sprintf("progress checks: queued %d alert(s) for %s", len(msgs), yesterday))
	return nil
}

type flaggedStudent struct {
	Student course.Student
	Report  ProgressReport
	Reasons []string
}

// progressAlert returns the instructor alert for one lesson, or nil when no
// student needs flagging.
func (d *Dispatcher) progressAlert(ctx context.Context, c course.Course, lesson course.Lesson) *core.EmailMessage {
	lessonID := fmt.Sprintf("%d", lesson.Number)

	var flagged []flaggedStudent
	for _, s := range c.Students {
		report, err := d.progress.Fetch(ctx, c.Key, s.ID, lessonID)
		if err != nil {
			d.logger.Error(fmt.Sprintf(
				"progress checks: course %s lesson %d student %s: %v", c.Key, lesson.Number, s.ID, err), err)
			continue
		}
		if reasons := flagReasons(report); len(reasons) > 0 {
			flagged = append(flagged, flaggedStudent{Student: s, Report: report, Reasons: reasons})
		}
	}
	if len(flagged) == 0 || c.Instructor.Email == "" {
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\nAfter lesson %d of %s (%s), the following students may need attention:\n\n",
		c.Instructor.Name, lesson.Number, c.Name, lesson.Date)
	for _, f := range flagged {
		fmt.Fprintf(&body, "- %s: %s", f.Student.Name, strings.Join(f.Reasons, "; "))
		if f.Report.DetailURL != "" {
			fmt.Fprintf(&body, " (%s)", f.Report.DetailURL)
		}
		body.WriteString("\n")
	}

	data := struct {
		Course  course.Course
		Lesson  course.Lesson
		Flagged []flaggedStudent
	}{c, lesson, flagged}

	return &core.EmailMessage{
		To:      []mail.Address{{Name: c.Instructor.Name, Address: c.Instructor.Email}},
		Subject: fmt.Sprintf("Progress alert: %s, lesson %d", c.Name, lesson.Number),
		BodyStr: body.String(),

		TemplateName: "progress_alert",
		TemplateData: data,
	}
}

func flagReasons(r ProgressReport) []string {
	var reasons []string
	if r.QuizScore != nil && *r.QuizScore < failingQuizScore {
		reasons = append(reasons, fmt.Sprintf("quiz score %.0f%%", *r.QuizScore))
	}
	if strings.EqualFold(r.Engagement, lowEngagement) {
		reasons = append(reasons, "low engagement")
	}
	return reasons
}
