package course

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/document"
)

var (
	// ErrNotFound is returned when no course exists under a given key.
	ErrNotFound = errors.New("course not found")

	errEmptyCompletion = errors.New("text api returned an empty completion")

	nowFunc = time.Now // mockable

	descriptionPlaceholder = "Course description pending."
)

type (
	// Repository persists Course records keyed by their normalized name.
	// Update runs fn under the record's single-writer lock.
	Repository interface {
		Save(c Course) error
		Get(key string) (Course, error)
		All() ([]Course, error)
		Update(key string, fn func(*Course) error) error
		Delete(key string) error
	}

	// TextClient is a chat-completion text API: prompts in, text out.
	TextClient interface {
		GenerateText(ctx context.Context, system, user string) (string, error)
	}

	// DocumentRenderer renders titled paragraphs into a DOCX document.
	DocumentRenderer interface {
		RenderDocx(title string, paragraphs []string) (*bytes.Buffer, error)
	}

	Service struct {
		repo   Repository
		text   TextClient
		docs   DocumentRenderer
		mail   core.EmailService
		conf   *core.Config
		logger core.Logger
	}
)

func NewService(
	repo Repository,
	text TextClient,
	docs DocumentRenderer,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:   repo,
		text:   text,
		docs:   docs,
		mail:   mailSvc,
		conf:   conf,
		logger: logger,
	}
}

// Setup ingests the course document at pdfPath and creates the course record.
// The caller is expected to have validated nc.
func (svc *Service) Setup(ctx context.Context, nc NewCourse, pdfPath string) (Course, error) {
	pages, err := document.ExtractPages(pdfPath)
	if err != nil {
		return Course{}, errors.Wrap(err, "reading course document")
	}
	return svc.SetupFromPages(ctx, nc, pages)
}

// SetupFromPages is Setup for already-extracted page text.
func (svc *Service) SetupFromPages(ctx context.Context, nc NewCourse, pages []string) (Course, error) {
	now := nowFunc().UTC()
	c := Course{
		Key:            core.NormalizeKey(nc.Name),
		Name:           nc.Name,
		Instructor:     Instructor{Name: nc.InstructorName, Email: nc.InstructorEmail},
		ClassDays:      nc.ClassDays,
		StartDate:      nc.StartDate,
		EndDate:        nc.EndDate,
		AllowedDevices: nc.AllowedDevices,
		Students:       ParseStudents(nc.Students),
		Sections:       document.Split(pages),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	svc.draftSyllabus(ctx, &c)

	if err := svc.repo.Save(c); err != nil {
		return Course{}, errors.Wrapf(err, "saving course %s", c.Key)
	}
	return c, nil
}

// draftSyllabus asks the text API for a course description and learning
// objectives. Failures fall back to placeholders; setup always proceeds.
func (svc *Service) draftSyllabus(ctx context.Context, c *Course) {
	material := make([]string, 0, len(c.Sections))
	for _, sec := range c.Sections {
		material = append(material, sec.Title)
	}
	outline := truncateRunes(strings.Join(material, "\n"), svc.conf.TextAPI.CharBudget)

	desc, err := svc.text.GenerateText(ctx,
		"You write concise course syllabi for instructors.",
		fmt.Sprintf("Write a 2-3 sentence course description for %q covering:\n%s", c.Name, outline),
	)
	if err != nil || strings.TrimSpace(desc) == "" {
		svc.logger.Warn(fmt.Sprintf("course %s: drafting description: %v", c.Key, err))
		c.Description = descriptionPlaceholder
	} else {
		c.Description = strings.TrimSpace(desc)
	}

	objs, err := svc.text.GenerateText(ctx,
		"You write concise course syllabi for instructors.",
		fmt.Sprintf("List 3-5 learning objectives for %q, one per line, no numbering:\n%s", c.Name, outline),
	)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("course %s: drafting objectives: %v", c.Key, err))
		return
	}
	for _, line := range strings.Split(objs, "\n") {
		if line = strings.TrimSpace(strings.TrimLeft(line, "-*• \t")); line != "" {
			c.LearningObjectives = append(c.LearningObjectives, line)
		}
	}
}

// RegeneratePlan rebuilds the stored lesson plan for the course under key.
// The record stays locked for the duration, summarization calls included.
func (svc *Service) RegeneratePlan(ctx context.Context, key string) (Course, error) {
	var out Course
	err := svc.repo.Update(key, func(c *Course) error {
		svc.GeneratePlan(ctx, c)
		out = *c
		return nil
	})
	if err != nil {
		return Course{}, err
	}
	return out, nil
}

func (svc *Service) Get(key string) (Course, error) { return svc.repo.Get(key) }

func (svc *Service) All() ([]Course, error) { return svc.repo.All() }

func (svc *Service) Delete(key string) error { return svc.repo.Delete(key) }

// SendDocuments emails the syllabus and lesson plan as DOCX attachments to
// the instructor and every enrolled student with an email address.
func (svc *Service) SendDocuments(key string) error {
	c, err := svc.repo.Get(key)
	if err != nil {
		return err
	}

	syllabus := []string{c.Description}
	if len(c.LearningObjectives) > 0 {
		syllabus = append(syllabus, "Learning objectives:")
		syllabus = append(syllabus, c.LearningObjectives...)
	}
	syllabusDoc, err := svc.docs.RenderDocx("Syllabus: "+c.Name, syllabus)
	if err != nil {
		return errors.Wrap(err, "rendering syllabus")
	}

	planDoc, err := svc.docs.RenderDocx("Lesson Plan: "+c.Name, strings.Split(c.LessonPlanFormatted, "\n"))
	if err != nil {
		return errors.Wrap(err, "rendering lesson plan")
	}

	to := []mail.Address{{Name: c.Instructor.Name, Address: c.Instructor.Email}}
	for _, s := range c.Students {
		if s.Email != "" {
			to = append(to, mail.Address{Name: s.Name, Address: s.Email})
		}
	}

	msg := &core.EmailMessage{
		To:      to,
		Subject: "Course documents: " + c.Name,
		BodyStr: fmt.Sprintf(
			"Hello,\n\nPlease find attached the syllabus and lesson plan for %s.\n\n%s",
			c.Name, c.Instructor.Name),
		TemplateName: "course_documents",
		TemplateData: c,
	}
	docType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	if err = msg.Attach(syllabusDoc, "syllabus.docx", docType); err != nil {
		return errors.Wrap(err, "attaching syllabus")
	}
	if err = msg.Attach(planDoc, "lesson_plan.docx", docType); err != nil {
		return errors.Wrap(err, "attaching lesson plan")
	}

	svc.mail.SendMessages(msg)
	return nil
}
