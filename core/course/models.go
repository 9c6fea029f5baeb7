package course

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/document"
)

// DateFormat is the wire/storage format for calendar dates.
const DateFormat = "2006-01-02"

// Date is a calendar date pinned to UTC midnight.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateFormat) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Format(DateFormat))), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type (
	Instructor struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Student struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// Lesson is one scheduled class occurrence bound to a topic and date.
	Lesson struct {
		Number        int    `json:"lesson_number"`
		Date          Date   `json:"date"`
		TopicSummary  string `json:"topic_summary"`
		SectionTitle  string `json:"original_section_title,omitempty"`
		PageReference int    `json:"page_reference,omitempty"`
	}

	// Course is the full per-course configuration record, persisted as one
	// JSON document keyed by Key. Lessons and LessonPlanFormatted are
	// overwritten wholesale on plan regeneration.
	Course struct {
		Key                 string             `json:"key"`
		Name                string             `json:"course_name"`
		Instructor          Instructor         `json:"instructor"`
		ClassDays           []time.Weekday     `json:"class_days"`
		StartDate           Date               `json:"start_date"`
		EndDate             Date               `json:"end_date"`
		AllowedDevices      int                `json:"allowed_devices"`
		Students            []Student          `json:"students"`
		Sections            []document.Section `json:"sections"`
		Description         string             `json:"course_description"`
		LearningObjectives  []string           `json:"learning_objectives"`
		Lessons             []Lesson           `json:"lessons"`
		LessonPlanFormatted string             `json:"lesson_plan_formatted"`
		CreatedAt           time.Time          `json:"created_at"` // UTC
		UpdatedAt           time.Time          `json:"updated_at"` // UTC
	}
)

// LessonsOn returns the course's lessons scheduled exactly on the given date.
func (c *Course) LessonsOn(d Date) []Lesson {
	var out []Lesson
	for _, l := range c.Lessons {
		if l.Date.Equal(d.Time) {
			out = append(out, l)
		}
	}
	return out
}

// NewCourse contains information needed to set up a new Course.
// Students is free-text input, one student per line: either
// "Name <email>" or "Name, email"; a bare name enrolls without an email.
type NewCourse struct {
	Name            string         `json:"course_name" validate:"required"`
	InstructorName  string         `json:"instructor_name" validate:"required"`
	InstructorEmail string         `json:"instructor_email" validate:"required,email"`
	ClassDays       []time.Weekday `json:"class_days" validate:"required,min=1,weekdays"`
	StartDate       Date           `json:"start_date"`
	EndDate         Date           `json:"end_date"`
	AllowedDevices  int            `json:"allowed_devices" validate:"omitempty,min=1"`
	Students        string         `json:"students"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.InstructorName = core.CleanString(nc.InstructorName)
	nc.InstructorEmail = core.CleanString(nc.InstructorEmail, true /* lower */)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}

	var flds []core.FieldError
	if nc.StartDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "start_date", Error: "this field is required"})
	}
	if nc.EndDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "end_date", Error: "this field is required"})
	}
	if !nc.StartDate.IsZero() && !nc.EndDate.IsZero() && nc.EndDate.Before(nc.StartDate.Time) {
		flds = append(flds, core.FieldError{Field: "end_date", Error: "end date cannot be before start date"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// ParseStudents parses the free-text student roster. Unparseable emails do
// not fail enrollment; such students simply have no email and are skipped at
// notification time.
func ParseStudents(input string) []Student {
	var students []Student
	for _, line := range strings.Split(input, "\n") {
		line = core.CleanString(line)
		if line == "" {
			continue
		}

		var name, email string
		if addr, err := mail.ParseAddress(line); err == nil {
			name, email = addr.Name, addr.Address
		} else if i := strings.LastIndexAny(line, ",;"); i >= 0 {
			name = core.CleanString(line[:i])
			email = core.CleanString(line[i+1:], true /* lower */)
			if _, err = mail.ParseAddress(email); err != nil {
				email = ""
			}
		} else {
			name = line
		}
		if name == "" {
			name = email
		}

		students = append(students, Student{
			ID:    uuid.NewString(),
			Name:  name,
			Email: email,
		})
	}
	return students
}
