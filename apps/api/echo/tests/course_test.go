package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/course"
)

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
		Description:         "About history.",
		LessonPlanFormatted: "Week 2, 2026\n  Lesson 1 - Mon 05 Jan 2026: Intro\n",
		Lessons: []course.Lesson{
			{Number: 1, Date: course.NewDate(2026, time.January, 5), TopicSummary: "Intro"},
		},
	}
	if err := repo.Save(c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestHealth(t *testing.T) {
	srv, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/health")
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var res map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["status"] != "ok" {
		t.Errorf("status = %v", res["status"])
	}
}

func TestCourseCreateMissingDocument(t *testing.T) {
	srv, _ := setup(t)

	req, rec := newMultipartRequest(t, "/v1/courses", map[string]string{
		"course_name":      "Chemistry 101",
		"instructor_name":  "Dr. Okoye",
		"instructor_email": "okoye@test.test",
		"class_days":       "monday,wednesday",
		"start_date":       "2026-01-05",
		"end_date":         "2026-03-27",
	}, nil)
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400 without a document", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "document") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCourseCreateBadDocument(t *testing.T) {
	srv, _ := setup(t)

	req, rec := newMultipartRequest(t, "/v1/courses", map[string]string{
		"course_name":      "Chemistry 101",
		"instructor_name":  "Dr. Okoye",
		"instructor_email": "okoye@test.test",
		"class_days":       "monday",
		"start_date":       "2026-01-05",
		"end_date":         "2026-03-27",
	}, []byte("this is not a pdf"))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400 for a non-PDF document", rec.Code)
	}
}

func TestCourseCreateValidation(t *testing.T) {
	srv, _ := setup(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{name: "empty form", fields: map[string]string{}},
		{name: "bad email", fields: map[string]string{
			"course_name":      "Chemistry 101",
			"instructor_name":  "Dr. Okoye",
			"instructor_email": "nope",
			"class_days":       "monday",
			"start_date":       "2026-01-05",
			"end_date":         "2026-03-27",
		}},
		{name: "bad weekday", fields: map[string]string{
			"course_name":      "Chemistry 101",
			"instructor_name":  "Dr. Okoye",
			"instructor_email": "okoye@test.test",
			"class_days":       "mondayish",
			"start_date":       "2026-01-05",
			"end_date":         "2026-03-27",
		}},
		{name: "end before start", fields: map[string]string{
			"course_name":      "Chemistry 101",
			"instructor_name":  "Dr. Okoye",
			"instructor_email": "okoye@test.test",
			"class_days":       "monday",
			"start_date":       "2026-03-27",
			"end_date":         "2026-01-05",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newMultipartRequest(t, "/v1/courses", tt.fields, nil)
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCourseQuery(t *testing.T) {
	srv, repo := setup(t)
	c := seedCourse(t, repo)

	req, rec := newRequest(http.MethodGet, "/v1/courses")
	srv.ServeHTTP(rec, req)

	checkCodeAndData(t, rec, http.StatusOK, marchallObj(t, []course.Course{c}))
}

func TestCourseRetrieve(t *testing.T) {
	srv, repo := setup(t)
	c := seedCourse(t, repo)

	req, rec := newRequest(http.MethodGet, "/v1/courses/"+c.Key)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, rec, http.StatusOK, marchallObj(t, c))

	req, rec = newRequest(http.MethodGet, "/v1/courses/unknown")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}

func TestCourseDestroy(t *testing.T) {
	srv, repo := setup(t)
	c := seedCourse(t, repo)

	req, rec := newRequest(http.MethodDelete, "/v1/courses/"+c.Key)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d, want 204", rec.Code)
	}

	if _, err := repo.Get(c.Key); err != course.ErrNotFound {
		t.Errorf("course still stored after delete: %v", err)
	}

	req, rec = newRequest(http.MethodDelete, "/v1/courses/"+c.Key)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete code = %d, want 404", rec.Code)
	}
}

func TestCourseRegeneratePlan(t *testing.T) {
	srv, repo := setup(t)
	c := seedCourse(t, repo)

	req, rec := newRequest(http.MethodPost, "/v1/courses/"+c.Key+"/plan")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}

	var got course.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	// 3 Mondays between Jan 5 and Jan 19
	if len(got.Lessons) != 3 {
		t.Errorf("got %d lessons, want 3", len(got.Lessons))
	}
	if got.LessonPlanFormatted == "" {
		t.Error("formatted plan missing")
	}

	stored, err := repo.Get(c.Key)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Lessons) != 3 {
		t.Errorf("plan not persisted: %d lessons stored", len(stored.Lessons))
	}
}

func TestCourseRetrievePlan(t *testing.T) {
	srv, repo := setup(t)
	c := seedCourse(t, repo)

	req, rec := newRequest(http.MethodGet, "/v1/courses/"+c.Key+"/plan")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if got := rec.Body.String(); got != c.LessonPlanFormatted {
		t.Errorf("body = %q, want the formatted plan", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestCourseSendDocuments(t *testing.T) {
	srv, repo := setup(t)
	c := seedCourse(t, repo)

	req, rec := newRequest(http.MethodPost, "/v1/courses/"+c.Key+"/documents")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}

	req, rec = newRequest(http.MethodPost, "/v1/courses/unknown/documents")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}
