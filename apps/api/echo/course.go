package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/document"
)

type courseApi struct {
	svc    *course.Service
	conf   *core.Config
	logger core.Logger
}

func registerCourseAPI(g *echo.Group, svc *course.Service, conf *core.Config, logger core.Logger) {
	api := courseApi{svc: svc, conf: conf, logger: logger}

	cg := g.Group("/courses")
	cg.POST("", api.create)
	cg.GET("", api.query)

	dg := cg.Group("/:key")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/plan", api.regeneratePlan)
	dg.GET("/plan", api.retrievePlan)
	dg.POST("/documents", api.sendDocuments)
}

// Handlers

// create sets up a new course from a multipart form: the course fields plus
// the course material PDF under "document".
func (api *courseApi) create(ctx echo.Context) error {
	data, err := bindNewCourse(ctx)
	if err != nil {
		return err
	}
	if err = data.Validate(); err != nil {
		return err
	}

	fh, err := ctx.FormFile("document")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "document", Error: "a course document is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded document")
	}
	defer f.Close()

	pages, err := document.ExtractPagesFromReader(f, fh.Size)
	if err != nil {
		return core.NewValidationError(errors.New("the uploaded document could not be read as a PDF"))
	}

	c, err := api.svc.SetupFromPages(ctx.Request().Context(), data, pages)
	if err != nil {
		return errors.Wrap(err, "setting up course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.All()
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Param("key"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("key")); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) regeneratePlan(ctx echo.Context) error {
	c, err := api.svc.RegeneratePlan(ctx.Request().Context(), ctx.Param("key"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "regenerating plan")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) retrievePlan(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Param("key"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting course")
	}
	if c.LessonPlanFormatted == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no lesson plan generated yet")
	}
	return ctx.String(http.StatusOK, c.LessonPlanFormatted)
}

func (api *courseApi) sendDocuments(ctx echo.Context) error {
	key := ctx.Param("key")
	if err := api.svc.SendDocuments(key); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "sending course documents")
	}
	return ctx.JSON(http.StatusAccepted, echo.Map{"status": "queued"})
}

// Bindings

// bindNewCourse reads the course fields out of the (multipart) form. Dates
// and weekdays arrive as strings and are converted here; conversion problems
// come back as field errors, not 500s.
func bindNewCourse(ctx echo.Context) (course.NewCourse, error) {
	nc := course.NewCourse{
		Name:            ctx.FormValue("course_name"),
		InstructorName:  ctx.FormValue("instructor_name"),
		InstructorEmail: ctx.FormValue("instructor_email"),
		Students:        ctx.FormValue("students"),
	}

	var flds []core.FieldError

	days, err := parseWeekdays(ctx.FormValue("class_days"))
	if err != nil {
		flds = append(flds, core.FieldError{Field: "class_days", Error: err.Error()})
	}
	nc.ClassDays = days

	if v := ctx.FormValue("start_date"); v != "" {
		if nc.StartDate, err = course.ParseDate(v); err != nil {
			flds = append(flds, core.FieldError{Field: "start_date", Error: "expected format " + course.DateFormat})
		}
	}
	if v := ctx.FormValue("end_date"); v != "" {
		if nc.EndDate, err = course.ParseDate(v); err != nil {
			flds = append(flds, core.FieldError{Field: "end_date", Error: "expected format " + course.DateFormat})
		}
	}
	if v := ctx.FormValue("allowed_devices"); v != "" {
		if nc.AllowedDevices, err = strconv.Atoi(v); err != nil {
			flds = append(flds, core.FieldError{Field: "allowed_devices", Error: "expected a number"})
		}
	}

	if len(flds) > 0 {
		return nc, core.NewValidationError(nil, flds...)
	}
	return nc, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// parseWeekdays accepts a comma-separated list of day names ("monday") or
// numbers (0=Sunday .. 6=Saturday).
func parseWeekdays(input string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(input, ",") {
		part = strings.ToLower(core.CleanString(part))
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			days = append(days, time.Weekday(n))
			continue
		}
		day, ok := weekdayNames[part]
		if !ok {
			return nil, errors.Errorf("unknown weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}
