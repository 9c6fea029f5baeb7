package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/notify"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	ctx        context.Context
	svc        *course.Service
	dispatcher *notify.Dispatcher
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  setup -name NAME -instructor NAME -email EMAIL -days DAYS -start DATE -end DATE -document PDF [-roster FILE] [-devices N] - set up a new course")
	fmt.Println("  list - list configured courses")
	fmt.Println("  plan -name NAME - regenerate a course's lesson plan")
	fmt.Println("  send -name NAME - email the syllabus and lesson plan")
	fmt.Println("  runjob -name reminders|progress - run a scheduled job now")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	setupCmd := flag.NewFlagSet("setup", flag.ExitOnError)
	setupName := setupCmd.String("name", "", "The course name.")
	setupInstructor := setupCmd.String("instructor", "", "The instructor's name.")
	setupEmail := setupCmd.String("email", "", "The instructor's email.")
	setupDays := setupCmd.String("days", "", "Comma-separated class weekdays, 0=Sunday .. 6=Saturday.")
	setupStart := setupCmd.String("start", "", "Term start date, "+course.DateFormat+".")
	setupEnd := setupCmd.String("end", "", "Term end date, "+course.DateFormat+".")
	setupDocument := setupCmd.String("document", "", "Path to the course material PDF.")
	setupRoster := setupCmd.String("roster", "", "Path to the student roster, one student per line.")
	setupDevices := setupCmd.Int("devices", 0, "Allowed devices per student (optional).")

	planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
	planName := planCmd.String("name", "", "The course name or key.")

	sendCmd := flag.NewFlagSet("send", flag.ExitOnError)
	sendName := sendCmd.String("name", "", "The course name or key.")

	runJobCmd := flag.NewFlagSet("runjob", flag.ExitOnError)
	runJobName := runJobCmd.String("name", "", `The job to run: "reminders" or "progress".`)

	switch args[1] {
	case "setup":
		if err := setupCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setupName == "" || *setupDocument == "" {
			setupCmd.Usage()
			return errHelp
		}
		return cli.setup(setupArgs{
			name:       *setupName,
			instructor: *setupInstructor,
			email:      *setupEmail,
			days:       *setupDays,
			start:      *setupStart,
			end:        *setupEnd,
			document:   *setupDocument,
			roster:     *setupRoster,
			devices:    *setupDevices,
		})
	case "list":
		return cli.list()
	case "plan":
		if err := planCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *planName == "" {
			planCmd.Usage()
			return errHelp
		}
		return cli.plan(*planName)
	case "send":
		if err := sendCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *sendName == "" {
			sendCmd.Usage()
			return errHelp
		}
		return cli.send(*sendName)
	case "runjob":
		if err := runJobCmd.Parse(args[2:]); err != nil {
			return err
		}
		switch *runJobName {
		case "reminders":
			return cli.dispatcher.RunReminders(cli.ctx)
		case "progress":
			return cli.dispatcher.RunProgressChecks(cli.ctx)
		default:
			runJobCmd.Usage()
			return errHelp
		}
	default:
		cli.printUsage()
		return errHelp
	}
}

type setupArgs struct {
	name       string
	instructor string
	email      string
	days       string
	start      string
	end        string
	document   string
	roster     string
	devices    int
}

func (cli *commandLine) setup(args setupArgs) error {
	days, err := parseWeekdays(args.days)
	if err != nil {
		return err
	}
	start, err := course.ParseDate(args.start)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}
	end, err := course.ParseDate(args.end)
	if err != nil {
		return fmt.Errorf("parsing -end: %w", err)
	}

	var students string
	if args.roster != "" {
		roster, err := os.ReadFile(args.roster)
		if err != nil {
			return fmt.Errorf("reading roster: %w", err)
		}
		students = string(roster)
	}

	nc := course.NewCourse{
		Name:            args.name,
		InstructorName:  args.instructor,
		InstructorEmail: args.email,
		ClassDays:       days,
		StartDate:       start,
		EndDate:         end,
		AllowedDevices:  args.devices,
		Students:        students,
	}
	if err = nc.Validate(); err != nil {
		return err
	}

	c, err := cli.svc.Setup(cli.ctx, nc, args.document)
	if err != nil {
		return err
	}
	fmt.Printf("course %q set up: %d section(s), %d student(s)\n", c.Key, len(c.Sections), len(c.Students))
	return nil
}

func (cli *commandLine) list() error {
	courses, err := cli.svc.All()
	if err != nil {
		return err
	}
	for _, c := range courses {
		fmt.Printf("%s\t%s\t%s to %s\t%d lesson(s)\n", c.Key, c.Name, c.StartDate, c.EndDate, len(c.Lessons))
	}
	return nil
}

func (cli *commandLine) plan(name string) error {
	c, err := cli.svc.RegeneratePlan(cli.ctx, courseKey(name))
	if err != nil {
		return err
	}
	fmt.Println(c.LessonPlanFormatted)
	return nil
}

func (cli *commandLine) send(name string) error {
	if err := cli.svc.SendDocuments(courseKey(name)); err != nil {
		return err
	}
	fmt.Println("documents queued")
	return nil
}

// courseKey lets operators pass either the display name or the stored key.
func courseKey(name string) string {
	return core.NormalizeKey(name)
}

func parseWeekdays(input string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, r := range input {
		switch {
		case r == ',' || r == ' ':
			continue
		case r >= '0' && r <= '6':
			days = append(days, time.Weekday(r-'0'))
		default:
			return nil, fmt.Errorf("invalid -days value %q: expected digits 0-6", input)
		}
	}
	return days, nil
}
