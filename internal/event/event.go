// Package event turns logically positioned lessons into weekly recurring
// calendar events with UTC instants.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/teambition/rrule-go"

	appLog "gridcal/internal/log"
	"gridcal/internal/model"
)

// slotMinutes is the length of one timetable period. Ten minutes of each
// period are a changeover buffer and excluded from the event duration.
const (
	slotMinutes      = 60
	changeoverBuffer = 10
)

// ErrBadTimeslot marks a lesson whose timeslot has no header time label.
var ErrBadTimeslot = errors.New("timeslot has no time label")

// london is the civil timezone of the source timetables. The embedded
// tzdata copy keeps conversion independent of the host zoneinfo.
var london *time.Location

func init() {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic("event: load Europe/London: " + err.Error())
	}
	london = loc
}

// Builder converts lessons for one teaching period. CourseNames is an
// optional read-only code-to-name map shared across conversions.
type Builder struct {
	// PeriodStart is the calendar date of the period's first Monday.
	PeriodStart time.Time

	// TimeLabels holds the header-row display time ("09:15") per timeslot.
	TimeLabels []string

	// CourseNames maps a course code (the subject up to its first dash)
	// to a human-readable name appended to the summary.
	CourseNames map[string]string

	// Strict aborts BuildAll on the first failing lesson instead of
	// skipping it.
	Strict bool
}

// Build produces one recurring event from a lesson. The event recurs
// weekly over the full min..max span of the lesson's week range; weeks
// inside that span the lesson skips become exception instants.
func (b *Builder) Build(lesson model.Lesson) (model.Event, error) {
	if lesson.Timeslot < 0 || lesson.Timeslot >= len(b.TimeLabels) {
		return model.Event{}, fmt.Errorf("%w: slot %d of %d", ErrBadTimeslot, lesson.Timeslot, len(b.TimeLabels))
	}

	label := b.TimeLabels[lesson.Timeslot]
	clock, err := time.Parse("15:04", strings.TrimSpace(label))
	if err != nil {
		return model.Event{}, fmt.Errorf("time label %q: %w", label, err)
	}

	min, err := lesson.Weeks.Min()
	if err != nil {
		return model.Event{}, err
	}
	max, err := lesson.Weeks.Max()
	if err != nil {
		return model.Event{}, err
	}
	count := max - min + 1

	// First occurrence: the lesson's weekday in the first active week,
	// at the slot's wall-clock time in London local time.
	base := b.PeriodStart.AddDate(0, 0, lesson.Day+7*(min-1))
	first := time.Date(base.Year(), base.Month(), base.Day(),
		clock.Hour(), clock.Minute(), 0, 0, london)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   count,
		Dtstart: first,
	})
	if err != nil {
		return model.Event{}, fmt.Errorf("recurrence for %q: %w", lesson.Subject, err)
	}

	var exceptions []time.Time
	instants := rule.All()
	for i, inst := range instants {
		if !lesson.Weeks.Contains(min + i) {
			exceptions = append(exceptions, inst.UTC())
		}
	}

	return model.Event{
		Start:           instants[0].UTC(),
		DurationMinutes: lesson.Slots*slotMinutes - changeoverBuffer,
		Count:           count,
		Exceptions:      exceptions,
		Summary:         b.summary(lesson),
		Location:        lesson.Room,
	}, nil
}

// BuildAll converts a batch of lessons. In strict mode the first failure
// aborts the batch; otherwise failing lessons are logged and skipped.
func (b *Builder) BuildAll(lessons []model.Lesson) ([]model.Event, error) {
	events := make([]model.Event, 0, len(lessons))
	for _, lesson := range lessons {
		ev, err := b.Build(lesson)
		if err != nil {
			if b.Strict {
				return nil, err
			}
			appLog.Error("event build failed, skipping lesson", err, "subject", lesson.Subject)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (b *Builder) summary(lesson model.Lesson) string {
	summary := lesson.Subject + " " + lesson.Room
	if len(b.CourseNames) == 0 {
		return summary
	}

	code := lesson.Subject
	if i := strings.Index(code, "-"); i >= 0 {
		code = code[:i]
	}
	name, ok := b.CourseNames[code]
	if !ok {
		appLog.Warn("course code not in name table", "code", code, "subject", lesson.Subject)
		return summary
	}
	return summary + " " + name
}
