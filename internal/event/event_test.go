package event

import (
	"testing"
	"time"

	"gridcal/internal/model"
	"gridcal/internal/weeks"
)

// periodStart is Monday 2012-02-06, the first Monday of a real teaching
// period used throughout these tests.
var periodStart = time.Date(2012, 2, 6, 0, 0, 0, 0, time.UTC)

func mustWeeks(t *testing.T, s string) weeks.Range {
	t.Helper()
	r, err := weeks.Parse(s)
	if err != nil {
		t.Fatalf("weeks.Parse(%q) returned error: %v", s, err)
	}
	return r
}

func TestBuildBasics(t *testing.T) {
	b := &Builder{
		PeriodStart: periodStart,
		TimeLabels:  []string{"09:15", "10:15"},
	}

	ev, err := b.Build(model.Lesson{
		Day:      0,
		Timeslot: 0,
		Slots:    1,
		Subject:  "CM20218-Leca",
		Room:     "1.1",
		Weeks:    mustWeeks(t, "6-20"),
	})
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	// Week 6 starts five weeks after the period start; February is GMT,
	// so 09:15 local is 09:15 UTC.
	wantStart := time.Date(2012, 3, 12, 9, 15, 0, 0, time.UTC)
	if !ev.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", ev.Start, wantStart)
	}
	if ev.Count != 15 {
		t.Errorf("Count = %d, want 15", ev.Count)
	}
	if len(ev.Exceptions) != 0 {
		t.Errorf("Exceptions = %v, want none", ev.Exceptions)
	}
	if ev.DurationMinutes != 50 {
		t.Errorf("DurationMinutes = %d, want 50", ev.DurationMinutes)
	}
	if ev.Summary != "CM20218-Leca 1.1" {
		t.Errorf("Summary = %q, want %q", ev.Summary, "CM20218-Leca 1.1")
	}
	if ev.Location != "1.1" {
		t.Errorf("Location = %q, want %q", ev.Location, "1.1")
	}
}

func TestBuildExceptionsCoverGaps(t *testing.T) {
	b := &Builder{
		PeriodStart: periodStart,
		TimeLabels:  []string{"09:15"},
	}

	ev, err := b.Build(model.Lesson{
		Slots:   1,
		Subject: "CM20218-Leca",
		Room:    "1.1",
		Weeks:   mustWeeks(t, "1-5,7"),
	})
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if ev.Count != 7 {
		t.Errorf("Count = %d, want 7", ev.Count)
	}
	if len(ev.Exceptions) != 1 {
		t.Fatalf("got %d exceptions, want 1 (week 6 only)", len(ev.Exceptions))
	}

	// Week 6 is five weeks after the first occurrence.
	wantEx := time.Date(2012, 3, 12, 9, 15, 0, 0, time.UTC)
	if !ev.Exceptions[0].Equal(wantEx) {
		t.Errorf("exception = %v, want %v", ev.Exceptions[0], wantEx)
	}
}

func TestBuildDSTBoundary(t *testing.T) {
	// Weeks 7 and 8 of this period straddle the last Sunday of March
	// 2012 (the 25th): 09:15 local is 09:15 UTC before the transition
	// and 08:15 UTC after it.
	b := &Builder{
		PeriodStart: periodStart,
		TimeLabels:  []string{"09:15"},
	}

	ev, err := b.Build(model.Lesson{
		Slots:   1,
		Subject: "CM20218-Leca",
		Room:    "1.1",
		Weeks:   mustWeeks(t, "7,9"),
	})
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	wantStart := time.Date(2012, 3, 19, 9, 15, 0, 0, time.UTC)
	if !ev.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v (GMT side of the transition)", ev.Start, wantStart)
	}

	if len(ev.Exceptions) != 1 {
		t.Fatalf("got %d exceptions, want 1 (week 8)", len(ev.Exceptions))
	}
	wantEx := time.Date(2012, 3, 26, 8, 15, 0, 0, time.UTC)
	if !ev.Exceptions[0].Equal(wantEx) {
		t.Errorf("exception = %v, want %v (BST side of the transition)", ev.Exceptions[0], wantEx)
	}
}

func TestBuildWideSlotDuration(t *testing.T) {
	b := &Builder{
		PeriodStart: periodStart,
		TimeLabels:  []string{"09:15", "10:15"},
	}

	ev, err := b.Build(model.Lesson{
		Slots:   2,
		Subject: "CM20218-Lab",
		Room:    "1.1",
		Weeks:   mustWeeks(t, "1-2"),
	})
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	if ev.DurationMinutes != 110 {
		t.Errorf("DurationMinutes = %d, want 110", ev.DurationMinutes)
	}
}

func TestBuildCourseNames(t *testing.T) {
	b := &Builder{
		PeriodStart: periodStart,
		TimeLabels:  []string{"09:15"},
		CourseNames: map[string]string{"CM20218": "Programming II"},
	}

	resolved, err := b.Build(model.Lesson{
		Slots: 1, Subject: "CM20218-Leca", Room: "1.1", Weeks: mustWeeks(t, "1-2"),
	})
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	if resolved.Summary != "CM20218-Leca 1.1 Programming II" {
		t.Errorf("Summary = %q, want course name appended", resolved.Summary)
	}

	// An unresolved code degrades to the bare summary, not an error.
	unresolved, err := b.Build(model.Lesson{
		Slots: 1, Subject: "XX10001-Leca", Room: "2.2", Weeks: mustWeeks(t, "1-2"),
	})
	if err != nil {
		t.Fatalf("Build() returned error for unresolved code: %v", err)
	}
	if unresolved.Summary != "XX10001-Leca 2.2" {
		t.Errorf("Summary = %q, want %q", unresolved.Summary, "XX10001-Leca 2.2")
	}
}

func TestBuildBadTimeslot(t *testing.T) {
	b := &Builder{
		PeriodStart: periodStart,
		TimeLabels:  []string{"09:15"},
	}

	_, err := b.Build(model.Lesson{
		Timeslot: 3, Slots: 1, Subject: "CM20218-Leca", Room: "1.1", Weeks: mustWeeks(t, "1-2"),
	})
	if err == nil {
		t.Fatal("Build() succeeded with a timeslot beyond the time labels")
	}
}

func TestBuildAllStrict(t *testing.T) {
	good := model.Lesson{Slots: 1, Subject: "CM20218-Leca", Room: "1.1", Weeks: mustWeeks(t, "1-2")}
	bad := model.Lesson{Timeslot: 9, Slots: 1, Subject: "CM20219-Semi", Room: "2.2", Weeks: mustWeeks(t, "1-2")}

	strict := &Builder{PeriodStart: periodStart, TimeLabels: []string{"09:15"}, Strict: true}
	if _, err := strict.BuildAll([]model.Lesson{good, bad}); err == nil {
		t.Error("strict BuildAll() succeeded with a failing lesson")
	}

	lax := &Builder{PeriodStart: periodStart, TimeLabels: []string{"09:15"}}
	events, err := lax.BuildAll([]model.Lesson{good, bad})
	if err != nil {
		t.Fatalf("BuildAll() returned error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("BuildAll() kept %d events, want 1", len(events))
	}
}
