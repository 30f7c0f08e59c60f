package model

import (
	"time"

	"gridcal/internal/weeks"
)

// Lesson is one populated timetable cell located on the logical grid.
// Day is a 0-based offset from the Monday the teaching period starts on,
// Timeslot indexes the header-row time labels, and Slots is the number of
// consecutive one-hour periods the class occupies (the cell's colspan).
type Lesson struct {
	Day      int
	Timeslot int
	Slots    int

	Subject string
	Room    string
	Weeks   weeks.Range
}

// Event is a weekly recurring calendar event ready for serialization.
// All instants are UTC.
type Event struct {
	Start           time.Time
	DurationMinutes int

	// Count is the RRULE COUNT: the full min..max week span, including
	// weeks the class skips. Skipped weeks appear in Exceptions instead.
	Count      int
	Exceptions []time.Time

	Summary  string
	Location string
}

// Document is one complete calendar: the events of a single timetable
// conversion. It is serialized and then discarded.
type Document struct {
	Events []Event
}
