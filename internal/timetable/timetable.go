// Package timetable models a weekly class schedule as the rectangular
// cell grid an HTML table parser produces, and walks that grid into
// logically positioned lessons.
package timetable

import (
	"errors"
	"fmt"

	"gridcal/internal/model"
	"gridcal/internal/weeks"
)

// Walk errors. All are structural: the first one aborts the whole
// conversion with no partial output, since a misread cell usually means
// the wrong table was selected or the source layout changed.
var (
	// ErrTableTooSmall marks a grid without a header row plus at least
	// one data row and one timeslot column.
	ErrTableTooSmall = errors.New("timetable grid too small")
	// ErrMalformedCell marks a populated cell without exactly three
	// lines (subject, room, week list).
	ErrMalformedCell = errors.New("malformed timetable cell")
	// ErrTooManyDays marks a grid whose column-0 row spans describe more
	// than a five-day teaching week.
	ErrTooManyDays = errors.New("timetable has more than five day groups")
)

// daysPerWeek is the number of day groups a timetable may describe.
// The grids handled here cover weekdays only.
const daysPerWeek = 5

// Cell is one table cell after markup parsing. A cell with no lines is a
// free period; a populated cell must carry exactly subject, room and
// week list.
type Cell struct {
	Lines   []string
	RowSpan int
	ColSpan int
}

func (c Cell) rowSpan() int {
	if c.RowSpan < 1 {
		return 1
	}
	return c.RowSpan
}

func (c Cell) colSpan() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// Grid is the selected timetable table: row 0 is the header row carrying
// the display time label for each timeslot column, and column 0 of the
// data rows groups rows into days via its row span.
type Grid [][]Cell

// walkState is the traversal position while scanning data rows. The day
// counter advances when the current day's worth of physical rows (given
// by the row span of its column-0 label cell) has been consumed.
type walkState struct {
	day                int
	rowsUntilNextDay   int
	justIncrementedDay bool
}

// Walk traverses the grid and returns one Lesson per populated cell plus
// the header-row time labels, indexed by timeslot. It fails fast on the
// first malformed cell or invalid week list.
func Walk(g Grid) ([]model.Lesson, []string, error) {
	if len(g) < 2 {
		return nil, nil, fmt.Errorf("%w: %d rows", ErrTableTooSmall, len(g))
	}
	widest := 0
	for _, row := range g {
		if len(row) > widest {
			widest = len(row)
		}
	}
	if widest < 2 {
		return nil, nil, fmt.Errorf("%w: %d columns", ErrTableTooSmall, widest)
	}

	// Header row: columns 1..N carry the display time per timeslot.
	times := make([]string, 0, len(g[0])-1)
	for _, cell := range g[0][1:] {
		label := ""
		if len(cell.Lines) > 0 {
			label = cell.Lines[0]
		}
		times = append(times, label)
	}

	rows := g[1:]
	st := walkState{
		day:                0,
		rowsUntilNextDay:   labelRowSpan(rows[0]),
		justIncrementedDay: true,
	}

	var lessons []model.Lesson

	for i, row := range rows {
		// Column 0 holds the day label only on the row where that label
		// cell is rendered; on the day's remaining rows the span of the
		// label cell means scanning starts at column 0.
		startCol := 0
		if st.justIncrementedDay {
			startCol = 1
		}
		st.justIncrementedDay = false

		timeslot := 0
		for col := startCol; col < len(row); col++ {
			cell := row[col]
			if len(cell.Lines) == 0 {
				timeslot += cell.colSpan()
				continue
			}

			lesson, err := parseLesson(cell, st.day, timeslot)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d col %d: %w", i+1, col, err)
			}
			lessons = append(lessons, lesson)
			timeslot += cell.colSpan()
		}

		st.rowsUntilNextDay--
		if st.rowsUntilNextDay == 0 && i+1 < len(rows) {
			st.day++
			if st.day >= daysPerWeek {
				return nil, nil, ErrTooManyDays
			}
			st.justIncrementedDay = true
			st.rowsUntilNextDay = labelRowSpan(rows[i+1])
		}
	}

	return lessons, times, nil
}

// labelRowSpan is the row span of a row's day label cell. An empty row
// contributes a single physical row.
func labelRowSpan(row []Cell) int {
	if len(row) == 0 {
		return 1
	}
	return row[0].rowSpan()
}

// parseLesson converts a populated cell at a known logical position. The
// cell must carry exactly subject, room and week list.
func parseLesson(cell Cell, day, timeslot int) (model.Lesson, error) {
	if len(cell.Lines) != 3 {
		return model.Lesson{}, fmt.Errorf("%w: %d lines", ErrMalformedCell, len(cell.Lines))
	}

	wr, err := weeks.Parse(cell.Lines[2])
	if err != nil {
		return model.Lesson{}, err
	}
	if wr.Len() == 0 {
		return model.Lesson{}, fmt.Errorf("%w: week list %q has no members", ErrMalformedCell, cell.Lines[2])
	}

	return model.Lesson{
		Day:      day,
		Timeslot: timeslot,
		Slots:    cell.colSpan(),
		Subject:  cell.Lines[0],
		Room:     cell.Lines[1],
		Weeks:    wr,
	}, nil
}
