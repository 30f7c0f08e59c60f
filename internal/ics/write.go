// Package ics serializes calendar documents as RFC 2445 iCalendar text
// with CRLF line endings and 75-octet line folding.
package ics

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridcal/internal/model"
)

const (
	crlf = "\r\n"

	// maxLineOctets is the RFC 2445 physical line limit. Longer logical
	// lines are folded; continuation lines start with a single space.
	maxLineOctets = 75

	defaultProdID = "-//gridcal//timetable feed//EN"

	utcLayout = "20060102T150405Z"
)

// uidNamespace seeds the SHA1-based UUIDs used as event UIDs, so a given
// event always serializes with the same UID and output is reproducible.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gridcal"))

// vtimezone is the fixed Europe/London definition: clocks go forward an
// hour on the last Sunday of March and back on the last Sunday of
// October. Emitted literally, never computed.
var vtimezone = []string{
	"BEGIN:VTIMEZONE",
	"TZID:Europe/London",
	"BEGIN:DAYLIGHT",
	"TZOFFSETFROM:+0000",
	"TZOFFSETTO:+0100",
	"TZNAME:BST",
	"DTSTART:19700329T010000",
	"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU",
	"END:DAYLIGHT",
	"BEGIN:STANDARD",
	"TZOFFSETFROM:+0100",
	"TZOFFSETTO:+0000",
	"TZNAME:GMT",
	"DTSTART:19701025T020000",
	"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
	"END:STANDARD",
	"END:VTIMEZONE",
}

// Options control serialization. The zero value is ready to use.
type Options struct {
	// ProdID overrides the default PRODID value.
	ProdID string

	// UseDTEnd emits DTEND instead of an ISO-8601 DURATION.
	UseDTEnd bool
}

type property struct {
	name  string
	value string
}

// Marshal renders the document as iCalendar text. Given well-formed
// events serialization cannot fail.
func Marshal(doc model.Document, opts Options) []byte {
	var buf bytes.Buffer
	writeDocument(&buf, doc, opts)
	return buf.Bytes()
}

// Write renders the document to w.
func Write(w io.Writer, doc model.Document, opts Options) error {
	var buf bytes.Buffer
	writeDocument(&buf, doc, opts)
	_, err := buf.WriteTo(w)
	return err
}

func writeDocument(buf *bytes.Buffer, doc model.Document, opts Options) {
	prodID := opts.ProdID
	if prodID == "" {
		prodID = defaultProdID
	}

	writeLine(buf, "BEGIN:VCALENDAR")
	writeLine(buf, "PRODID:"+prodID)
	writeLine(buf, "VERSION:2.0")
	for _, line := range vtimezone {
		writeLine(buf, line)
	}
	for _, ev := range doc.Events {
		writeEvent(buf, ev, opts)
	}
	writeLine(buf, "END:VCALENDAR")
}

func writeEvent(buf *bytes.Buffer, ev model.Event, opts Options) {
	props := []property{
		{"DTSTART", ev.Start.UTC().Format(utcLayout)},
		{"RRULE", "FREQ=WEEKLY;COUNT=" + strconv.Itoa(ev.Count)},
		{"SUMMARY", escapeText(ev.Summary)},
		{"UID", eventUID(ev)},
	}

	if opts.UseDTEnd {
		end := ev.Start.Add(time.Duration(ev.DurationMinutes) * time.Minute)
		props = append(props, property{"DTEND", end.UTC().Format(utcLayout)})
	} else {
		props = append(props, property{"DURATION", "PT" + strconv.Itoa(ev.DurationMinutes) + "M"})
	}

	if len(ev.Exceptions) > 0 {
		parts := make([]string, 0, len(ev.Exceptions))
		for _, ex := range ev.Exceptions {
			parts = append(parts, ex.UTC().Format(utcLayout))
		}
		props = append(props, property{"EXDATE", strings.Join(parts, ",")})
	}

	if ev.Location != "" {
		props = append(props, property{"LOCATION", escapeText(ev.Location)})
	}

	// Stable property order keeps output reproducible across runs.
	sort.Slice(props, func(i, j int) bool { return props[i].name < props[j].name })

	writeLine(buf, "BEGIN:VEVENT")
	for _, p := range props {
		writeLine(buf, p.name+":"+p.value)
	}
	writeLine(buf, "END:VEVENT")
}

// eventUID derives a stable UID from the event content.
func eventUID(ev model.Event) string {
	seed := ev.Start.UTC().Format(utcLayout) + "/" + ev.Summary + "/" + ev.Location
	return uuid.NewSHA1(uidNamespace, []byte(seed)).String() + "@gridcal"
}

// writeLine folds one logical line to 75-octet physical lines and writes
// them CRLF-terminated. Every physical line of a folded sequence except
// the last is exactly 75 octets, continuations prefixed with one space.
func writeLine(buf *bytes.Buffer, line string) {
	if len(line) <= maxLineOctets {
		buf.WriteString(line)
		buf.WriteString(crlf)
		return
	}

	buf.WriteString(line[:maxLineOctets])
	buf.WriteString(crlf)
	rest := line[maxLineOctets:]

	// Continuation lines hold one octet less of content to make room
	// for the leading space.
	const chunk = maxLineOctets - 1
	for len(rest) > chunk {
		buf.WriteString(" ")
		buf.WriteString(rest[:chunk])
		buf.WriteString(crlf)
		rest = rest[chunk:]
	}
	buf.WriteString(" ")
	buf.WriteString(rest)
	buf.WriteString(crlf)
}

// escapeText escapes TEXT property values per RFC 2445.
func escapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ';':
			b.WriteString(`\;`)
		case ',':
			b.WriteString(`\,`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
