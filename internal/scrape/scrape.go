// Package scrape extracts the timetable grid from a fetched HTML page.
// Timetable pages carry several tables; the timetable itself is the one
// with the largest total cell count.
package scrape

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"gridcal/internal/timetable"
)

// ErrNoTablesFound marks a page without a single table.
var ErrNoTablesFound = errors.New("no tables found in page")

// Timetable parses the page and returns the grid of the table with the
// most cells, with rowspan/colspan attributes preserved and cell text
// split into lines on <br>.
func Timetable(r io.Reader) (timetable.Grid, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var best timetable.Grid
	bestCells := -1
	for _, tbl := range findTables(doc) {
		grid := tableGrid(tbl)
		cells := 0
		for _, row := range grid {
			cells += len(row)
		}
		if cells > bestCells {
			best = grid
			bestCells = cells
		}
	}

	if best == nil {
		return nil, ErrNoTablesFound
	}
	return best, nil
}

func findTables(n *html.Node) []*html.Node {
	var tables []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, n)
			// Nested tables count as their own candidates.
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return tables
}

func tableGrid(tbl *html.Node) timetable.Grid {
	var grid timetable.Grid
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			grid = append(grid, rowCells(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			// Do not descend into nested tables.
			if c.Type == html.ElementNode && c.Data == "table" {
				continue
			}
			visit(c)
		}
	}
	visit(tbl)
	return grid
}

func rowCells(tr *html.Node) []timetable.Cell {
	var cells []timetable.Cell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cells = append(cells, timetable.Cell{
			Lines:   cellLines(c),
			RowSpan: intAttr(c, "rowspan", 1),
			ColSpan: intAttr(c, "colspan", 1),
		})
	}
	return cells
}

// cellLines collects the cell's text content, starting a new line at
// each <br>. Blank lines are dropped, so a cell holding only whitespace
// is an empty (free period) cell.
func cellLines(cell *html.Node) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			current.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			flush()
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		}
	}
	for c := cell.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	flush()

	return lines
}

func intAttr(n *html.Node, name string, def int) int {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 0 {
				return v
			}
			return def
		}
	}
	return def
}
