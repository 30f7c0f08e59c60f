// Package weeks parses the compact week lists used by timetable cells
// ("6,9-15") into queryable sets of teaching week numbers.
package weeks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinWeek and MaxWeek bound the numbering a timetable may use.
	MinWeek = 1
	MaxWeek = 52
)

var (
	// ErrOutOfBounds marks a week number outside [MinWeek, MaxWeek].
	ErrOutOfBounds = errors.New("week number out of bounds")
	// ErrEmptyRange marks a range with no members.
	ErrEmptyRange = errors.New("week range is empty")
	// ErrSyntax marks a week list that does not match the grammar.
	ErrSyntax = errors.New("malformed week list")
)

// Range is a set of week numbers in [MinWeek, MaxWeek].
type Range struct {
	members map[int]struct{}
}

// Parse builds a Range from a comma-separated week list. Each token is a
// bare integer or an inclusive "a-b" span; all whitespace is ignored. A
// span with a > b contributes no members. Any member outside
// [MinWeek, MaxWeek] fails with ErrOutOfBounds.
func Parse(text string) (Range, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, text)

	members := make(map[int]struct{})

	for _, token := range strings.Split(cleaned, ",") {
		if token == "" {
			continue
		}

		lo, hi, err := parseToken(token)
		if err != nil {
			return Range{}, err
		}
		for w := lo; w <= hi; w++ {
			if w < MinWeek || w > MaxWeek {
				return Range{}, fmt.Errorf("%w: %d", ErrOutOfBounds, w)
			}
			members[w] = struct{}{}
		}
	}

	return Range{members: members}, nil
}

func parseToken(token string) (lo, hi int, err error) {
	if i := strings.Index(token, "-"); i >= 0 {
		lo, err = strconv.Atoi(token[:i])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrSyntax, token)
		}
		hi, err = strconv.Atoi(token[i+1:])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrSyntax, token)
		}
		return lo, hi, nil
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrSyntax, token)
	}
	return n, n, nil
}

// Contains reports whether week w is a member.
func (r Range) Contains(w int) bool {
	_, ok := r.members[w]
	return ok
}

// Len returns the number of members.
func (r Range) Len() int {
	return len(r.members)
}

// Min returns the smallest member, or ErrEmptyRange if there are none.
func (r Range) Min() (int, error) {
	if len(r.members) == 0 {
		return 0, ErrEmptyRange
	}
	min := MaxWeek + 1
	for w := range r.members {
		if w < min {
			min = w
		}
	}
	return min, nil
}

// Max returns the largest member, or ErrEmptyRange if there are none.
func (r Range) Max() (int, error) {
	if len(r.members) == 0 {
		return 0, ErrEmptyRange
	}
	max := MinWeek - 1
	for w := range r.members {
		if w > max {
			max = w
		}
	}
	return max, nil
}
