// Package ladder implements the ladder path game: a ball dropped on one of four
// lanes follows horizontal rungs down to a left or right exit.
package ladder

import (
	"fmt"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/attaboy/faketoto/internal/rng"
)

const (
	// Lanes is the number of vertical lanes, numbered 1..Lanes for start selection.
	Lanes = 4
	// DefaultRungCount is the number of rung rows in a generated layout.
	DefaultRungCount = 6
)

// Side is the exit of the ladder the ball lands on.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide validates a side name.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Left, Right:
		return Side(s), nil
	}
	return "", domain.ErrInvalidSelection(fmt.Sprintf("side must be %q or %q, got %q", Left, Right, s))
}

// Layout is one rung per row. Rung r connects lanes r and r+1 (0-indexed), r in {0,1,2}.
type Layout []int

// GenerateLayout draws n rows. Each row is uniform over {0,1,2} minus the previous row's rung.
func GenerateLayout(src rng.Source, n int) Layout {
	layout := make(Layout, 0, n)
	prev := -1
	for i := 0; i < n; i++ {
		options := make([]int, 0, Lanes-1)
		for r := 0; r < Lanes-1; r++ {
			if r != prev {
				options = append(options, r)
			}
		}
		prev = options[src.Intn(len(options))]
		layout = append(layout, prev)
	}
	return layout
}

// Validate checks every rung is in range and no two adjacent rows repeat.
func (l Layout) Validate() error {
	for i, r := range l {
		if r < 0 || r >= Lanes-1 {
			return domain.ErrValidation(fmt.Sprintf("rung %d at row %d out of range", r, i))
		}
		if i > 0 && l[i-1] == r {
			return domain.ErrValidation(fmt.Sprintf("rows %d and %d share rung %d", i-1, i, r))
		}
	}
	return nil
}

func step(pos, rung int) int {
	switch pos {
	case rung:
		return pos + 1
	case rung + 1:
		return pos - 1
	}
	return pos
}

// TracePath returns the ball's 0-indexed lane before the first row and after each row.
func TracePath(startLane int, layout Layout) ([]int, error) {
	if startLane < 1 || startLane > Lanes {
		return nil, domain.ErrValidation(fmt.Sprintf("start lane must be 1..%d, got %d", Lanes, startLane))
	}
	pos := startLane - 1
	path := make([]int, 0, len(layout)+1)
	path = append(path, pos)
	for _, rung := range layout {
		pos = step(pos, rung)
		path = append(path, pos)
	}
	return path, nil
}

// Traverse returns the exit side for a start lane: final lanes 0 and 1 exit left, 2 and 3 right.
func Traverse(startLane int, layout Layout) (Side, error) {
	path, err := TracePath(startLane, layout)
	if err != nil {
		return "", err
	}
	return SideOf(path[len(path)-1]), nil
}

// SideOf maps a 0-indexed lane to its exit side.
func SideOf(lane int) Side {
	if lane < Lanes/2 {
		return Left
	}
	return Right
}
