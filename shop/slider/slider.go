// Package slider implements the circular cursor behind the skin and
// exterior photo carousels.
package slider

import (
	"errors"
	"fmt"

	cb "github.com/m3rciful/skinshop/shop/callbackdata"
)

// ErrEmptySequence is returned when a slider would have no items.
var ErrEmptySequence = errors.New("slider: empty sequence")

// Slider is a cursor over Items. Pos is always in [0, len(Items)).
type Slider[T any] struct {
	Items []T `json:"items"`
	Pos   int `json:"pos"`
}

// Build returns a slider positioned at start, clamped into range.
func Build[T any](items []T, start int) (Slider[T], error) {
	if len(items) == 0 {
		return Slider[T]{}, ErrEmptySequence
	}
	start = max(0, min(start, len(items)-1))
	return Slider[T]{Items: items, Pos: start}, nil
}

// Count returns the number of items.
func (s Slider[T]) Count() int { return len(s.Items) }

// Current returns the item under the cursor.
func (s Slider[T]) Current() T { return s.Items[s.Pos] }

// Valid reports whether the cursor invariant holds, e.g. after decoding.
func (s Slider[T]) Valid() bool { return s.Pos >= 0 && s.Pos < len(s.Items) }

// Advance moves the cursor one step, wrapping at both ends, and reports
// whether the position changed. A single-item slider never moves.
func (s Slider[T]) Advance(dir cb.Direction) (Slider[T], bool) {
	n := len(s.Items)
	if n <= 1 {
		return s, false
	}
	next := s
	switch dir {
	case cb.Prev:
		next.Pos = (s.Pos - 1 + n) % n
	case cb.Next:
		next.Pos = (s.Pos + 1) % n
	default:
		return s, false
	}
	return next, next.Pos != s.Pos
}

// Item is a renderable slider entry.
type Item interface {
	ImageRef() string
	Caption() string
	// Select is the payload of the item's buy button.
	Select() cb.Callback
}

// View is everything needed to draw the current slider page.
type View struct {
	Image    string
	Caption  string
	Position string
	Buy      cb.Callback
	Back     cb.Callback
	Prev     cb.Callback
	Next     cb.Callback
}

// Render produces the view of the current item for the slider at level.
func Render[T Item](s Slider[T], level cb.Level) View {
	it := s.Current()
	return View{
		Image:    it.ImageRef(),
		Caption:  it.Caption(),
		Position: fmt.Sprintf("%d/%d", s.Pos+1, s.Count()),
		Buy:      it.Select(),
		Back:     cb.Back{From: string(level)},
		Prev:     cb.Nav{Level: level, Dir: cb.Prev},
		Next:     cb.Nav{Level: level, Dir: cb.Next},
	}
}
