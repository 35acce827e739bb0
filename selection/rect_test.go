package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectEmpty(t *testing.T) {
	assert.True(t, Rect{}.Empty())
	assert.True(t, Rect{Width: 10}.Empty())
	assert.True(t, Rect{Height: 10}.Empty())
	assert.False(t, Rect{Width: 1, Height: 1}.Empty())
}

func TestRectContainsIsStrict(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}

	assert.True(t, r.Contains(Point{X: 20, Y: 20}))
	// Edges and corners are not interior.
	assert.False(t, r.Contains(Point{X: 10, Y: 20}))
	assert.False(t, r.Contains(Point{X: 30, Y: 20}))
	assert.False(t, r.Contains(Point{X: 10, Y: 10}))
	assert.False(t, r.Contains(Point{X: 5, Y: 20}))
}

func TestHandleAt(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 50, Height: 50}

	tests := []struct {
		name     string
		p        Point
		expected Handle
	}{
		{name: "nw corner exact", p: Point{X: 100, Y: 100}, expected: HandleNW},
		{name: "nw zone edge", p: Point{X: 96, Y: 104}, expected: HandleNW},
		{name: "ne corner", p: Point{X: 150, Y: 100}, expected: HandleNE},
		{name: "sw corner", p: Point{X: 100, Y: 150}, expected: HandleSW},
		{name: "se corner", p: Point{X: 150, Y: 150}, expected: HandleSE},
		{name: "se zone inside interior", p: Point{X: 147, Y: 147}, expected: HandleSE},
		{name: "just outside zone", p: Point{X: 95, Y: 100}, expected: HandleNone},
		{name: "center", p: Point{X: 125, Y: 125}, expected: HandleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.HandleAt(tt.p, DefaultHandleSize))
		})
	}
}

func TestClampToBounds(t *testing.T) {
	tests := []struct {
		name     string
		in       Rect
		expected Rect
	}{
		{
			name:     "inside unchanged",
			in:       Rect{X: 10, Y: 10, Width: 50, Height: 50},
			expected: Rect{X: 10, Y: 10, Width: 50, Height: 50},
		},
		{
			name:     "shifted back from the right",
			in:       Rect{X: 380, Y: 10, Width: 50, Height: 50},
			expected: Rect{X: 350, Y: 10, Width: 50, Height: 50},
		},
		{
			name:     "shifted back from negative origin",
			in:       Rect{X: -20, Y: -5, Width: 50, Height: 50},
			expected: Rect{X: 0, Y: 0, Width: 50, Height: 50},
		},
		{
			name:     "oversized shrinks to container",
			in:       Rect{X: 10, Y: 10, Width: 500, Height: 400},
			expected: Rect{X: 0, Y: 0, Width: 400, Height: 300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clampToBounds(tt.in, 400, 300))
		})
	}
}

func TestHandleString(t *testing.T) {
	assert.Equal(t, "nw", HandleNW.String())
	assert.Equal(t, "se", HandleSE.String())
	assert.Equal(t, "none", HandleNone.String())
}
