package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithinEditDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		max  int
		want bool
	}{
		{"button", "button", 1, true},
		{"buttn", "button", 1, true},
		{"buttons", "button", 1, true},
		{"butten", "button", 1, true},
		{"btton", "button", 1, true},
		{"btn", "button", 1, false},
		{"card", "button", 1, false},
		{"", "", 0, true},
		{"", "a", 1, true},
		{"", "ab", 1, false},
		{"kitten", "sitting", 3, true},
		{"kitten", "sitting", 2, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, withinEditDistance(tt.a, tt.b, tt.max))
			assert.Equal(t, tt.want, withinEditDistance(tt.b, tt.a, tt.max), "distance must be symmetric")
		})
	}
}
