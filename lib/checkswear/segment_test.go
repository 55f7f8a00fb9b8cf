package checkswear

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		bins     int
		expected []string
		notices  int
	}{
		{
			name:     "no bins keeps text whole",
			text:     "раз два три",
			bins:     0,
			expected: []string{"раз два три"},
		},
		{
			name: "ten words three bins with trailing remainder",
			text: "только посмотри на этот охуенный проект сделанный полностью на питоне!",
			bins: 3,
			expected: []string{
				"только посмотри на",
				"этот охуенный проект",
				"сделанный полностью на питоне!",
			},
		},
		{
			name:     "six words three bins exact split",
			text:     "один два три четыре пять шесть",
			bins:     3,
			expected: []string{"один два", "три четыре", "пять шесть"},
		},
		{
			name:     "bins clamped to word count",
			text:     "раз два",
			bins:     5,
			expected: []string{"раз", "два"},
			notices:  1,
		},
		{
			name:     "no words with bins set",
			text:     "   ",
			bins:     3,
			expected: []string{"   "},
			notices:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, notices := segmentText(tt.text, tt.bins)
			assert.Equal(t, tt.expected, units)
			assert.Len(t, notices, tt.notices)
		})
	}
}

func TestSegmentText_WordConservation(t *testing.T) {
	// every word of the input must land in exactly one unit, remainder words
	// land in the last one
	texts := []string{
		"а б в г д е ж з и к",
		"одно",
		"раз два три четыре пять шесть семь",
	}
	for _, text := range texts {
		for bins := 1; bins <= 5; bins++ {
			units, _ := segmentText(text, bins)
			var got []string
			for _, u := range units {
				got = append(got, strings.Fields(u)...)
			}
			assert.Equal(t, strings.Fields(text), got, "text %q bins %d", text, bins)
		}
	}
}

func TestSegmentInput(t *testing.T) {
	t.Run("pre-segmented passes units verbatim", func(t *testing.T) {
		units, notices, err := segmentInput(Segments([]string{"первый кусок", "второй кусок"}), 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"первый кусок", "второй кусок"}, units)
		assert.Empty(t, notices)
	})

	t.Run("pre-segmented ignores bins with advisory", func(t *testing.T) {
		units, notices, err := segmentInput(Segments([]string{"один", "два"}), 4)
		require.NoError(t, err)
		assert.Equal(t, []string{"один", "два"}, units)
		require.Len(t, notices, 1)
		assert.Equal(t, "bins", notices[0].Name)
	})

	t.Run("zero input rejected", func(t *testing.T) {
		_, _, err := segmentInput(Input{}, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("single text becomes one unit", func(t *testing.T) {
		units, notices, err := segmentInput(Text("просто текст"), 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"просто текст"}, units)
		assert.Empty(t, notices)
	})
}
