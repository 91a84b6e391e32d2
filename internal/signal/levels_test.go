package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"optionsengine/models"
)

func TestSuggestedStrikes(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		step     float64
		side     string
		expected []float64
	}{
		{
			name:     "call strikes climb from ATM",
			price:    22512,
			step:     50,
			side:     models.SideBuyCall,
			expected: []float64{22500, 22550, 22600},
		},
		{
			name:     "put strikes descend from ATM",
			price:    48590,
			step:     100,
			side:     models.SideBuyPut,
			expected: []float64{48600, 48500, 48400},
		},
		{
			name:     "rounding goes to the nearest step",
			price:    22530,
			step:     50,
			side:     models.SideBuyCall,
			expected: []float64{22550, 22600, 22650},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuggestedStrikes(tt.price, tt.step, tt.side))
		})
	}
}

func TestNextWeeklyExpiry(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{
			name:     "monday rolls to thursday",
			now:      time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
			expected: "2025-01-09",
		},
		{
			name:     "thursday is its own expiry",
			now:      time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC),
			expected: "2025-01-09",
		},
		{
			name:     "friday rolls to next week",
			now:      time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
			expected: "2025-01-16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextWeeklyExpiry(tt.now).Format("2006-01-02"))
		})
	}
}
