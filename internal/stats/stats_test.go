package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/stats"
)

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		audience int
		sent     int
		want     float64
	}{
		{name: "empty audience", audience: 0, sent: 42, want: 0},
		{name: "empty audience no sends", audience: 0, sent: 0, want: 0},
		{name: "partial", audience: 100, sent: 42, want: 42.0},
		{name: "complete", audience: 8, sent: 8, want: 100},
		{name: "negative audience", audience: -5, sent: 3, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, stats.SuccessRate(tt.audience, tt.sent), 1e-9)
		})
	}
}

func TestCompute(t *testing.T) {
	d := stats.Compute(100, 42, 8)
	assert.Equal(t, 50, d.Attempted)
	assert.Equal(t, "42.0", stats.FormatRate(d.SuccessRate))

	d = stats.Compute(-1, -2, 3)
	assert.Equal(t, 0, d.AudienceSize)
	assert.Equal(t, 3, d.Attempted)
	assert.Equal(t, 0.0, d.SuccessRate)
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0.0", stats.FormatRate(0))
	assert.Equal(t, "33.3", stats.FormatRate(stats.SuccessRate(3, 1)))
	assert.Equal(t, "66.7", stats.FormatRate(stats.SuccessRate(3, 2)))
}

func TestShowPerformancePanel(t *testing.T) {
	for _, s := range model.Statuses {
		want := s == model.StatusSent || s == model.StatusArchived || s == model.StatusFailed
		assert.Equal(t, want, stats.ShowPerformancePanel(s, 10), "status %s", s)
		assert.False(t, stats.ShowPerformancePanel(s, 0), "status %s with empty audience", s)
	}
}

func TestCanEdit(t *testing.T) {
	assert.True(t, stats.CanEdit(model.StatusDraft))
	assert.True(t, stats.CanEdit(model.StatusScheduled))
	assert.True(t, stats.CanEdit(model.StatusCancelled))
	assert.False(t, stats.CanEdit(model.StatusSent))
	assert.False(t, stats.CanEdit(model.StatusArchived))
	assert.False(t, stats.CanEdit(model.StatusFailed))
}
