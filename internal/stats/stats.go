// Package stats derives delivery figures for a campaign from its raw counts.
// The success rate is never stored; it is always recomputed here.
package stats

import (
	"strconv"

	"github.com/unclebandit/engagesphere-dashboard/internal/model"
)

type Delivery struct {
	AudienceSize int     `json:"audienceSize"`
	Sent         int     `json:"sent"`
	Failed       int     `json:"failed"`
	Attempted    int     `json:"attempted"`
	SuccessRate  float64 `json:"successRate"`
}

// Compute builds delivery figures. Negative counts are treated as zero.
func Compute(audienceSize, sent, failed int) Delivery {
	audienceSize = max(audienceSize, 0)
	sent = max(sent, 0)
	failed = max(failed, 0)
	return Delivery{
		AudienceSize: audienceSize,
		Sent:         sent,
		Failed:       failed,
		Attempted:    sent + failed,
		SuccessRate:  SuccessRate(audienceSize, sent),
	}
}

// SuccessRate is sent/audienceSize as a percentage, or 0 for an empty audience.
func SuccessRate(audienceSize, sent int) float64 {
	if audienceSize <= 0 {
		return 0
	}
	return float64(sent) / float64(audienceSize) * 100
}

// FormatRate renders a percentage with one decimal place, e.g. "42.0".
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 1, 64)
}

// ForCampaign computes the delivery figures of c.
func ForCampaign(c *model.Campaign) Delivery {
	return Compute(c.AudienceSize, c.SentCount, c.FailedCount)
}

// ShowPerformancePanel reports whether the detailed delivery panel applies.
func ShowPerformancePanel(status model.Status, audienceSize int) bool {
	switch status {
	case model.StatusSent, model.StatusArchived, model.StatusFailed:
		return audienceSize > 0
	}
	return false
}

// CanEdit is false once a campaign has gone out.
func CanEdit(status model.Status) bool {
	switch status {
	case model.StatusSent, model.StatusArchived, model.StatusFailed:
		return false
	}
	return true
}
