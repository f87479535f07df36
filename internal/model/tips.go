package model

import (
	"encoding/json"
	"fmt"

	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
)

const (
	DefaultTipCount = 3
	MaxTipCount     = 20
)

// TipRequest asks for a number of marketing tips. A nil Count means the default.
type TipRequest struct {
	Count *int `json:"count,omitempty"`
}

// Normalize returns the effective tip count.
func (r TipRequest) Normalize() int {
	if r.Count == nil {
		return DefaultTipCount
	}
	return *r.Count
}

// Validate checks the request before any model call is made.
func (r TipRequest) Validate() error {
	n := r.Normalize()
	if n < 1 || n > MaxTipCount {
		return fmt.Errorf("%w: count must be between 1 and %d, got %d", appErrors.ErrInvalidTipRequest, MaxTipCount, n)
	}
	return nil
}

type TipResponse struct {
	Tips []string `json:"tips"`
}

// MarshalJSON keeps an empty result as [] instead of null.
func (r TipResponse) MarshalJSON() ([]byte, error) {
	tips := r.Tips
	if tips == nil {
		tips = []string{}
	}
	return json.Marshal(struct {
		Tips []string `json:"tips"`
	}{Tips: tips})
}
