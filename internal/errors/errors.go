// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrTransport         = errors.New("campaign service unreachable")
	ErrGatewayTimeout    = errors.New("campaign service timed out")
	ErrUpstreamStatus    = errors.New("campaign service returned an error status")
	ErrParse             = errors.New("campaign response could not be parsed")
	ErrMissingSession    = errors.New("auth session was not supplied")
	ErrMissingCampaignID = errors.New("campaign id is required")
	ErrInvalidTipRequest = errors.New("invalid tip request")
	ErrInvalidCampaign   = errors.New("invalid campaign input")
)

// ErrCampaignNotFound is returned by stores when no campaign has the given id.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// Kind classifies a campaign service failure.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindTimeout
	KindStatus
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// APIError is the single error value raised by the campaign client. Message
// is safe to show to users; Details carries the structured error body, if any.
type APIError struct {
	Op         string
	CampaignID string
	Kind       Kind
	StatusCode int
	Message    string
	Details    any
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrGatewayTimeout:
		return e.Kind == KindTimeout
	case ErrUpstreamStatus:
		return e.Kind == KindStatus || e.Kind == KindTimeout
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
