// internal/model/campaign.go
package model

import (
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a campaign.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusScheduled Status = "Scheduled"
	StatusSent      Status = "Sent"
	StatusFailed    Status = "Failed"
	StatusArchived  Status = "Archived"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every known status in display order.
var Statuses = []Status{
	StatusDraft,
	StatusScheduled,
	StatusSent,
	StatusFailed,
	StatusArchived,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// BadgeVariant is the presentation tone used when rendering the status.
func (s Status) BadgeVariant() string {
	switch s {
	case StatusSent:
		return "success"
	case StatusScheduled:
		return "info"
	case StatusDraft:
		return "neutral"
	case StatusFailed:
		return "danger"
	case StatusArchived:
		return "muted"
	case StatusCancelled:
		return "warning"
	default:
		return "secondary"
	}
}

// RuleLogic decides how segment rules combine.
type RuleLogic string

const (
	RuleLogicAnd RuleLogic = "AND"
	RuleLogicOr  RuleLogic = "OR"
)

func (l RuleLogic) Valid() bool {
	return l == RuleLogicAnd || l == RuleLogicOr
}

// Operator is a segment rule comparison.
type Operator string

const (
	OpEquals      Operator = "eq"
	OpNotEquals   Operator = "neq"
	OpGreater     Operator = "gt"
	OpLess        Operator = "lt"
	OpGreaterOrEq Operator = "gte"
	OpLessOrEq    Operator = "lte"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startswith"
	OpEndsWith    Operator = "endswith"
)

var operatorDisplay = map[Operator]string{
	OpEquals:      "=",
	OpNotEquals:   "!=",
	OpGreater:     ">",
	OpLess:        "<",
	OpGreaterOrEq: ">=",
	OpLessOrEq:    "<=",
	OpContains:    "contains",
	OpStartsWith:  "starts with",
	OpEndsWith:    "ends with",
}

// DisplayOperator maps an operator to its display form. Unknown operators
// are returned unchanged.
func DisplayOperator(op Operator) string {
	if s, ok := operatorDisplay[Operator(strings.ToLower(string(op)))]; ok {
		return s
	}
	return string(op)
}

type SegmentRule struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

type Campaign struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Message      string        `json:"message"`
	SegmentName  string        `json:"segmentName,omitempty"`
	Rules        []SegmentRule `json:"rules"`
	RuleLogic    RuleLogic     `json:"ruleLogic"`
	AudienceSize int           `json:"audienceSize"`
	SentCount    int           `json:"sentCount"`
	FailedCount  int           `json:"failedCount"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

// CampaignInput is the writable part of a campaign, used for create and update.
type CampaignInput struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status,omitempty"`
	Message      string        `json:"message"`
	SegmentName  string        `json:"segmentName,omitempty"`
	Rules        []SegmentRule `json:"rules"`
	RuleLogic    RuleLogic     `json:"ruleLogic,omitempty"`
	AudienceSize int           `json:"audienceSize"`
}

// Validate checks the input and returns the list of field problems, if any.
func (in CampaignInput) Validate() []string {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		problems = append(problems, "message is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		problems = append(problems, "status must be one of Draft, Scheduled, Sent, Failed, Archived, Cancelled")
	}
	if in.RuleLogic != "" && !in.RuleLogic.Valid() {
		problems = append(problems, "ruleLogic must be AND or OR")
	}
	if in.AudienceSize < 0 {
		problems = append(problems, "audienceSize cannot be negative")
	}
	for i, r := range in.Rules {
		if strings.TrimSpace(r.Field) == "" {
			problems = append(problems, "rules["+strconv.Itoa(i)+"].field is required")
		}
		if _, ok := operatorDisplay[Operator(strings.ToLower(string(r.Operator)))]; !ok {
			problems = append(problems, "rules["+strconv.Itoa(i)+"].operator is not supported")
		}
	}
	return problems
}
