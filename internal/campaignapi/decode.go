package campaignapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/unclebandit/engagesphere-dashboard/internal/model"
)

// wireID accepts identifiers encoded as JSON strings or numbers.
type wireID string

func (w *wireID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*w = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*w = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %s", b)
	}
	*w = wireID(n.String())
	return nil
}

// wireValue accepts a rule comparison value of any JSON scalar type and keeps
// its text. Strings are unquoted, null is empty, anything else is kept as sent.
type wireValue string

func (w *wireValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*w = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*w = wireValue(s)
		return nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err != nil {
		return err
	}
	*w = wireValue(compact.String())
	return nil
}

type wireRule struct {
	ID       wireID         `json:"id"`
	Field    string         `json:"field"`
	Operator model.Operator `json:"operator"`
	Value    wireValue      `json:"value"`
}

// wireCampaign is a campaign as the service sends it. The service names its
// identifier _id; the outer ID shadows the embedded one so either spelling
// decodes, and the outer Rules tolerate loosely typed rule fields.
type wireCampaign struct {
	model.Campaign
	BackendID wireID     `json:"_id"`
	ID        wireID     `json:"id"`
	Rules     []wireRule `json:"rules"`
}

func (w wireCampaign) toModel() (*model.Campaign, error) {
	c := w.Campaign
	c.ID = string(w.BackendID)
	if c.ID == "" {
		c.ID = string(w.ID)
	}
	if c.ID == "" {
		return nil, errors.New("campaign has no identifier")
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("unknown campaign status %q", c.Status)
	}
	if c.RuleLogic == "" {
		c.RuleLogic = model.RuleLogicAnd
	}
	if !c.RuleLogic.Valid() {
		return nil, fmt.Errorf("unknown rule logic %q", c.RuleLogic)
	}
	c.Rules = make([]model.SegmentRule, 0, len(w.Rules))
	for i, r := range w.Rules {
		id := string(r.ID)
		if id == "" {
			id = strconv.Itoa(i)
		}
		c.Rules = append(c.Rules, model.SegmentRule{
			ID:       id,
			Field:    r.Field,
			Operator: r.Operator,
			Value:    string(r.Value),
		})
	}
	return &c, nil
}

func decodeCampaign(body []byte) (*model.Campaign, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("campaign body is not a JSON object")
	}
	var w wireCampaign
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, err
	}
	return w.toModel()
}

func decodeCampaigns(body []byte) ([]model.Campaign, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("campaign list body is not a JSON array")
	}
	var ws []wireCampaign
	if err := json.Unmarshal(trimmed, &ws); err != nil {
		return nil, err
	}
	out := make([]model.Campaign, 0, len(ws))
	for i, w := range ws {
		c, err := w.toModel()
		if err != nil {
			return nil, fmt.Errorf("campaign %d: %w", i, err)
		}
		out = append(out, *c)
	}
	return out, nil
}
