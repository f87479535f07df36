package campaignapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
)

type operation struct {
	name        string
	verb        string
	timeoutHint string
}

var (
	opFetch  = operation{name: "get", verb: "fetch", timeoutHint: "This might be a temporary issue."}
	opList   = operation{name: "list", verb: "fetch", timeoutHint: "This might be a temporary issue."}
	opDelete = operation{name: "delete", verb: "delete", timeoutHint: "Please try again later."}
	opCreate = operation{name: "create", verb: "create", timeoutHint: "Please try again later."}
	opUpdate = operation{name: "update", verb: "update", timeoutHint: "Please try again later."}
)

func (o operation) timeoutMessage() string {
	return fmt.Sprintf("Failed to %s campaign: The server took too long to respond (Gateway Timeout). %s", o.verb, o.timeoutHint)
}

func transportError(op operation, id string, err error) *appErrors.APIError {
	return &appErrors.APIError{
		Op:         op.name,
		CampaignID: id,
		Kind:       appErrors.KindTransport,
		Message:    fmt.Sprintf("Failed to reach campaign service: %v", err),
		Err:        err,
	}
}

// normalizeError classifies a non-2xx response. A gateway timeout always gets
// the fixed timeout message; anything else prefers the message of a JSON
// error body and otherwise falls back to a generic message naming the
// subject and status.
func normalizeError(op operation, id, subject string, status int, reason string, body []byte) *appErrors.APIError {
	statusText := reason
	if statusText == "" {
		statusText = "Unknown Status"
	}
	apiErr := &appErrors.APIError{
		Op:         op.name,
		CampaignID: id,
		Kind:       appErrors.KindStatus,
		StatusCode: status,
		Message:    fmt.Sprintf("Failed to %s %s (Status: %d %s)", op.verb, subject, status, statusText),
	}

	if status == http.StatusGatewayTimeout {
		apiErr.Kind = appErrors.KindTimeout
		apiErr.Message = op.timeoutMessage()
		return apiErr
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		return apiErr
	}

	obj, ok := data.(map[string]any)
	if !ok {
		apiErr.Message = fmt.Sprintf("Failed to %s %s", op.verb, subject)
		apiErr.Details = data
		return apiErr
	}

	if msg := obj["message"]; truthy(msg) {
		if s, ok := msg.(string); ok {
			apiErr.Message = s
		} else {
			apiErr.Message = fmt.Sprint(msg)
		}
	} else {
		apiErr.Message = fmt.Sprintf("Failed to %s %s", op.verb, subject)
	}

	switch {
	case truthy(obj["errors"]):
		apiErr.Details = obj["errors"]
	case truthy(obj["details"]):
		apiErr.Details = obj["details"]
	default:
		apiErr.Details = obj
	}
	return apiErr
}

// reasonPhrase is the text the server sent after the status code, if any.
func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

// truthy follows the loose truthiness of JSON values: null, false, "" and 0
// are false; everything else, including empty arrays and objects, is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
