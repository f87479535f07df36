// Package campaignapi is the dashboard's client for the campaign REST service.
// Every failure is normalized into a single *appErrors.APIError carrying a
// display message and, when the service sent one, structured details.
package campaignapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/auth"
	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/metrics"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
)

const logBodyLimit = 500

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logging.Resolve(logger),
		Metrics: m,
	}
}

// GetCampaign reads one campaign.
func (c *Client) GetCampaign(ctx context.Context, sess *auth.Session, id string) (*model.Campaign, error) {
	if id == "" {
		return nil, appErrors.ErrMissingCampaignID
	}
	body, err := c.do(ctx, sess, opFetch, http.MethodGet, campaignPath(id), id, "campaign "+id, nil)
	if err != nil {
		return nil, err
	}
	campaign, err := decodeCampaign(body)
	if err != nil {
		return nil, c.parseFailure(opFetch, id, id, body, err)
	}
	logging.Resolve(c.Logger).Debug("fetched campaign", zap.String("campaign_id", id))
	return campaign, nil
}

// DeleteCampaign removes one campaign. No response body is expected.
func (c *Client) DeleteCampaign(ctx context.Context, sess *auth.Session, id string) error {
	if id == "" {
		return appErrors.ErrMissingCampaignID
	}
	if _, err := c.do(ctx, sess, opDelete, http.MethodDelete, campaignPath(id), id, "campaign "+id, nil); err != nil {
		return err
	}
	logging.Resolve(c.Logger).Info("deleted campaign", zap.String("campaign_id", id))
	return nil
}

// ListCampaigns reads every campaign visible to the session.
func (c *Client) ListCampaigns(ctx context.Context, sess *auth.Session) ([]model.Campaign, error) {
	body, err := c.do(ctx, sess, opList, http.MethodGet, "/campaigns", "", "campaigns", nil)
	if err != nil {
		return nil, err
	}
	campaigns, err := decodeCampaigns(body)
	if err != nil {
		return nil, c.parseFailure(opList, "", "campaigns", body, err)
	}
	return campaigns, nil
}

func (c *Client) CreateCampaign(ctx context.Context, sess *auth.Session, in model.CampaignInput) (*model.Campaign, error) {
	body, err := c.do(ctx, sess, opCreate, http.MethodPost, "/campaigns", "", "campaign", in)
	if err != nil {
		return nil, err
	}
	campaign, err := decodeCampaign(body)
	if err != nil {
		return nil, c.parseFailure(opCreate, "", "new campaign", body, err)
	}
	return campaign, nil
}

func (c *Client) UpdateCampaign(ctx context.Context, sess *auth.Session, id string, in model.CampaignInput) (*model.Campaign, error) {
	if id == "" {
		return nil, appErrors.ErrMissingCampaignID
	}
	body, err := c.do(ctx, sess, opUpdate, http.MethodPut, campaignPath(id), id, "campaign "+id, in)
	if err != nil {
		return nil, err
	}
	campaign, err := decodeCampaign(body)
	if err != nil {
		return nil, c.parseFailure(opUpdate, id, id, body, err)
	}
	return campaign, nil
}

func campaignPath(id string) string {
	return "/campaigns/" + url.PathEscape(id)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, sess *auth.Session, op operation, method, path, id, subject string, payload any) ([]byte, error) {
	sess, err := auth.Require(sess)
	if err != nil {
		return nil, err
	}
	logger := logging.Resolve(c.Logger)

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op.name, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	sess.Apply(req)

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.Metrics.ObserveAPI(op.name, appErrors.KindTransport.String(), time.Since(start))
		logger.Error("campaign service unreachable", zap.String("op", op.name), zap.String("campaign_id", id), zap.Error(err))
		return nil, transportError(op, id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Metrics.ObserveAPI(op.name, appErrors.KindTransport.String(), time.Since(start))
		return nil, transportError(op, id, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := normalizeError(op, id, subject, resp.StatusCode, reasonPhrase(resp), body)
		c.Metrics.ObserveAPI(op.name, apiErr.Kind.String(), time.Since(start))
		logger.Error("campaign service returned an error",
			zap.String("op", op.name),
			zap.String("campaign_id", id),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.Truncate(string(body), logBodyLimit)),
			zap.String("message", apiErr.Message),
			zap.Any("details", apiErr.Details),
		)
		return nil, apiErr
	}

	c.Metrics.ObserveAPI(op.name, "ok", time.Since(start))
	return body, nil
}

func (c *Client) parseFailure(op operation, id, label string, body []byte, cause error) error {
	logging.Resolve(c.Logger).Error("failed to parse campaign response",
		zap.String("op", op.name),
		zap.String("campaign_id", id),
		zap.Error(cause),
		zap.String("body", logging.Truncate(string(body), logBodyLimit)),
	)
	return &appErrors.APIError{
		Op:         op.name,
		CampaignID: id,
		Kind:       appErrors.KindParse,
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("Failed to parse campaign data for %s.", label),
		Err:        cause,
	}
}
