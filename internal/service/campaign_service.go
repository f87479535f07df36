// internal/service/campaign_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/auth"
	"github.com/unclebandit/engagesphere-dashboard/internal/cache"
	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/metrics"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/stats"
)

// DashboardPath is where the user lands after deleting a campaign.
const DashboardPath = "/dashboard"

// CampaignAPI is the part of the campaign service client the dashboard uses.
type CampaignAPI interface {
	GetCampaign(ctx context.Context, sess *auth.Session, id string) (*model.Campaign, error)
	DeleteCampaign(ctx context.Context, sess *auth.Session, id string) error
	ListCampaigns(ctx context.Context, sess *auth.Session) ([]model.Campaign, error)
}

// Navigator moves the caller to another page.
type Navigator interface {
	Navigate(path string)
}

type CampaignService struct {
	API      CampaignAPI
	Cache    cache.QueryCache
	CacheTTL time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

type RuleView struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// CampaignDetails is a campaign with everything the detail page derives from it.
type CampaignDetails struct {
	Campaign         model.Campaign  `json:"campaign"`
	Stats            stats.Delivery  `json:"stats"`
	SuccessRateLabel string          `json:"successRateLabel"`
	ShowPerformance  bool            `json:"showPerformance"`
	CanEdit          bool            `json:"canEdit"`
	StatusBadge      string          `json:"statusBadge"`
	SegmentLabel     string          `json:"segmentLabel"`
	Rules            []RuleView      `json:"rules"`
	RuleLogic        model.RuleLogic `json:"ruleLogic"`
}

// BuildDetails derives the detail view of c.
func BuildDetails(c *model.Campaign) *CampaignDetails {
	d := stats.ForCampaign(c)
	segment := c.SegmentName
	if segment == "" {
		segment = "Custom Rules"
	}
	rules := make([]RuleView, 0, len(c.Rules))
	for _, r := range c.Rules {
		rules = append(rules, RuleView{
			ID:       r.ID,
			Field:    r.Field,
			Operator: model.DisplayOperator(r.Operator),
			Value:    r.Value,
		})
	}
	return &CampaignDetails{
		Campaign:         *c,
		Stats:            d,
		SuccessRateLabel: stats.FormatRate(d.SuccessRate) + "%",
		ShowPerformance:  stats.ShowPerformancePanel(c.Status, d.AudienceSize),
		CanEdit:          stats.CanEdit(c.Status),
		StatusBadge:      c.Status.BadgeVariant(),
		SegmentLabel:     segment,
		Rules:            rules,
		RuleLogic:        c.RuleLogic,
	}
}

// GetCampaignDetails fetches a campaign through the query cache and derives its view.
// Cached copies are only visible to the session that fetched them.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, sess *auth.Session, id string) (*CampaignDetails, error) {
	sess, err := auth.Require(sess)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, appErrors.ErrMissingCampaignID
	}
	logger := logging.Resolve(s.Logger)
	key := cache.CampaignKey(id).Scoped(sess.CacheScope())

	var campaign model.Campaign
	if s.readCache(ctx, key, &campaign) {
		return BuildDetails(&campaign), nil
	}

	c, err := s.API.GetCampaign(ctx, sess, id)
	if err != nil {
		logger.Warn("failed to fetch campaign", zap.String("campaign_id", id), zap.Error(err))
		return nil, err
	}
	s.writeCache(ctx, key, c)
	return BuildDetails(c), nil
}

// ListCampaigns returns the campaign listing through the query cache.
func (s *CampaignService) ListCampaigns(ctx context.Context, sess *auth.Session) ([]model.Campaign, error) {
	sess, err := auth.Require(sess)
	if err != nil {
		return nil, err
	}
	key := cache.CampaignsKey().Scoped(sess.CacheScope())

	var campaigns []model.Campaign
	if s.readCache(ctx, key, &campaigns) {
		return campaigns, nil
	}

	campaigns, err = s.API.ListCampaigns(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, campaigns)
	return campaigns, nil
}

// DeleteCampaign deletes a campaign. On success the campaign listing is
// invalidated exactly once and nav is sent to the dashboard; on failure
// neither happens and the error is returned for display.
func (s *CampaignService) DeleteCampaign(ctx context.Context, sess *auth.Session, id string, nav Navigator) error {
	sess, err := auth.Require(sess)
	if err != nil {
		return err
	}
	if id == "" {
		return appErrors.ErrMissingCampaignID
	}
	logger := logging.Resolve(s.Logger)

	if err = s.API.DeleteCampaign(ctx, sess, id); err != nil {
		logger.Warn("failed to delete campaign", zap.String("campaign_id", id), zap.Error(err))
		return err
	}

	if s.Cache != nil {
		if _, err := s.Cache.Invalidate(ctx, cache.CampaignsKey()); err != nil {
			logger.Error("failed to invalidate campaign listing", zap.Error(err))
		}
	}
	if nav != nil {
		nav.Navigate(DashboardPath)
	}
	logger.Info("campaign deleted", zap.String("campaign_id", id))
	return nil
}

func (s *CampaignService) readCache(ctx context.Context, key cache.Key, dst any) bool {
	if s.Cache == nil {
		return false
	}
	logger := logging.Resolve(s.Logger)
	b, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("query cache read failed", zap.Stringer("key", key), zap.Error(err))
		return false
	}
	if !ok {
		s.Metrics.CacheMiss(key.Family())
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		logger.Warn("query cache entry is corrupt", zap.Stringer("key", key), zap.Error(err))
		return false
	}
	s.Metrics.CacheHit(key.Family())
	return true
}

func (s *CampaignService) writeCache(ctx context.Context, key cache.Key, v any) {
	if s.Cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, b, s.CacheTTL); err != nil {
		logging.Resolve(s.Logger).Warn("query cache write failed", zap.Stringer("key", key), zap.Error(err))
	}
}
