// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/queue"
	"github.com/unclebandit/engagesphere-dashboard/internal/repository"
)

// DeliveryStats reports delivery counts for a campaign.
type DeliveryStats interface {
	Stats(ctx context.Context, campaignID string) (map[model.DeliveryStatus]int, error)
}

// CampaignController serves the campaign REST API the dashboard consumes.
type CampaignController struct {
	Repo       repository.CampaignRepositoryInterface
	Deliveries DeliveryStats
	Queue      queue.Queue
	Logger     *zap.Logger
}

// Routes mounts the API under /api.
func (c *CampaignController) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/campaigns", func(r chi.Router) {
		r.Get("/", c.ListCampaigns)
		r.Post("/", c.CreateCampaign)
		r.Get("/{id}", c.GetCampaign)
		r.Put("/{id}", c.UpdateCampaign)
		r.Delete("/{id}", c.DeleteCampaign)
		r.Get("/{id}/stats", c.GetCampaignStats)
	})
	return r
}

// campaignBody is the wire form of a campaign; the service names its key _id.
type campaignBody struct {
	ID           string              `json:"_id"`
	Name         string              `json:"name"`
	Status       model.Status        `json:"status"`
	Message      string              `json:"message"`
	SegmentName  string              `json:"segmentName,omitempty"`
	Rules        []model.SegmentRule `json:"rules"`
	RuleLogic    model.RuleLogic     `json:"ruleLogic"`
	AudienceSize int                 `json:"audienceSize"`
	SentCount    int                 `json:"sentCount"`
	FailedCount  int                 `json:"failedCount"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    *time.Time          `json:"updatedAt,omitempty"`
}

func toBody(m *model.Campaign) campaignBody {
	return campaignBody{
		ID:           m.ID,
		Name:         m.Name,
		Status:       m.Status,
		Message:      m.Message,
		SegmentName:  m.SegmentName,
		Rules:        m.Rules,
		RuleLogic:    m.RuleLogic,
		AudienceSize: m.AudienceSize,
		SentCount:    m.SentCount,
		FailedCount:  m.FailedCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type errorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := model.Status(r.URL.Query().Get("status"))

	if status != "" && !status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid status filter", Errors: []string{"unknown status " + string(status)}})
		return
	}

	f := repository.ListFilter{Status: status}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		f.Limit = pageSize
		f.Offset = (page - 1) * pageSize
	}

	campaigns, total, err := c.Repo.List(r.Context(), f)
	if err != nil {
		c.fail(w, "list campaigns", err)
		return
	}

	out := make([]campaignBody, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, toBody(&campaigns[i]))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, out)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaign, err := c.Repo.GetByID(r.Context(), id)
	if err != nil {
		c.fail(w, "get campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, toBody(campaign))
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	campaign := fromInput(in)
	if err := c.Repo.Create(r.Context(), campaign); err != nil {
		c.fail(w, "create campaign", err)
		return
	}

	c.publish(queue.EventCampaignCreated, campaign.ID)
	writeJSON(w, http.StatusCreated, toBody(campaign))
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	existing, err := c.Repo.GetByID(r.Context(), id)
	if err != nil {
		c.fail(w, "update campaign", err)
		return
	}

	campaign := fromInput(in)
	campaign.ID = id
	campaign.CreatedAt = existing.CreatedAt
	if err := c.Repo.Update(r.Context(), campaign); err != nil {
		c.fail(w, "update campaign", err)
		return
	}
	campaign.SentCount = existing.SentCount
	campaign.FailedCount = existing.FailedCount

	c.publish(queue.EventCampaignUpdated, id)
	writeJSON(w, http.StatusOK, toBody(campaign))
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.Repo.Delete(r.Context(), id); err != nil {
		c.fail(w, "delete campaign", err)
		return
	}

	c.publish(queue.EventCampaignDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := c.Repo.GetByID(r.Context(), id); err != nil {
		c.fail(w, "campaign stats", err)
		return
	}
	stats, err := c.Deliveries.Stats(r.Context(), id)
	if err != nil {
		c.fail(w, "campaign stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (model.CampaignInput, bool) {
	var in model.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid request body", Errors: []string{err.Error()}})
		return in, false
	}
	if problems := in.Validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: problems})
		return in, false
	}
	return in, true
}

func fromInput(in model.CampaignInput) *model.Campaign {
	return &model.Campaign{
		Name:         in.Name,
		Status:       in.Status,
		Message:      in.Message,
		SegmentName:  in.SegmentName,
		Rules:        in.Rules,
		RuleLogic:    in.RuleLogic,
		AudienceSize: in.AudienceSize,
	}
}

// publish announces a change. A failed publish is logged; the write already succeeded.
func (c *CampaignController) publish(t queue.EventType, id string) {
	if c.Queue == nil {
		return
	}
	evt := queue.Event{Type: t, CampaignID: id, OccurredAt: time.Now().UTC()}
	if err := c.Queue.Publish(queue.TopicCampaignEvents, evt); err != nil {
		logging.Resolve(c.Logger).Warn("failed to publish campaign event", zap.String("type", string(t)), zap.String("campaign_id", id), zap.Error(err))
	}
}

func (c *CampaignController) fail(w http.ResponseWriter, op string, err error) {
	var notFound *appErrors.ErrCampaignNotFound
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Campaign not found"})
		return
	}
	logging.Resolve(c.Logger).Error("campaign api failure", zap.String("op", op), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error", Errors: []string{op + " failed"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
