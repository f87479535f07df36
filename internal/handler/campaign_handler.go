// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/auth"
	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
	"github.com/unclebandit/engagesphere-dashboard/internal/logging"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/service"
	"github.com/unclebandit/engagesphere-dashboard/internal/tips"
)

// CampaignHandler holds the dependencies for the dashboard's HTTP handlers
type CampaignHandler struct {
	Service *service.CampaignService
	Tips    *tips.Flow
	Logger  *zap.Logger
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(svc *service.CampaignService, flow *tips.Flow, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{
		Service: svc,
		Tips:    flow,
		Logger:  logging.Resolve(logger),
	}
}

// Routes mounts the dashboard endpoints. gatherer may be nil to skip /metrics.
func (h *CampaignHandler) Routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/campaigns", h.ListCampaignsHandler)
	r.Get("/campaigns/{id}", h.GetCampaignHandler)
	r.Delete("/campaigns/{id}", h.DeleteCampaignHandler)
	r.Post("/tips", h.GenerateTipsHandler)
	return r
}

// ListCampaignsHandler returns every campaign visible to the caller
func (h *CampaignHandler) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.ListCampaigns(r.Context(), auth.FromRequest(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": campaigns})
}

// GetCampaignHandler returns a campaign with its derived delivery stats
func (h *CampaignHandler) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.Service.GetCampaignDetails(r.Context(), auth.FromRequest(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// redirect records where the delete flow sends the user.
type redirect struct {
	to string
}

func (n *redirect) Navigate(path string) {
	n.to = path
}

// DeleteCampaignHandler deletes a campaign and tells the client where to go next
func (h *CampaignHandler) DeleteCampaignHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nav := &redirect{}

	if err := h.Service.DeleteCampaign(r.Context(), auth.FromRequest(r), id, nav); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirectTo": nav.to})
}

// GenerateTipsHandler runs the tip flow. An empty body asks for the default count.
func (h *CampaignHandler) GenerateTipsHandler(w http.ResponseWriter, r *http.Request) {
	var req model.TipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.Tips.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeError maps domain errors onto HTTP responses.
func (h *CampaignHandler) writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := appErrors.AsAPIError(err); ok {
		writeJSON(w, statusFor(apiErr), errorBody{Message: apiErr.Message, Details: apiErr.Details})
		return
	}

	switch {
	case errors.Is(err, appErrors.ErrMissingCampaignID), errors.Is(err, appErrors.ErrInvalidTipRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	default:
		logging.Resolve(h.Logger).Error("unhandled dashboard error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: err.Error()})
	}
}

func statusFor(e *appErrors.APIError) int {
	switch e.Kind {
	case appErrors.KindTimeout:
		return http.StatusGatewayTimeout
	case appErrors.KindStatus:
		if e.StatusCode >= 400 && e.StatusCode <= 599 {
			return e.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
