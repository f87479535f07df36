package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/cache"
	"github.com/unclebandit/engagesphere-dashboard/internal/campaignapi"
	"github.com/unclebandit/engagesphere-dashboard/internal/handler"
	"github.com/unclebandit/engagesphere-dashboard/internal/metrics"
	"github.com/unclebandit/engagesphere-dashboard/internal/service"
	"github.com/unclebandit/engagesphere-dashboard/internal/tips"
)

type stubModel struct {
	tips []string
	err  error
}

func (m *stubModel) GenerateTips(context.Context, string, int) ([]string, error) {
	return m.tips, m.err
}

// newDashboard wires the handler to a fake campaign service over HTTP.
func newDashboard(t *testing.T, upstream http.HandlerFunc, model tips.Model) (http.Handler, *prometheus.Registry) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := campaignapi.New(srv.URL+"/api", 2*time.Second, zap.NewNop(), m)
	svc := &service.CampaignService{API: client, Cache: cache.NewMemoryCache(), Logger: zap.NewNop(), Metrics: m}
	h := handler.NewCampaignHandler(svc, tips.NewFlow(model, zap.NewNop(), m), zap.NewNop())
	return h.Routes(reg), reg
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("x-auth-token", "tok")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

const sentCampaignJSON = `{
	"_id": "abc123",
	"name": "Spring Sale",
	"status": "Sent",
	"message": "Hi there",
	"rules": [{"id": "r1", "field": "city", "operator": "eq", "value": "Nairobi"}],
	"ruleLogic": "AND",
	"audienceSize": 200,
	"sentCount": 150,
	"failedCount": 10,
	"createdAt": "2024-05-01T10:00:00Z"
}`

func TestGetCampaignHandler(t *testing.T) {
	var token string
	h, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("x-auth-token")
		assert.Equal(t, "/api/campaigns/abc123", r.URL.Path)
		w.Write([]byte(sentCampaignJSON))
	}, &stubModel{})

	w := serve(h, http.MethodGet, "/campaigns/abc123", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", token)

	res := decode(t, w)
	assert.Equal(t, "75.0%", res["successRateLabel"])
	assert.Equal(t, true, res["showPerformance"])
	assert.Equal(t, "Custom Rules", res["segmentLabel"])
	campaign := res["campaign"].(map[string]any)
	assert.Equal(t, "abc123", campaign["id"])
	stats := res["stats"].(map[string]any)
	assert.EqualValues(t, 160, stats["attempted"])
}

func TestGetCampaignHandlerMapsUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "timeout",
			status:     http.StatusGatewayTimeout,
			body:       "<html>gateway timeout</html>",
			wantStatus: http.StatusGatewayTimeout,
			wantMsg:    "Failed to fetch campaign: The server took too long to respond (Gateway Timeout). This might be a temporary issue.",
		},
		{
			name:       "not found with message",
			status:     http.StatusNotFound,
			body:       `{"message": "Campaign not found"}`,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Campaign not found",
		},
		{
			name:       "unparseable body",
			status:     http.StatusInternalServerError,
			body:       "boom",
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to fetch campaign abc123 (Status: 500 Internal Server Error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, &stubModel{})

			w := serve(h, http.MethodGet, "/campaigns/abc123", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, decode(t, w)["message"])
		})
	}
}

func TestGetCampaignHandlerParseFailureIsBadGateway(t *testing.T) {
	h, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}, &stubModel{})

	w := serve(h, http.MethodGet, "/campaigns/abc123", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to parse campaign data for abc123.", decode(t, w)["message"])
}

func TestDeleteCampaignHandler(t *testing.T) {
	var method string
	h, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}, &stubModel{})

	w := serve(h, http.MethodDelete, "/campaigns/abc123", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, service.DashboardPath, decode(t, w)["redirectTo"])
}

func TestDeleteCampaignHandlerReturnsDetails(t *testing.T) {
	h, _ := newDashboard(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message": "Campaign is sending", "errors": ["locked"]}`))
	}, &stubModel{})

	w := serve(h, http.MethodDelete, "/campaigns/abc123", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	res := decode(t, w)
	assert.Equal(t, "Campaign is sending", res["message"])
	assert.Equal(t, []any{"locked"}, res["details"])
	_, redirected := res["redirectTo"]
	assert.False(t, redirected)
}

func TestGenerateTipsHandler(t *testing.T) {
	h, _ := newDashboard(t, nil, &stubModel{tips: []string{"a", "b"}})

	w := serve(h, http.MethodPost, "/tips", `{"count": 2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"a", "b"}, decode(t, w)["tips"])
}

func TestGenerateTipsHandlerFallsBackToEmpty(t *testing.T) {
	h, reg := newDashboard(t, nil, &stubModel{err: errors.New("quota exceeded")})

	w := serve(h, http.MethodPost, "/tips", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tips": []}`, w.Body.String())

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "engagesphere_tip_generation_fallbacks_total" {
			found = true
			assert.Equal(t, 1.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestGenerateTipsHandlerRejectsInvalidCount(t *testing.T) {
	model := &stubModel{}
	h, _ := newDashboard(t, nil, model)

	w := serve(h, http.MethodPost, "/tips", `{"count": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, http.MethodPost, "/tips", `{"count":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newDashboard(t, nil, &stubModel{})

	w := serve(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
