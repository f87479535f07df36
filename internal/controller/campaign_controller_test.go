package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/auth"
	"github.com/unclebandit/engagesphere-dashboard/internal/campaignapi"
	"github.com/unclebandit/engagesphere-dashboard/internal/controller"
	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/queue"
	"github.com/unclebandit/engagesphere-dashboard/internal/repository"
)

// --- Mock Repositories ---

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	nextID    int
}

func newMockRepo(campaigns ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[string]*model.Campaign{}}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = "gen-" + strconv.Itoa(m.nextID)
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.RuleLogic == "" {
		c.RuleLogic = model.RuleLogicAnd
	}
	c.CreatedAt = time.Now()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) List(_ context.Context, f repository.ListFilter) ([]model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []model.Campaign
	for _, c := range m.campaigns {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		filtered = append(filtered, *c)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
	total := len(filtered)

	if f.Limit == 0 {
		return filtered, total, nil
	}
	start := f.Offset
	end := f.Offset + f.Limit
	if start > total {
		return []model.Campaign{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *MockCampaignRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.campaigns, id)
	return nil
}

type MockDeliveryStats struct{}

func (MockDeliveryStats) Stats(_ context.Context, campaignID string) (map[model.DeliveryStatus]int, error) {
	return map[model.DeliveryStatus]int{"pending": 1, "sent": 4, "failed": 2}, nil
}

// RecordingQueue captures published events.
type RecordingQueue struct {
	mu     sync.Mutex
	events []queue.Event
}

func (q *RecordingQueue) Publish(topic string, evt queue.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, evt)
	return nil
}

func (q *RecordingQueue) Subscribe(string, queue.Handler) error { return nil }

func newController(repo *MockCampaignRepo, q queue.Queue) http.Handler {
	ctrl := &controller.CampaignController{
		Repo:       repo,
		Deliveries: MockDeliveryStats{},
		Queue:      q,
		Logger:     zap.NewNop(),
	}
	return ctrl.Routes()
}

func sentCampaign(id string) *model.Campaign {
	return &model.Campaign{
		ID:           id,
		Name:         "Campaign " + id,
		Status:       model.StatusSent,
		Message:      "Hello",
		Rules:        []model.SegmentRule{{ID: "r1", Field: "city", Operator: model.OpEquals, Value: "Nairobi"}},
		RuleLogic:    model.RuleLogicOr,
		AudienceSize: 10,
		SentCount:    4,
		FailedCount:  2,
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// --- Test Functions ---

func TestGetCampaignUsesBackendID(t *testing.T) {
	h := newController(newMockRepo(sentCampaign("c1")), nil)

	req := httptest.NewRequest("GET", "/api/campaigns/c1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res map[string]any
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["_id"] != "c1" {
		t.Errorf("expected _id c1, got %v", res["_id"])
	}
	if _, ok := res["id"]; ok {
		t.Errorf("did not expect an id field, got %v", res["id"])
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	h := newController(newMockRepo(), nil)

	req := httptest.NewRequest("GET", "/api/campaigns/missing", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Campaign not found") {
		t.Errorf("expected not-found message, got %s", w.Body.String())
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	h := newController(newMockRepo(), nil)

	req := httptest.NewRequest("POST", "/api/campaigns", strings.NewReader(`{"name": "", "message": "hi", "ruleLogic": "XOR"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var res struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Message != "Validation failed" {
		t.Errorf("unexpected message %q", res.Message)
	}
	if len(res.Errors) != 2 {
		t.Errorf("expected 2 validation errors, got %v", res.Errors)
	}
}

func TestListCampaignsPagination(t *testing.T) {
	// --- Seed drafts and a few sent campaigns ---
	totalDrafts := 25
	repo := newMockRepo()
	for i := 1; i <= totalDrafts; i++ {
		c := sentCampaign("d" + strconv.Itoa(100+i))
		c.Status = model.StatusDraft
		repo.campaigns[c.ID] = c
	}
	for i := 1; i <= 3; i++ {
		c := sentCampaign("s" + strconv.Itoa(i))
		repo.campaigns[c.ID] = c
	}
	h := newController(repo, nil)

	pageSize := 10
	seen := map[string]bool{}
	totalPages := (totalDrafts + pageSize - 1) / pageSize

	for page := 1; page <= totalPages; page++ {
		req := httptest.NewRequest(
			"GET",
			"/api/campaigns?page="+strconv.Itoa(page)+
				"&page_size="+strconv.Itoa(pageSize)+
				"&status=Draft",
			nil,
		)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("X-Total-Count"); got != strconv.Itoa(totalDrafts) {
			t.Errorf("expected total count %d, got %s", totalDrafts, got)
		}

		var res []map[string]any
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		for _, c := range res {
			id := c["_id"].(string)
			if seen[id] {
				t.Errorf("duplicate campaign ID %s across pages", id)
			}
			seen[id] = true
			if c["status"] != "Draft" {
				t.Errorf("expected status Draft, got %v", c["status"])
			}
		}
	}

	if len(seen) != totalDrafts {
		t.Errorf("expected %d unique campaigns, got %d", totalDrafts, len(seen))
	}
}

func TestListCampaignsRejectsUnknownStatus(t *testing.T) {
	h := newController(newMockRepo(), nil)

	req := httptest.NewRequest("GET", "/api/campaigns?status=Bogus", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWritesPublishEvents(t *testing.T) {
	repo := newMockRepo(sentCampaign("c1"), sentCampaign("c2"))
	q := &RecordingQueue{}
	h := newController(repo, q)

	body := `{"name": "Renamed", "message": "Hi", "status": "Draft", "rules": [], "audienceSize": 5}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("PUT", "/api/campaigns/c1", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/campaigns/c2", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/campaigns/c2", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}

	want := []queue.Event{
		{Type: queue.EventCampaignUpdated, CampaignID: "c1"},
		{Type: queue.EventCampaignDeleted, CampaignID: "c2"},
	}
	if len(q.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(q.events))
	}
	for i, evt := range q.events {
		if evt.Type != want[i].Type || evt.CampaignID != want[i].CampaignID {
			t.Errorf("event %d: expected %s %s, got %s %s", i, want[i].Type, want[i].CampaignID, evt.Type, evt.CampaignID)
		}
	}
}

func TestCampaignStats(t *testing.T) {
	h := newController(newMockRepo(sentCampaign("c1")), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/campaigns/c1/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res map[string]int
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["sent"] != 4 || res["failed"] != 2 {
		t.Errorf("unexpected stats %v", res)
	}
}

// The dashboard client must understand everything this API sends.
func TestDashboardClientRoundTrip(t *testing.T) {
	repo := newMockRepo(sentCampaign("c1"))
	srv := httptest.NewServer(newController(repo, nil))
	defer srv.Close()

	client := campaignapi.New(srv.URL+"/api", 2*time.Second, zap.NewNop(), nil)
	sess := &auth.Session{Token: "tok"}
	ctx := context.Background()

	got, err := client.GetCampaign(ctx, sess, "c1")
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if got.ID != "c1" || got.RuleLogic != model.RuleLogicOr || got.SentCount != 4 {
		t.Errorf("unexpected campaign %+v", got)
	}

	created, err := client.CreateCampaign(ctx, sess, model.CampaignInput{Name: "New", Message: "Hi"})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if created.ID == "" || created.Status != model.StatusDraft {
		t.Errorf("unexpected created campaign %+v", created)
	}

	updated, err := client.UpdateCampaign(ctx, sess, created.ID, model.CampaignInput{Name: "Renamed", Message: "Hi", Status: model.StatusScheduled})
	if err != nil {
		t.Fatalf("update campaign: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Renamed" || updated.Status != model.StatusScheduled {
		t.Errorf("unexpected updated campaign %+v", updated)
	}

	_, err = client.UpdateCampaign(ctx, sess, created.ID, model.CampaignInput{Name: "", Message: "Hi"})
	apiErr, ok := appErrors.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Validation failed" {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if details, _ := apiErr.Details.([]any); len(details) != 1 {
		t.Errorf("expected one validation detail, got %v", apiErr.Details)
	}

	if err := client.DeleteCampaign(ctx, sess, "c1"); err != nil {
		t.Fatalf("delete campaign: %v", err)
	}

	_, err = client.GetCampaign(ctx, sess, "c1")
	apiErr, ok = appErrors.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Campaign not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}

	list, err := client.ListCampaigns(ctx, sess)
	if err != nil {
		t.Fatalf("list campaigns: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 campaign after delete, got %d", len(list))
	}
}
