package usage

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"hub-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, tiers []Tier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	table, err := NewTierTable(tiers)
	if err != nil {
		t.Fatalf("NewTierTable: %v", err)
	}
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	meter, err := NewMeter(NewMemoryStore(), table, MeterConfig{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewMeter: %v", err)
	}

	r := gin.New()
	r.Use(middleware.Identity("user-123"))
	h := NewHandler(meter)
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterDevRoutes(r.Group("/api/v1/dev"))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestConsumeEndpointCountsDownThenDenies(t *testing.T) {
	tiers := []Tier{{ID: "free", Limits: map[string]int{"heuristics": 2}}}
	r := newTestRouter(t, tiers)

	for want := 1; want >= 0; want-- {
		w := doJSON(r, http.MethodPost, "/api/v1/subscription/usage", `{"agentId":"heuristics"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var d Decision
		if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !d.Allowed || d.Remaining != want {
			t.Fatalf("expected allowed with remaining %d, got %+v", want, d)
		}
	}

	w := doJSON(r, http.MethodPost, "/api/v1/subscription/usage", `{"agentId":"heuristics"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "limit_reached" {
		t.Fatalf("expected limit_reached, got %s", code)
	}
}

func TestConsumeEndpointValidation(t *testing.T) {
	r := newTestRouter(t, DefaultTiers())

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, http.StatusBadRequest, "validation_error"},
		{"missing agent", `{}`, http.StatusBadRequest, "validation_error"},
		{"unknown agent", `{"agentId":"nope"}`, http.StatusNotFound, "unknown_agent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/v1/subscription/usage", tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if code := errorCode(t, w); code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, code)
			}
		})
	}
}

func TestCheckEndpointDoesNotConsume(t *testing.T) {
	r := newTestRouter(t, DefaultTiers())

	for i := 0; i < 2; i++ {
		w := doJSON(r, http.MethodGet, "/api/v1/subscription/usage/comparison", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var d Decision
		if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if d.Used != 0 || d.Remaining != 3 || !d.Allowed {
			t.Fatalf("unexpected decision %+v", d)
		}
	}
}

func TestStatusAndPlanChange(t *testing.T) {
	r := newTestRouter(t, DefaultTiers())

	w := doJSON(r, http.MethodGet, "/api/v1/subscription", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Tier.ID != "free" || status.Remaining["ideation"] != 3 {
		t.Fatalf("unexpected status %+v", status)
	}

	w = doJSON(r, http.MethodPatch, "/api/v1/subscription", `{"planId":"designer"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rec Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.TierID != "designer" || !rec.PeriodEnd.Equal(rec.PeriodStart.Add(Period)) {
		t.Fatalf("unexpected record %+v", rec)
	}

	w = doJSON(r, http.MethodPatch, "/api/v1/subscription", `{"planId":"platinum"}`)
	if w.Code != http.StatusNotFound || errorCode(t, w) != "unknown_tier" {
		t.Fatalf("expected 404 unknown_tier, got %d %s", w.Code, w.Body.String())
	}
}

func TestPlansEndpoint(t *testing.T) {
	r := newTestRouter(t, DefaultTiers())

	w := doJSON(r, http.MethodGet, "/api/v1/subscription/plans", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Plans []Tier `json:"plans"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Plans) != len(DefaultTiers()) {
		t.Fatalf("expected %d plans, got %d", len(DefaultTiers()), len(body.Plans))
	}
}

func TestCheckoutURL(t *testing.T) {
	r := newTestRouter(t, DefaultTiers())

	cases := map[string]string{
		"free":     "/subscription/confirm?plan=free",
		"designer": "/subscription/checkout?plan=designer&price=97",
		"team":     "/contact?plan=team",
	}
	for planID, want := range cases {
		w := doJSON(r, http.MethodPut, "/api/v1/subscription/checkout", `{"planId":"`+planID+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", planID, w.Code)
		}
		var body struct {
			CheckoutURL string `json:"checkoutUrl"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.CheckoutURL != want {
			t.Fatalf("%s: expected %s, got %s", planID, want, body.CheckoutURL)
		}
	}
}

func TestDevResetKeepsTier(t *testing.T) {
	r := newTestRouter(t, DefaultTiers())

	doJSON(r, http.MethodPatch, "/api/v1/subscription", `{"planId":"pro"}`)
	doJSON(r, http.MethodPost, "/api/v1/subscription/usage", `{"agentId":"ideation"}`)

	w := doJSON(r, http.MethodPost, "/api/v1/dev/subscription/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rec Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.TierID != "pro" || rec.Counts["ideation"] != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
}
