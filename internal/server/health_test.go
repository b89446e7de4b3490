package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHealth(t *testing.T) {
	h := NewHealth("0.1.0")
	if h == nil {
		t.Fatal("expected non-nil tracker")
	}
	if h.version != "0.1.0" {
		t.Fatalf("expected version 0.1.0, got %s", h.version)
	}
}

func TestHealth_SetReady(t *testing.T) {
	h := NewHealth("")

	if h.ready {
		t.Fatal("expected not ready initially")
	}
	h.SetReady(true)
	if !h.ready {
		t.Fatal("expected ready after SetReady(true)")
	}
}

func TestHealth_HandleHealth_AllHealthy(t *testing.T) {
	h := NewHealth("0.1.0")
	h.RegisterCheck("qdrant", func(ctx context.Context) HealthCheck {
		return HealthCheck{Name: "qdrant", Status: HealthStatusHealthy}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != HealthStatusHealthy {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
	if resp.Version != "0.1.0" {
		t.Errorf("version %q", resp.Version)
	}
	if len(resp.Checks) != 1 {
		t.Errorf("expected 1 check, got %d", len(resp.Checks))
	}
}

func TestHealth_HandleHealth_Unhealthy(t *testing.T) {
	h := NewHealth("")
	h.RegisterCheck("qdrant", func(ctx context.Context) HealthCheck {
		return HealthCheck{Name: "qdrant", Status: HealthStatusUnhealthy, Message: "connection refused"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.handleHealth(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHealth_HandleHealth_Degraded(t *testing.T) {
	h := NewHealth("")
	h.RegisterCheck("graph", func(ctx context.Context) HealthCheck {
		return HealthCheck{Name: "graph", Status: HealthStatusDegraded, Message: "slow"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.handleHealth(w, req)

	// Degraded still serves traffic.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
}

func TestHealth_HandleReady(t *testing.T) {
	h := NewHealth("")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	h.handleReady(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", w.Code)
	}

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.handleReady(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after ready, got %d", w.Code)
	}
}

func TestHealth_Register(t *testing.T) {
	h := NewHealth("")
	mux := http.NewServeMux()
	h.Register(mux)

	for _, path := range []string{"/health", "/ready", "/live", "/healthz", "/readyz", "/livez"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Errorf("endpoint %s not mounted", path)
		}
	}
}
