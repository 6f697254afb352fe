package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandler_AllHealthy(t *testing.T) {
	handler := NewHandler("1.2.3")
	handler.Register("storage", func() error { return nil })
	handler.Register("kafka", func() error { return nil })

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var response Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if response.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", response.Status)
	}
	if response.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", response.Version)
	}
	if len(response.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(response.Checks))
	}
}

func TestHandler_UnhealthyDependency(t *testing.T) {
	handler := NewHandler("dev")
	handler.Register("storage", func() error { return nil })
	handler.Register("kafka", func() error { return errors.New("broker unreachable") })

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}

	var response Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if response.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", response.Status)
	}
	if response.Checks["kafka"].Message != "broker unreachable" {
		t.Fatalf("unexpected kafka check message: %q", response.Checks["kafka"].Message)
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("dev")
	handler.Register("storage", func() error { return nil })

	recorder := httptest.NewRecorder()
	handler.ReadinessHandler(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	handler.Register("storage", func() error { return errors.New("down") })
	recorder = httptest.NewRecorder()
	handler.ReadinessHandler(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}
}

func TestLivenessHandler(t *testing.T) {
	recorder := httptest.NewRecorder()
	LivenessHandler(recorder, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}
