package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStatus struct {
	Owner    string `json:"owner"`
	Injected uint64 `json:"injected"`
}

func newTestServer(token string) *Server {
	return NewServer(func() any { return fakeStatus{Owner: "Remote", Injected: 7} }, token)
}

func TestStatusWithoutToken(t *testing.T) {
	h := newTestServer("").Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var got fakeStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if got.Owner != "Remote" || got.Injected != 7 {
		t.Errorf("Expected {Remote 7}, got %+v", got)
	}
}

func TestStatusRequiresToken(t *testing.T) {
	h := newTestServer("secret").Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with token, got %d", rec.Code)
	}

	// health is always open
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for /health, got %d", rec.Code)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer("").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	s := NewServer(func() any { panic("boom") }, "")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestStartAndStop(t *testing.T) {
	s := newTestServer("")
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	defer s.Stop()

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.Addr()))
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	s.Stop()
	s.Stop()
}
