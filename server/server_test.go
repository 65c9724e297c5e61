package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tanawat-p/supportdesk/agent/handlers"
	"github.com/tanawat-p/supportdesk/agent/router"
	"github.com/tanawat-p/supportdesk/agent/session"
	"github.com/tanawat-p/supportdesk/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	orders := memory.NewOrderStore()
	ledger := memory.NewRefundLedger()

	manager, err := session.NewManager(func(opts ...router.Option) (*router.Router, error) {
		return router.New(
			handlers.NewRefundHandler(orders, ledger),
			handlers.NewOrderHandler(orders),
			handlers.NewSupportHandler(),
			opts...,
		)
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	srv, err := New(manager)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func postRun(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/run", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRunRoutesMessage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := postRun(t, srv, `{"session_id":"s1","message":"check order 12345"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Response string `json:"response"`
		Status   string `json:"status"`
		Handler  string `json:"handler"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Handler != "OrderHandler" {
		t.Fatalf("handler = %q", resp.Handler)
	}
	if !strings.Contains(resp.Response, "John Doe") {
		t.Fatalf("response = %q", resp.Response)
	}
}

func TestRunKeepsSessionContext(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	if rec := postRun(t, srv, `{"session_id":"s1","message":"I want a refund"}`); rec.Code != http.StatusOK {
		t.Fatalf("turn 1 status = %d", rec.Code)
	}

	rec := postRun(t, srv, `{"session_id":"s1","message":"12345"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("turn 2 status = %d", rec.Code)
	}

	var resp struct {
		Handler string `json:"handler"`
		Reason  string `json:"routing_reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Handler != "RefundHandler" {
		t.Fatalf("handler = %q, want RefundHandler", resp.Handler)
	}
	if resp.Reason != "context" {
		t.Fatalf("reason = %q, want context", resp.Reason)
	}
}

func TestRunRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	if rec := postRun(t, srv, `{"session_id":"s1","message":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if rec := postRun(t, srv, `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRunDefaultsSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	if rec := postRun(t, srv, `{"message":"hello"}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	postRun(t, srv, `{"session_id":"s1","message":"hello"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/status?session_id=s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Agents []struct {
			Name         string `json:"name"`
			Interactions int    `json:"interactions_count"`
		} `json:"agents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Agents) != 3 {
		t.Fatalf("agents = %d, want 3", len(resp.Agents))
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	postRun(t, srv, `{"session_id":"s1","message":"hello"}`)
	postRun(t, srv, `{"session_id":"s1","message":"check order 12345"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/history?session_id=s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp struct {
		History []struct {
			Message string `json:"message"`
			Handler string `json:"handler"`
		} `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.History) != 2 {
		t.Fatalf("history = %d, want 2", len(resp.History))
	}
	if resp.History[1].Handler != "OrderHandler" {
		t.Fatalf("handler = %q", resp.History[1].Handler)
	}
}

func TestForgetEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	postRun(t, srv, `{"session_id":"s1","message":"hello"}`)

	req := httptest.NewRequest(http.MethodDelete, "/api/session?session_id=s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// The next turn starts a fresh conversation: a bare order number no
	// longer routes by context.
	recRun := postRun(t, srv, `{"session_id":"s1","message":"12345"}`)
	var resp struct {
		Reason string `json:"routing_reason"`
	}
	if err := json.Unmarshal(recRun.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Reason == "context" {
		t.Fatal("forgotten session should not retain context")
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("health = %q", resp.Status)
	}
}
