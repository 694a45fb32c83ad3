package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/session"
)

type fakeController struct {
	status   session.Status
	startErr error
	starts   int
	stops    int
}

func (f *fakeController) Start(ctx context.Context) (session.Status, error) {
	f.starts++
	if f.startErr != nil {
		return f.status, f.startErr
	}
	f.status = session.StatusListening
	return f.status, nil
}

func (f *fakeController) Stop() session.Status {
	f.stops++
	f.status = session.StatusIdle
	return f.status
}

func (f *fakeController) Status() session.Status { return f.status }

func do(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	return w
}

func decodeControl(t *testing.T, w *httptest.ResponseRecorder) ControlResponse {
	t.Helper()
	var resp ControlResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid control response: %v", err)
	}
	return resp
}

func TestServer_Healthz(t *testing.T) {
	srv := New(&fakeController{status: session.StatusIdle})
	if w := do(t, srv, http.MethodGet, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestStatus_ReportsSessionState(t *testing.T) {
	srv := New(&fakeController{status: session.StatusListening})
	w := do(t, srv, http.MethodGet, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid status response: %v", err)
	}
	if resp.SessionState != session.StatusListening {
		t.Fatalf("sessionState = %q, want listening", resp.SessionState)
	}
}

func TestStart_OK(t *testing.T) {
	ctrl := &fakeController{status: session.StatusIdle}
	srv := New(ctrl)
	w := do(t, srv, http.MethodPost, "/start")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeControl(t, w)
	if !resp.OK || resp.SessionState != session.StatusListening {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStart_AlreadyRunningConflict(t *testing.T) {
	ctrl := &fakeController{status: session.StatusListening, startErr: session.ErrAlreadyRunning}
	srv := New(ctrl)
	w := do(t, srv, http.MethodPost, "/start")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := decodeControl(t, w)
	if resp.OK || resp.SessionState != session.StatusListening || resp.Error == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStart_MissingCredentials(t *testing.T) {
	ctrl := &fakeController{status: session.StatusIdle, startErr: session.ErrMissingCredentials}
	srv := New(ctrl)
	w := do(t, srv, http.MethodPost, "/start")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestStop_AlwaysOK(t *testing.T) {
	ctrl := &fakeController{status: session.StatusListening}
	srv := New(ctrl)
	for i := 0; i < 2; i++ {
		w := do(t, srv, http.MethodPost, "/stop")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		resp := decodeControl(t, w)
		if !resp.OK || resp.SessionState != session.StatusIdle {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}
	if ctrl.stops != 2 {
		t.Fatalf("expected both stops to reach the controller")
	}
}

func TestMethodsAreEnforced(t *testing.T) {
	srv := New(&fakeController{status: session.StatusIdle})
	if w := do(t, srv, http.MethodGet, "/start"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /start: expected 405, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/status"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /status: expected 405, got %d", w.Code)
	}
}
