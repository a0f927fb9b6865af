package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/engine"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/llm"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

func newTestServer(t *testing.T, client llm.Client, defaults engine.SimulationDefaults) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng := engine.New(db, client, nil, defaults)
	t.Cleanup(eng.Stop)

	return New(db, eng, "test-version", "default")
}

func testServer(t *testing.T) *Server {
	t.Helper()
	return newTestServer(t, nil, engine.SimulationDefaults{
		StartCapacityKB:    1000,
		DecayPercent:       5,
		DecayIntervalYears: 2,
		TotalYears:         60,
		Tick:               time.Hour,
	})
}

// doJSON runs one request against the server and decodes the JSON response.
func doJSON(t *testing.T, srv *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var out map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

// createItem posts one item and returns its id.
func createItem(t *testing.T, srv *Server, body string) string {
	t.Helper()
	code, resp := doJSON(t, srv, "POST", "/api/items", body)
	if code != http.StatusCreated {
		t.Fatalf("create item: status = %d, body: %v", code, resp)
	}
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatalf("create item: missing id in %v", resp)
	}
	return id
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t)

	createItem(t, srv, `{"title":"notes","size_kb":100}`)
	createItem(t, srv, `{"title":"logs","size_kb":50}`)

	code, resp := doJSON(t, srv, "GET", "/api/status", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp["total_items"] != float64(2) {
		t.Errorf("total_items = %v, want 2", resp["total_items"])
	}
	if resp["active_items"] != float64(2) {
		t.Errorf("active_items = %v, want 2", resp["active_items"])
	}
	if resp["storage_kb"] != float64(150) {
		t.Errorf("storage_kb = %v, want 150", resp["storage_kb"])
	}
	// No simulation has been touched yet.
	if resp["state"] != nil {
		t.Errorf("state = %v, want null", resp["state"])
	}
}

func TestReportEndpoint(t *testing.T) {
	srv := testServer(t)

	createItem(t, srv, `{"title":"field survey","size_kb":40}`)

	code, resp := doJSON(t, srv, "GET", "/api/report", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	report, _ := resp["report"].(string)
	if !strings.Contains(report, "Entropic Archive") {
		t.Errorf("report missing header: %s", report)
	}
	if !strings.Contains(report, "Storage") {
		t.Errorf("report missing storage section: %s", report)
	}
	if !strings.Contains(report, "field survey") {
		t.Errorf("report missing item title: %s", report)
	}
}

func TestDashboardNotEmbedded(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if uiFS == nil && w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d without embedded dashboard", w.Code, http.StatusNotFound)
	}
}
