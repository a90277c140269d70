package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

func apiKeyConn() *models.Connection {
	return &models.Connection{APIKey: "AIzaValidLookingKey1234567890123"}
}

func TestAPIKey_ListSheets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "AIzaValidLookingKey1234567890123" {
			t.Errorf("missing api key in %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Sheet1"}},{"properties":{"title":"Sheet2"}}]}`))
	}))
	defer srv.Close()

	a := newAPIKeyStrategy(srv.URL, newHTTPClient(time.Second))
	names, err := a.ListSheets(context.Background(), apiKeyConn(), "sid")
	if err != nil {
		t.Fatalf("ListSheets failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Sheet1" || names[1] != "Sheet2" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestAPIKey_FetchHeadersUsesHeaderRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "Bookings!1:1") {
			t.Errorf("expected header range in path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"values":[["Name","Amount","Date"]]}`))
	}))
	defer srv.Close()

	a := newAPIKeyStrategy(srv.URL, newHTTPClient(time.Second))
	headers, err := a.FetchHeaders(context.Background(), apiKeyConn(), "sid", "Bookings")
	if err != nil {
		t.Fatalf("FetchHeaders failed: %v", err)
	}
	if len(headers) != 3 || headers[1] != "Amount" {
		t.Errorf("unexpected headers %v", headers)
	}
}

func TestAPIKey_FetchData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"values":[["Name","ID"],["Alice","1"],["Bob","2"]]}`))
	}))
	defer srv.Close()

	a := newAPIKeyStrategy(srv.URL, newHTTPClient(time.Second))
	rows, err := a.FetchData(context.Background(), apiKeyConn(), "sid", "Bookings")
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	if len(rows) != 3 || rows[2][1] != "2" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestAPIKey_EmptyValuesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := newAPIKeyStrategy(srv.URL, newHTTPClient(time.Second))
	if _, err := a.FetchData(context.Background(), apiKeyConn(), "sid", "Empty"); err == nil {
		t.Error("expected error for empty values")
	}
}

func TestAPIKey_StatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantText string
	}{
		{http.StatusUnauthorized, "API key rejected"},
		{http.StatusForbidden, "anyone with the link"},
		{http.StatusNotFound, "not found"},
		{http.StatusTooManyRequests, "quota"},
		{http.StatusBadGateway, "unexpected status 502"},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		a := newAPIKeyStrategy(srv.URL, newHTTPClient(time.Second))
		_, err := a.TestAccess(context.Background(), apiKeyConn(), "sid")
		srv.Close()

		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantText) {
			t.Errorf("status %d: error %q missing %q", tt.status, err.Error(), tt.wantText)
		}
	}
}

func TestAPIKey_TestAccessTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"title":"Q3 Numbers"}}`))
	}))
	defer srv.Close()

	a := newAPIKeyStrategy(srv.URL, newHTTPClient(time.Second))
	title, err := a.TestAccess(context.Background(), apiKeyConn(), "sid")
	if err != nil {
		t.Fatalf("TestAccess failed: %v", err)
	}
	if title != "Q3 Numbers" {
		t.Errorf("title %q", title)
	}
}

func TestAPIKey_CanHandle(t *testing.T) {
	a := newAPIKeyStrategy("http://unused", newHTTPClient(time.Second))
	if a.CanHandle(&models.Connection{}) {
		t.Error("connection without key should not be handled")
	}
	if !a.CanHandle(apiKeyConn()) {
		t.Error("connection with key should be handled")
	}
}
