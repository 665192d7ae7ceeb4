package reconcile

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/19taurus79/EridonAPI/internal/notification"
)

// failingConnector hands sql.DB a connection that never comes up.
type failingConnector struct{}

func (failingConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, errors.New("connection refused")
}

func (failingConnector) Driver() driver.Driver { return nil }

func TestHealthHandler(t *testing.T) {
	// no database configured: the service is still healthy
	rec := httptest.NewRecorder()
	HealthHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// configured but unreachable database degrades the service
	db := sql.OpenDB(failingConnector{})
	defer db.Close()
	rec = httptest.NewRecorder()
	HealthHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %s", rec.Code, rec.Body.String())
	}
}

func TestNotificationsHandler(t *testing.T) {
	notification.Default.Pending() // clear events queued by other tests
	notification.Default.UploadProcessed("sess-1", 2, 1)

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		NotificationsHandler()(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
		return rec
	}

	first := get()
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", first.Code, first.Body.String())
	}
	var resp struct {
		Notifications []map[string]interface{} `json:"notifications"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(resp.Notifications))
	}
	n := resp.Notifications[0]
	if n["kind"] != "upload_processed" || n["session_id"] != "sess-1" {
		t.Fatalf("unexpected notification %+v", n)
	}

	// draining is destructive: a second read comes back empty
	second := get()
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if len(resp.Notifications) != 0 {
		t.Fatalf("drained queue must be empty, got %v", resp.Notifications)
	}
}
