package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/19taurus79/EridonAPI/api/constants"
	"github.com/19taurus79/EridonAPI/internal/notification"
)

// Handler: HealthHandler reports liveness and, when a database handle is
// configured, its connectivity. A service without persistence is still
// healthy; a configured but unreachable database is not.
func HealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, constants.FormatError("Reconcile Service degraded: database unreachable", err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Reconcile Service is healthy"))
	}
}

// Handler: NotificationsHandler drains the queued reconciliation lifecycle
// events for delivery to managers. Draining is destructive: each event is
// handed out exactly once.
func NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events := notification.Default.Pending()
		out := make([]map[string]interface{}, 0, len(events))
		for _, e := range events {
			out = append(out, map[string]interface{}{
				"kind":       e.Kind,
				"session_id": e.SessionID,
				"message":    e.Message,
				"at":         e.At.Format(constants.DateTimeFormat),
			})
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"notifications": out,
		})
	}
}
