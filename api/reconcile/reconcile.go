package reconcile

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/19taurus79/EridonAPI/internal/jobs"
	"github.com/19taurus79/EridonAPI/internal/session"
	"github.com/19taurus79/EridonAPI/internal/store"
)

// StartReconcileService brings up the reconciliation HTTP service: the
// upload endpoint, the manual-match protocol and the results read-out. The
// session store lives here and the TTL sweeper runs against it for the
// lifetime of the process.
func StartReconcileService(cfg map[string]interface{}, db *sql.DB, pgxPool *pgxpool.Pool) {
	sessions := session.NewStore()
	movedData := store.NewMovedDataStore(pgxPool)

	if _, err := jobs.RunSessionSweeper(jobs.NewDefaultSweeperConfig(), sessions); err != nil {
		log.Printf("Reconcile Service: session sweeper not started: %v", err)
	}

	r := mux.NewRouter()
	r.Handle("/upload", UploadHandler(sessions)).Methods(http.MethodPost)
	r.Handle("/process/{session_id}/manual_match", ManualMatchHandler(sessions)).Methods(http.MethodPost)
	r.Handle("/process/{session_id}/results", ResultsHandler(sessions)).Methods(http.MethodGet)
	r.Handle("/process/{session_id}/save", SaveResultsHandler(sessions, movedData)).Methods(http.MethodPost)
	r.Handle("/notifications", NotificationsHandler()).Methods(http.MethodGet)
	r.Handle("/health", HealthHandler(db)).Methods(http.MethodGet)

	port := 7143
	if v, ok := cfg["port"]; ok {
		switch p := v.(type) {
		case int:
			port = p
		case float64:
			port = int(p)
		}
	}
	addr := fmt.Sprintf(":%d", port)
	log.Println("Reconcile Service started on", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Reconcile Service failed: %v", err)
	}
}
