package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/19taurus79/EridonAPI/api/constants"
	"github.com/19taurus79/EridonAPI/internal/matching"
	"github.com/19taurus79/EridonAPI/internal/notification"
	"github.com/19taurus79/EridonAPI/internal/session"
)

// Handler: ResultsHandler returns the full matched set plus whatever remains
// unresolved, grouped by request. The read is non-destructive: calling it
// twice without an intervening manual match returns identical payloads.
func ResultsHandler(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]

		var matchedData []map[string]interface{}
		var unmatched map[string]interface{}
		err := sessions.WithLock(sessionID, func(st *session.State) error {
			matchedData = matching.MatchedView(st.Matched)
			unmatched = matching.UnmatchedView(st.Leftovers)
			return nil
		})
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				http.Error(w, constants.ErrSessionNotFound, http.StatusNotFound)
				return
			}
			http.Error(w, constants.ErrInternalServer, http.StatusInternalServerError)
			return
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"matched_data":         matchedData,
			"unmatched_by_request": unmatched,
		})
	}
}

// MatchedSaver is the downstream collaborator that persists finalized
// attributions; satisfied by store.MovedDataStore.
type MatchedSaver interface {
	SaveMatched(ctx context.Context, matched []matching.MatchedRecord) (inserted, skipped int64, err error)
}

// Handler: SaveResultsHandler persists the session's matched list through
// the moved-data store and closes the session. Duplicates of previously
// persisted matches are skipped by the store, so re-submitting a finished
// reconciliation is safe.
func SaveResultsHandler(sessions *session.Store, movedData MatchedSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]

		var inserted, skipped int64
		err := sessions.WithLock(sessionID, func(st *session.State) error {
			var saveErr error
			inserted, skipped, saveErr = movedData.SaveMatched(r.Context(), st.Matched)
			if saveErr != nil {
				return saveErr
			}
			sessions.Delete(st.ID)
			return nil
		})
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				http.Error(w, constants.ErrSessionNotFound, http.StatusNotFound)
				return
			}
			http.Error(w, constants.FormatError(constants.ErrStoreUnavailable, err), http.StatusServiceUnavailable)
			return
		}

		notification.Default.ReconciliationComplete(sessionID, inserted, skipped)

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"session_id": sessionID,
			"inserted":   inserted,
			"skipped":    skipped,
		})
	}
}
