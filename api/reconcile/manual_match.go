package reconcile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/19taurus79/EridonAPI/api/constants"
	"github.com/19taurus79/EridonAPI/internal/matching"
	"github.com/19taurus79/EridonAPI/internal/session"
)

// ManualMatchInput is what the operator UI sends to resolve part of a
// leftover unit by hand.
type ManualMatchInput struct {
	RequestID            string                       `json:"request_id"`
	SelectedMovedItems   []matching.SelectedMovedItem `json:"selected_moved_items"`
	SelectedNotesIndices []int                        `json:"selected_notes_indices"`
}

// Handler: ManualMatchHandler applies one operator decision to a session.
// The call is serialized against other calls on the same session, so a stale
// view can only fail with a selection error, never double-count.
func ManualMatchHandler(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]

		var input ManualMatchInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.RequestID == "" {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}

		var leftovers map[string]interface{}
		err := sessions.WithLock(sessionID, func(st *session.State) error {
			unit, ok := st.Leftovers[input.RequestID]
			if !ok {
				return matching.ErrRequestNotFound
			}
			records, err := unit.ManualMatch(input.SelectedMovedItems, input.SelectedNotesIndices)
			if err != nil {
				return err
			}
			st.Matched = append(st.Matched, records...)
			if unit.Exhausted() {
				delete(st.Leftovers, input.RequestID)
			}
			leftovers = matching.LeftoversView(st.Leftovers)
			return nil
		})
		if err != nil {
			writeMatchError(w, err)
			return
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":    "Manual match applied",
			"session_id": sessionID,
			"leftovers":  leftovers,
		})
	}
}

// writeMatchError maps the engine's error taxonomy onto HTTP statuses:
// unknown session or request is terminal for the call (404), everything else
// is recoverable with a corrected or refreshed selection (400).
func writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, constants.ErrSessionNotFound, http.StatusNotFound)
	case errors.Is(err, matching.ErrRequestNotFound):
		http.Error(w, constants.ErrRequestNotFound, http.StatusNotFound)
	case errors.Is(err, matching.ErrEmptySelection):
		http.Error(w, constants.ErrEmptySelection, http.StatusBadRequest)
	case errors.Is(err, matching.ErrStaleIndex):
		http.Error(w, constants.FormatError(constants.ErrSelectionConsumed, err), http.StatusBadRequest)
	case errors.Is(err, matching.ErrQuantityExceeded):
		http.Error(w, constants.FormatError(constants.ErrQuantityExceeded, err), http.StatusBadRequest)
	case errors.Is(err, matching.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, constants.ErrInternalServer, http.StatusInternalServerError)
	}
}
