package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/19taurus79/EridonAPI/internal/matching"
	"github.com/19taurus79/EridonAPI/internal/session"
)

func newTestRouter(sessions *session.Store, saver MatchedSaver) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/upload", UploadHandler(sessions)).Methods(http.MethodPost)
	r.Handle("/process/{session_id}/manual_match", ManualMatchHandler(sessions)).Methods(http.MethodPost)
	r.Handle("/process/{session_id}/results", ResultsHandler(sessions)).Methods(http.MethodGet)
	if saver != nil {
		r.Handle("/process/{session_id}/save", SaveResultsHandler(sessions, saver)).Methods(http.MethodPost)
	}
	return r
}

func newTestSession(t *testing.T, sessions *session.Store) *session.State {
	t.Helper()
	leftovers := map[string]*matching.Unit{
		"ЕД-00000001": {
			RequestID: "ЕД-00000001",
			Product:   "Пшениця еліта 2025",
			Moved: []matching.MovedRow{
				{Index: 0, RequestID: "ЕД-00000001", Product: "Пшениця еліта 2025", PartySign: "П-1", Moved: decimal.NewFromInt(100)},
			},
			Notes: []matching.ContractFragment{
				{Index: 0, Contract: "КП-00001111", Quantity: decimal.NewFromInt(40)},
				{Index: 1, Contract: "КП-00002222", Quantity: decimal.NewFromInt(60)},
			},
		},
	}
	matched := []matching.MatchedRecord{{
		RequestID: "ЕД-00000002",
		Product:   "Соя 2025",
		PartySign: "П-2",
		Contract:  "КП-00003333",
		Quantity:  decimal.NewFromInt(80),
		Source:    matching.SourceAutoSingleContract,
	}}
	return sessions.Create(leftovers, matched)
}

func manualMatchBody(t *testing.T, requestID string, items []matching.SelectedMovedItem, notes []int) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(ManualMatchInput{
		RequestID:            requestID,
		SelectedMovedItems:   items,
		SelectedNotesIndices: notes,
	})
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestManualMatchHandler(t *testing.T) {
	sessions := session.NewStore()
	st := newTestSession(t, sessions)
	router := newTestRouter(sessions, nil)

	body := manualMatchBody(t, "ЕД-00000001",
		[]matching.SelectedMovedItem{{Index: 0, Quantity: decimal.NewFromInt(40)}}, []int{0})
	req := httptest.NewRequest(http.MethodPost, "/process/"+st.ID+"/manual_match", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string                            `json:"session_id"`
		Leftovers map[string]map[string]interface{} `json:"leftovers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != st.ID {
		t.Fatalf("session_id = %q", resp.SessionID)
	}
	unit, ok := resp.Leftovers["ЕД-00000001"]
	if !ok {
		t.Fatalf("partially consumed unit must stay in leftovers: %v", resp.Leftovers)
	}
	moved := unit["current_moved"].([]interface{})
	if len(moved) != 1 || moved[0].(map[string]interface{})["moved_qty"] != float64(60) {
		t.Fatalf("remaining moved row wrong: %v", moved)
	}

	got, _ := sessions.Get(st.ID)
	if len(got.Matched) != 2 {
		t.Fatalf("matched list has %d records, want 2", len(got.Matched))
	}
}

func TestManualMatchHandlerExhaustsUnit(t *testing.T) {
	sessions := session.NewStore()
	st := newTestSession(t, sessions)
	router := newTestRouter(sessions, nil)

	body := manualMatchBody(t, "ЕД-00000001",
		[]matching.SelectedMovedItem{{Index: 0, Quantity: decimal.NewFromInt(100)}}, []int{0, 1})
	req := httptest.NewRequest(http.MethodPost, "/process/"+st.ID+"/manual_match", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ := sessions.Get(st.ID)
	if len(got.Leftovers) != 0 {
		t.Fatalf("exhausted unit must drop from leftovers: %v", got.Leftovers)
	}
}

func TestManualMatchHandlerErrors(t *testing.T) {
	sessions := session.NewStore()
	st := newTestSession(t, sessions)
	router := newTestRouter(sessions, nil)

	tests := []struct {
		name   string
		target string
		body   *bytes.Buffer
		status int
	}{
		{
			name:   "unknown session",
			target: "/process/no-such-session/manual_match",
			body: manualMatchBody(t, "ЕД-00000001",
				[]matching.SelectedMovedItem{{Index: 0, Quantity: decimal.NewFromInt(10)}}, []int{0}),
			status: http.StatusNotFound,
		},
		{
			name:   "unknown request",
			target: "/process/" + st.ID + "/manual_match",
			body: manualMatchBody(t, "ЕД-99999999",
				[]matching.SelectedMovedItem{{Index: 0, Quantity: decimal.NewFromInt(10)}}, []int{0}),
			status: http.StatusNotFound,
		},
		{
			name:   "stale moved index",
			target: "/process/" + st.ID + "/manual_match",
			body: manualMatchBody(t, "ЕД-00000001",
				[]matching.SelectedMovedItem{{Index: 7, Quantity: decimal.NewFromInt(10)}}, []int{0}),
			status: http.StatusBadRequest,
		},
		{
			name:   "quantity exceeds remainder",
			target: "/process/" + st.ID + "/manual_match",
			body: manualMatchBody(t, "ЕД-00000001",
				[]matching.SelectedMovedItem{{Index: 0, Quantity: decimal.NewFromInt(500)}}, []int{0}),
			status: http.StatusBadRequest,
		},
		{
			name:   "empty selection",
			target: "/process/" + st.ID + "/manual_match",
			body:   manualMatchBody(t, "ЕД-00000001", nil, []int{0}),
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed body",
			target: "/process/" + st.ID + "/manual_match",
			body:   bytes.NewBufferString("{not json"),
			status: http.StatusBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.target, tc.body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}

	// none of the failed calls may have touched the session
	got, _ := sessions.Get(st.ID)
	if len(got.Matched) != 1 || len(got.Leftovers["ЕД-00000001"].Moved) != 1 {
		t.Fatalf("failed calls must leave the session untouched: %+v", got)
	}
}

func TestResultsHandler(t *testing.T) {
	sessions := session.NewStore()
	st := newTestSession(t, sessions)
	router := newTestRouter(sessions, nil)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/process/"+st.ID+"/results", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := get()
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", first.Code, first.Body.String())
	}
	var resp struct {
		MatchedData        []map[string]interface{} `json:"matched_data"`
		UnmatchedByRequest map[string]interface{}   `json:"unmatched_by_request"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.MatchedData) != 1 || resp.MatchedData[0]["contract_id"] != "КП-00003333" {
		t.Fatalf("matched_data wrong: %v", resp.MatchedData)
	}
	if _, ok := resp.UnmatchedByRequest["ЕД-00000001"]; !ok {
		t.Fatalf("unmatched_by_request wrong: %v", resp.UnmatchedByRequest)
	}

	// a re-read without an intervening manual match is byte-identical
	second := get()
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("results read must be idempotent:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestResultsHandlerUnknownSession(t *testing.T) {
	router := newTestRouter(session.NewStore(), nil)
	req := httptest.NewRequest(http.MethodGet, "/process/no-such-session/results", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

type fakeSaver struct {
	inserted, skipped int64
	err               error
	saved             []matching.MatchedRecord
}

func (f *fakeSaver) SaveMatched(_ context.Context, matched []matching.MatchedRecord) (int64, int64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.saved = matched
	return f.inserted, f.skipped, nil
}

func TestSaveResultsHandler(t *testing.T) {
	sessions := session.NewStore()
	st := newTestSession(t, sessions)
	saver := &fakeSaver{inserted: 1}
	router := newTestRouter(sessions, saver)

	req := httptest.NewRequest(http.MethodPost, "/process/"+st.ID+"/save", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success  bool  `json:"success"`
		Inserted int64 `json:"inserted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Inserted != 1 {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saver got %d records, want 1", len(saver.saved))
	}
	if _, ok := sessions.Get(st.ID); ok {
		t.Fatal("session must be closed after a successful save")
	}
}

func TestSaveResultsHandlerStoreError(t *testing.T) {
	sessions := session.NewStore()
	st := newTestSession(t, sessions)
	saver := &fakeSaver{err: errors.New("connection refused")}
	router := newTestRouter(sessions, saver)

	req := httptest.NewRequest(http.MethodPost, "/process/"+st.ID+"/save", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("error detail missing: %s", rec.Body.String())
	}
	if _, ok := sessions.Get(st.ID); !ok {
		t.Fatal("failed save must keep the session for retry")
	}
}
