package notification

import (
	"fmt"
	"sync"
	"time"

	"github.com/19taurus79/EridonAPI/internal/logger"
)

// Event is one reconciliation lifecycle notification. Delivery to managers
// (Telegram, calendar) happens outside this service; subscribers drain the
// queue through Pending.
type Event struct {
	Kind      string
	SessionID string
	Message   string
	At        time.Time
}

// maxPending bounds the event queue. Without a consumer the oldest events
// fall off; the audit log keeps the full history either way.
const maxPending = 256

type Service struct {
	mu     sync.Mutex
	events []Event
}

func NewService() *Service {
	return &Service{events: make([]Event, 0)}
}

func (s *Service) publish(kind, sessionID, message string) {
	s.mu.Lock()
	s.events = append(s.events, Event{Kind: kind, SessionID: sessionID, Message: message, At: time.Now()})
	if len(s.events) > maxPending {
		s.events = s.events[len(s.events)-maxPending:]
	}
	s.mu.Unlock()
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("[Notify] %s session=%s %s", kind, sessionID, message))
	}
}

// UploadProcessed announces that an upload finished auto-matching.
func (s *Service) UploadProcessed(sessionID string, matched, leftovers int) {
	s.publish("upload_processed", sessionID, fmt.Sprintf("%d matched automatically, %d request(s) need manual attention", matched, leftovers))
}

// ReconciliationComplete announces that a session was persisted and closed.
func (s *Service) ReconciliationComplete(sessionID string, inserted, skipped int64) {
	s.publish("reconciliation_complete", sessionID, fmt.Sprintf("%d record(s) persisted, %d duplicate(s) skipped", inserted, skipped))
}

// Pending returns and clears the queued events.
func (s *Service) Pending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = make([]Event, 0)
	return out
}

var Default = NewService()
