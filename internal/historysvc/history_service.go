// Package historysvc persists a bounded journal of connection lifecycle
// events (attach, detach, reset, protocol-mode change, LED change) so the
// classic STATUS command and the BLE /healthz endpoint can surface recent
// history, not just current state.
package historysvc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
)

// EventKind names one connection lifecycle transition.
type EventKind string

const (
	EventAttached        EventKind = "attached"
	EventDetached        EventKind = "detached"
	EventReset           EventKind = "reset"
	EventProtocolChanged EventKind = "protocol_changed"
	EventLEDChanged      EventKind = "led_changed"
)

// Event is one journaled occurrence.
type Event struct {
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Service journals Events into badger, keyed by timestamp so iteration in
// key order is chronological, and keeps at most maxEvents entries.
type Service struct {
	db        *badger.DB
	now       func() time.Time
	maxEvents int
}

// DefaultMaxEvents bounds the journal so STATUS/healthz responses stay
// small and the underlying badger keyspace doesn't grow without limit.
const DefaultMaxEvents = 200

// New builds a Service over db. now is injected for testability, the way
// hidsvc.Service takes a now func.
func New(db *badger.DB, now func() time.Time, maxEvents int) *Service {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Service{db: db, now: now, maxEvents: maxEvents}
}

func eventKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("hid/history/%020d", ts.UnixNano()))
}

// Record appends one Event and trims the oldest entries past maxEvents.
func (s *Service) Record(kind EventKind, detail string) error {
	ev := Event{Kind: kind, Detail: detail, Timestamp: s.now()}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("historysvc: marshal event: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(eventKey(ev.Timestamp), b); err != nil {
			return err
		}
		return trimOldestLocked(txn, s.maxEvents)
	})
}

func trimOldestLocked(txn *badger.Txn, maxEvents int) error {
	prefix := []byte("hid/history/")
	iter := txn.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	var keys [][]byte
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Item().Key()...))
	}
	if len(keys) <= maxEvents {
		return nil
	}
	for _, k := range keys[:len(keys)-maxEvents] {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit of the most recent events, oldest first.
func (s *Service) Recent(limit int) ([]Event, error) {
	var events []Event
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("hid/history/")
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			var ev Event
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			}); err != nil {
				return fmt.Errorf("historysvc: unmarshal event: %w", err)
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
