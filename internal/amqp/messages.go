package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moneytracker/internal/records"
)

// EventKind says what happened to an entry.
type EventKind string

const (
	EntryCreated EventKind = "created"
	EntryDeleted EventKind = "deleted"
)

// EntryEvent is a lightweight notification about one entry. It carries only
// the id; consumers fetch the full entry from the store when they need it.
type EntryEvent struct {
	Kind       EventKind          `json:"kind"`
	Collection records.Collection `json:"collection"`
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Timestamp  time.Time          `json:"timestamp"`
}

// NewEntryEvent stamps an event with the current time.
func NewEntryEvent(kind EventKind, c records.Collection, id, userID string) *EntryEvent {
	return &EntryEvent{
		Kind:       kind,
		Collection: c,
		ID:         id,
		UserID:     userID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes and checks an event.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var evt EntryEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	switch evt.Kind {
	case EntryCreated, EntryDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", evt.Kind)
	}
	if _, err := records.ParseCollection(string(evt.Collection)); err != nil {
		return nil, fmt.Errorf("event collection %q: %w", evt.Collection, err)
	}
	if evt.ID == "" {
		return nil, errors.New("event without entry id")
	}
	return &evt, nil
}
