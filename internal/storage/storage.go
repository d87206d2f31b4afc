package storage

import "yieldScope/internal/model"

// EventSink receives reconstructed events.
type EventSink interface {
	PutEvents(events []model.Event) error
}
