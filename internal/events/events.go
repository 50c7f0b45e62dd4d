package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeMappingResolved = "mapping.resolved"
	TypeMappingMiss     = "mapping.miss"
	TypeMappingOverride = "mapping.override"
	TypeMappingDeleted  = "mapping.deleted"
)

type MappingEvent struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	ShowID  string    `json:"show_id"`
	MalID   *int64    `json:"mal_id,omitempty"`
	At      time.Time `json:"at"`
}

func NewMappingEvent(evtType, showID string, malID *int64) MappingEvent {
	return MappingEvent{
		EventID: uuid.NewString(),
		Type:    evtType,
		ShowID:  showID,
		MalID:   malID,
		At:      time.Now().UTC(),
	}
}
