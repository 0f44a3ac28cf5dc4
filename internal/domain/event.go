package domain

import "time"

type EventKind string

const (
	EventLotRegistered EventKind = "lot.registered"
	EventLotUpdated    EventKind = "lot.updated"
	EventLotHolding    EventKind = "lot.holding"
	EventLotShipped    EventKind = "lot.shipped"
	EventLaneRepacked  EventKind = "lane.repacked"
)

// A change notification emitted after a successful write.
type LotEvent struct {
	Kind     EventKind `json:"kind"`
	LotID    string    `json:"lotId,omitempty"`
	Lane     string    `json:"lane,omitempty"`
	FromLane string    `json:"fromLane,omitempty"`
	Position *Position `json:"position,omitempty"`
	At       time.Time `json:"at"`
}
