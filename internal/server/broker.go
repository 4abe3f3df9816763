package server

import (
	"encoding/json"
	"sync"
)

// Event is the payload published to a player's subscribers.
type Event struct {
	Type         string `json:"type"`
	SiteID       string `json:"siteId,omitempty"`
	TripID       string `json:"tripId,omitempty"`
	BuildingID   string `json:"buildingId,omitempty"`
	VisitedCount int    `json:"visitedCount,omitempty"`
	TotalCount   int    `json:"totalCount,omitempty"`
	BadgeID      string `json:"badgeId,omitempty"`
	Score        int    `json:"score,omitempty"`
}

const (
	eventTripStarted     = "trip_started"
	eventBuildingVisited = "building_visited"
	eventTripCompleted   = "trip_completed"
	eventTripAbandoned   = "trip_abandoned"
	eventAnswerRecorded  = "answer_recorded"
	eventSessionDone     = "session_completed"
	eventBadgeEarned     = "badge_earned"
)

// Broker is an in-process pub/sub for player events, keyed by user ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given user.
func (b *Broker) Subscribe(userID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan []byte]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the user's subscribers.
func (b *Broker) Unsubscribe(userID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[userID], ch)
	if len(b.subs[userID]) == 0 {
		delete(b.subs, userID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given user.
func (b *Broker) Publish(userID string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[userID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
