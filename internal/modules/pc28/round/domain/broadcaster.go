package domain

// Push event types. Every subscriber sees these in publish order.
const (
	EventSnapshot    = "snapshot" // first message after subscribe
	EventCountdown   = "countdown"
	EventRoundOpened = "round_opened"
	EventRoundClosed = "round_closed"
	EventRoundVoided = "round_voided"
	EventResult      = "result"
	EventBetSettled  = "bet_settled" // personal, authenticated subscribers only
)

// Event is the push channel envelope
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// CountdownPayload is the payload of countdown events
type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

// Broadcaster fans round events out to all connected subscribers
type Broadcaster interface {
	Broadcast(event Event)
}
