package server

// EventKind discriminates the non-state events on the subscription feed.
type EventKind string

const (
	EventRefuelingComplete EventKind = "refuelingComplete"
	EventPaymentConfirmed  EventKind = "paymentConfirmed"
)

// Event is a domain occurrence broadcast alongside state updates.
type Event struct {
	Kind      EventKind
	PumpID    int
	Income    float64
	PaymentID string
}
