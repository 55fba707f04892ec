package server

// stateUpdateMessage carries either a full snapshot (Full true, State is a
// SimulationState) or a partial delta (State is a StateDelta).
type stateUpdateMessage struct {
	Type       string `json:"type"`
	Full       bool   `json:"full,omitempty"`
	State      any    `json:"state"`
	Tick       uint64 `json:"t"`
	ServerTime int64  `json:"serverTime"`
}

type refuelingCompleteMessage struct {
	Type   string  `json:"type"`
	PumpID int     `json:"pumpId"`
	Income float64 `json:"income"`
}

type paymentConfirmedMessage struct {
	Type      string `json:"type"`
	PumpID    int    `json:"pumpId"`
	PaymentID string `json:"paymentId"`
}

const (
	messageTypeStateUpdate       = "stateUpdate"
	messageTypeRefuelingComplete = "refuelingComplete"
	messageTypePaymentConfirmed  = "paymentConfirmed"
)
