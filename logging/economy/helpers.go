package economy

import (
	"context"

	"gas-station-sim/server/logging"
)

const (
	// EventRefuelingFinished is emitted when a vehicle's visit ends, whether
	// by a full tank or station tank exhaustion.
	EventRefuelingFinished logging.EventType = "economy.refueling_finished"
	// EventTankRefillOrdered is emitted when a tank delivery is scheduled.
	EventTankRefillOrdered logging.EventType = "economy.tank_refill_ordered"
	// EventPaymentConfirmed is emitted when a pending payment is matched.
	EventPaymentConfirmed logging.EventType = "economy.payment_confirmed"
)

// RefuelingFinishedPayload describes a completed visit.
type RefuelingFinishedPayload struct {
	VehicleID string  `json:"vehicleId"`
	Grade     string  `json:"grade,omitempty"`
	Liters    float64 `json:"liters"`
	Income    float64 `json:"income"`
}

// TankRefillOrderedPayload describes a scheduled tank delivery.
type TankRefillOrderedPayload struct {
	Grade  string  `json:"grade"`
	Liters float64 `json:"liters"`
	Cost   float64 `json:"cost"`
}

// PaymentConfirmedPayload carries the confirmed payment id.
type PaymentConfirmedPayload struct {
	PaymentID string `json:"paymentId"`
}

// RefuelingFinished publishes the visit-completion event.
func RefuelingFinished(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RefuelingFinishedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRefuelingFinished,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	})
}

// TankRefillOrdered publishes the delivery-scheduled event.
func TankRefillOrdered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TankRefillOrderedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTankRefillOrdered,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	})
}

// PaymentConfirmed publishes the payment-matched event.
func PaymentConfirmed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PaymentConfirmedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPaymentConfirmed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	})
}
