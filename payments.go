package server

import (
	"context"

	"gas-station-sim/server/logging/economy"
)

// PaymentRequest is an in-flight payment awaiting confirmation.
type PaymentRequest struct {
	PumpID    int    `json:"pumpId"`
	PaymentID string `json:"paymentId"`
}

// initiatePayment queues a request until a matching confirmation arrives.
// There is no deadline; an unconfirmed request simply waits.
func (w *World) initiatePayment(pumpID int, paymentID string) {
	w.payments = append(w.payments, PaymentRequest{PumpID: pumpID, PaymentID: paymentID})
}

// confirmPayment consumes the request matching both pump id and payment id.
// Without a match it reports failure and leaves the queue untouched.
func (w *World) confirmPayment(pumpID int, paymentID string) bool {
	for i, request := range w.payments {
		if request.PumpID != pumpID || request.PaymentID != paymentID {
			continue
		}
		w.payments = append(w.payments[:i], w.payments[i+1:]...)
		w.emit(Event{Kind: EventPaymentConfirmed, PumpID: pumpID, PaymentID: paymentID})
		economy.PaymentConfirmed(context.Background(), w.publisher, w.tick, pumpRef(pumpID),
			economy.PaymentConfirmedPayload{PaymentID: paymentID}, nil)
		return true
	}
	return false
}

// pendingPayments returns a copy of the outstanding requests.
func (w *World) pendingPayments() []PaymentRequest {
	return append([]PaymentRequest(nil), w.payments...)
}
