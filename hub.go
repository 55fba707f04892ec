package server

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gas-station-sim/server/internal/metrics"
	"gas-station-sim/server/internal/telemetry"
	"gas-station-sim/server/logging"
	"gas-station-sim/server/logging/lifecycle"
)

const writeWait = 10 * time.Second

// HubConfig tunes the hub and its simulation loop.
type HubConfig struct {
	TickRate  int
	Seed      int64
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   *metrics.Collector
	Clock     func() time.Time
}

// DefaultHubConfig returns the canonical configuration: 10 Hz, wall clock,
// time-seeded rng.
func DefaultHubConfig() HubConfig {
	return HubConfig{TickRate: tickRate}
}

// Hub owns the world and every live subscriber. All mutation funnels
// through its mutex, so the tick pass and external commands serialize into
// a single-writer discipline.
type Hub struct {
	mu          sync.Mutex
	world       *World
	subscribers map[string]*subscriber
	stop        chan struct{}

	cfg     HubConfig
	logger  telemetry.Logger
	metrics *metrics.Collector
	clock   func() time.Time
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) writeMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// NewHub constructs a hub with the default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig constructs a hub and its world. Zero-value fields fall
// back to the defaults so tests can override only what they need.
func NewHubWithConfig(cfg HubConfig) *Hub {
	if cfg.TickRate <= 0 {
		cfg.TickRate = tickRate
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.WrapLogger(log.Default())
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	world := newWorld(worldConfig{
		rng:       rand.New(rand.NewSource(seed)),
		now:       cfg.Clock,
		publisher: cfg.Publisher,
	})

	return &Hub{
		world:       world,
		subscribers: make(map[string]*subscriber),
		cfg:         cfg,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
	}
}

// Start launches the tick loop if it is not already running and
// force-publishes a full snapshot. Calling Start on a running hub is a
// no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.stop != nil {
		h.mu.Unlock()
		return
	}
	h.stop = make(chan struct{})
	h.world.state.IsSimulationRunning = true
	go h.runLoop(h.stop)
	h.mu.Unlock()

	lifecycle.SimulationStarted(context.Background(), h.cfg.Publisher, h.Tick())
	h.PublishFullState()
}

// Stop cancels the tick loop; an in-progress tick runs to completion.
// Idempotent when already stopped.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stop == nil {
		h.mu.Unlock()
		return
	}
	close(h.stop)
	h.stop = nil
	h.world.state.IsSimulationRunning = false
	h.mu.Unlock()

	lifecycle.SimulationStopped(context.Background(), h.cfg.Publisher, h.Tick())
	h.PublishFullState()
}

// Reset reinitializes the world to the canonical defaults without touching
// the scheduler, then force-publishes a full snapshot.
func (h *Hub) Reset() {
	h.mu.Lock()
	h.world.reset()
	h.mu.Unlock()

	lifecycle.SimulationReset(context.Background(), h.cfg.Publisher, h.Tick())
	h.PublishFullState()
}

// IsRunning reports whether the tick loop is active.
func (h *Hub) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}

// Tick reports the current tick counter.
func (h *Hub) Tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.tick
}

func (h *Hub) runLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.step()
		}
	}
}

// step advances the world one tick and broadcasts the resulting delta and
// any domain events.
func (h *Hub) step() {
	h.mu.Lock()
	now := h.clock()
	servedBefore := h.world.state.VehiclesServed
	delta := h.world.advance(now)
	events := h.world.drainEvents()
	tick := h.world.tick
	served := h.world.state.VehiclesServed
	revenue := h.world.state.TotalRevenue
	queueLen := len(h.world.state.Queue)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.TicksTotal.Inc()
		h.metrics.QueueLength.Set(float64(queueLen))
		h.metrics.TotalRevenue.Set(revenue)
		if served > servedBefore {
			h.metrics.VehiclesServedTotal.Add(float64(served - servedBefore))
		}
	}

	if delta != nil {
		h.broadcast(stateUpdateMessage{
			Type:       messageTypeStateUpdate,
			State:      delta,
			Tick:       tick,
			ServerTime: now.UnixMilli(),
		})
	}
	h.broadcastEvents(events)
}

// Advance runs a single tick synchronously. Deterministic tests drive the
// world with this instead of the ticker.
func (h *Hub) Advance() {
	h.step()
}

// PublishFullState bypasses diffing and pushes the complete current state
// to every subscriber.
func (h *Hub) PublishFullState() {
	h.mu.Lock()
	state := h.world.state.Clone()
	tick := h.world.tick
	h.mu.Unlock()

	h.broadcast(stateUpdateMessage{
		Type:       messageTypeStateUpdate,
		Full:       true,
		State:      state,
		Tick:       tick,
		ServerTime: h.clock().UnixMilli(),
	})
}

// SelectGasoline chooses a grade on a busy pump and starts fueling. The
// bool reports whether the command applied; an ignored command changes
// nothing.
func (h *Hub) SelectGasoline(pumpID int, grade FuelGrade) bool {
	h.mu.Lock()
	applied := h.world.selectGrade(pumpID, grade)
	h.mu.Unlock()
	if applied {
		h.PublishFullState()
	}
	return applied
}

// StartRefueling is the real-time channel's entry point for grade
// selection; same preconditions and effect as SelectGasoline.
func (h *Hub) StartRefueling(pumpID int, grade FuelGrade) bool {
	return h.SelectGasoline(pumpID, grade)
}

// UpdateSettings merges the provided knobs and force-publishes.
func (h *Hub) UpdateSettings(patch SettingsPatch) {
	h.mu.Lock()
	h.world.updateSettings(patch)
	h.mu.Unlock()
	h.PublishFullState()
}

// UpdatePrices merges the provided sell prices and returns the full map.
func (h *Hub) UpdatePrices(patch PricesPatch) GradeMap {
	h.mu.Lock()
	prices := h.world.updatePrices(patch)
	h.mu.Unlock()
	h.PublishFullState()
	return prices
}

// RefillTank orders a tank delivery for the given grade.
func (h *Hub) RefillTank(amount float64, grade FuelGrade) bool {
	if amount <= 0 || !ValidGrade(grade) {
		return false
	}
	h.mu.Lock()
	h.world.refillTank(amount, grade)
	h.mu.Unlock()
	h.PublishFullState()
	return true
}

// CreatePump appends a new idle pump and returns it.
func (h *Hub) CreatePump() Pump {
	h.mu.Lock()
	pump := h.world.createPump()
	h.mu.Unlock()
	h.PublishFullState()
	return pump
}

// DeletePump removes an idle pump; ErrPumpBusy when it is serving.
func (h *Hub) DeletePump(pumpID int) error {
	h.mu.Lock()
	err := h.world.deletePump(pumpID)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.PublishFullState()
	return nil
}

// InitiatePayment queues a payment request for later confirmation.
func (h *Hub) InitiatePayment(pumpID int, paymentID string) {
	h.mu.Lock()
	h.world.initiatePayment(pumpID, paymentID)
	h.mu.Unlock()
}

// ConfirmPayment consumes a matching pending request. On success the
// paymentConfirmed event goes out on the feed.
func (h *Hub) ConfirmPayment(pumpID int, paymentID string) bool {
	h.mu.Lock()
	ok := h.world.confirmPayment(pumpID, paymentID)
	events := h.world.drainEvents()
	h.mu.Unlock()
	if ok {
		h.broadcastEvents(events)
	}
	return ok
}

// State returns a deep copy of the current world state.
func (h *Hub) State() SimulationState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.state.Clone()
}

// Prices returns the current sell-price map.
func (h *Hub) Prices() GradeMap {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.state.FuelPrices.clone()
}

// BuyPrices returns the current wholesale price map.
func (h *Hub) BuyPrices() GradeMap {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.state.FuelBuyPrices.clone()
}

// Pumps lists every pump.
func (h *Hub) Pumps() []Pump {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clonePumps(h.world.state.Pumps)
}

// PumpByID looks up a single pump.
func (h *Hub) PumpByID(pumpID int) (Pump, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.world.pumpIndex(pumpID)
	if idx < 0 {
		return Pump{}, false
	}
	return clonePumps(h.world.state.Pumps[idx : idx+1])[0], true
}

// PendingPayments lists the outstanding payment requests.
func (h *Hub) PendingPayments() []PaymentRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.pendingPayments()
}

// DiagnosticsSnapshot summarizes the hub for the diagnostics endpoint.
type DiagnosticsSnapshot struct {
	Running     bool   `json:"running"`
	Tick        uint64 `json:"tick"`
	TickRate    int    `json:"tickRate"`
	Subscribers int    `json:"subscribers"`
	QueueLength int    `json:"queueLength"`
	PumpCount   int    `json:"pumpCount"`
}

// Diagnostics reports the current hub vitals.
func (h *Hub) Diagnostics() DiagnosticsSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return DiagnosticsSnapshot{
		Running:     h.stop != nil,
		Tick:        h.world.tick,
		TickRate:    h.cfg.TickRate,
		Subscribers: len(h.subscribers),
		QueueLength: len(h.world.state.Queue),
		PumpCount:   len(h.world.state.Pumps),
	}
}

// Subscribe registers a websocket connection on the feed and returns the
// subscriber together with the marshaled full snapshot for the initial
// push.
func (h *Hub) Subscribe(conn *websocket.Conn) (*subscriber, []byte, error) {
	sub := &subscriber{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	state := h.world.state.Clone()
	tick := h.world.tick
	subscriberCount := len(h.subscribers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(subscriberCount))
	}

	data, err := json.Marshal(stateUpdateMessage{
		Type:       messageTypeStateUpdate,
		Full:       true,
		State:      state,
		Tick:       tick,
		ServerTime: h.clock().UnixMilli(),
	})
	if err != nil {
		h.Unsubscribe(sub)
		return nil, nil, err
	}
	return sub, data, nil
}

// Unsubscribe removes a subscriber and closes its connection.
func (h *Hub) Unsubscribe(sub *subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subscribers[sub.id]
	if ok {
		delete(h.subscribers, sub.id)
	}
	subscriberCount := len(h.subscribers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(subscriberCount))
	}
	if ok {
		sub.conn.Close()
	}
}

// SubscriberWrite pushes raw bytes to one subscriber honoring the write
// deadline.
func (h *Hub) SubscriberWrite(sub *subscriber, data []byte) error {
	return sub.writeMessage(websocket.TextMessage, data)
}

func (h *Hub) broadcastEvents(events []Event) {
	for _, event := range events {
		switch event.Kind {
		case EventRefuelingComplete:
			h.broadcast(refuelingCompleteMessage{
				Type:   messageTypeRefuelingComplete,
				PumpID: event.PumpID,
				Income: event.Income,
			})
		case EventPaymentConfirmed:
			h.broadcast(paymentConfirmedMessage{
				Type:      messageTypePaymentConfirmed,
				PumpID:    event.PumpID,
				PaymentID: event.PaymentID,
			})
		}
	}
}

// broadcast fans a message out to every subscriber. A failed write drops
// the subscriber; publishing never fails the tick.
func (h *Hub) broadcast(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Printf("failed to marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if err := sub.writeMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("dropping subscriber %s: %v", sub.id, err)
			h.Unsubscribe(sub)
		}
	}

	if h.metrics != nil && len(targets) > 0 {
		h.metrics.BroadcastsTotal.Inc()
	}
}
