package lifecycle

import (
	"context"

	"gas-station-sim/server/logging"
)

const (
	EventSimulationStarted logging.EventType = "lifecycle.simulation_started"
	EventSimulationStopped logging.EventType = "lifecycle.simulation_stopped"
	EventSimulationReset   logging.EventType = "lifecycle.simulation_reset"
	EventPumpCreated       logging.EventType = "lifecycle.pump_created"
	EventPumpDeleted       logging.EventType = "lifecycle.pump_deleted"
)

func SimulationStarted(ctx context.Context, pub logging.Publisher, tick uint64) {
	publish(ctx, pub, EventSimulationStarted, tick, logging.WorldRef())
}

func SimulationStopped(ctx context.Context, pub logging.Publisher, tick uint64) {
	publish(ctx, pub, EventSimulationStopped, tick, logging.WorldRef())
}

func SimulationReset(ctx context.Context, pub logging.Publisher, tick uint64) {
	publish(ctx, pub, EventSimulationReset, tick, logging.WorldRef())
}

func PumpCreated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, EventPumpCreated, tick, actor)
}

func PumpDeleted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, EventPumpDeleted, tick, actor)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}
