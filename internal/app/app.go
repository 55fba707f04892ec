package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	server "gas-station-sim/server"
	"gas-station-sim/server/internal/metrics"
	servernet "gas-station-sim/server/internal/net"
	"gas-station-sim/server/internal/telemetry"
	"gas-station-sim/server/logging"
	loggingsinks "gas-station-sim/server/logging/sinks"
)

// Run wires the logging router, the hub, and the HTTP surface, starts the
// simulation, and serves until the listener fails.
func Run(ctx context.Context) error {
	fallback := log.Default()

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingsinks.NewConsoleSink(os.Stdout),
	}
	if path := os.Getenv("SIM_EVENT_LOG"); path != "" {
		logConfig.JSON.FilePath = path
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		jsonSink, err := loggingsinks.NewJSONSink(logConfig.JSON)
		if err != nil {
			return fmt.Errorf("failed to construct json sink: %w", err)
		}
		sinks["json"] = jsonSink
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, fallback, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			fallback.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := server.DefaultHubConfig()
	hubCfg.Logger = telemetry.WrapLogger(fallback)
	hubCfg.Publisher = router

	if raw := os.Getenv("SIM_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			hubCfg.TickRate = value
		} else {
			fallback.Printf("invalid SIM_TICK_RATE=%q", raw)
		}
	}
	if raw := os.Getenv("SIM_SEED"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil {
			hubCfg.Seed = value
		} else {
			fallback.Printf("invalid SIM_SEED=%q", raw)
		}
	}

	collector := metrics.NewCollector()
	hubCfg.Metrics = collector

	hub := server.NewHubWithConfig(hubCfg)
	hub.Start()
	defer hub.Stop()

	handler := servernet.NewRouter(hub, servernet.RouterConfig{
		Logger:  fallback,
		Metrics: collector,
	})

	addr := os.Getenv("SIM_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	fallback.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
