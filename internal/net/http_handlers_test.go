package net

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	server "gas-station-sim/server"
)

func newTestRouter(t *testing.T) (*server.Hub, nethttp.Handler) {
	t.Helper()
	cfg := server.DefaultHubConfig()
	cfg.Seed = 1
	hub := server.NewHubWithConfig(cfg)
	t.Cleanup(hub.Stop)
	return hub, NewRouter(hub, RouterConfig{})
}

func doJSON(t *testing.T, handler nethttp.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

func TestGetStateReturnsWireShape(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodGet, "/gas-station/state", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var state map[string]any
	decodeBody(t, rec, &state)
	for _, key := range []string{
		"pumps", "queue", "vehiclesServed", "averageWaitTime", "totalRevenue",
		"isSimulationRunning", "fuelCapacity", "fuelPrices", "fuelBuyPrices",
	} {
		if _, ok := state[key]; !ok {
			t.Fatalf("state response missing %q: %v", key, state)
		}
	}
	pumps, ok := state["pumps"].([]any)
	if !ok || len(pumps) != 3 {
		t.Fatalf("expected 3 pumps, got %v", state["pumps"])
	}
}

func TestGetPricesAndBuyPrices(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodGet, "/gas-station/prices", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var prices map[string]float64
	decodeBody(t, rec, &prices)
	if prices["regular"] != 1.744 {
		t.Fatalf("unexpected regular price: %v", prices["regular"])
	}

	rec = doJSON(t, router, nethttp.MethodGet, "/gas-station/buy-prices", nil)
	var buy map[string]float64
	decodeBody(t, rec, &buy)
	for grade, sell := range prices {
		if buy[grade] >= sell {
			t.Fatalf("buy price %v for %s not below sell price %v", buy[grade], grade, sell)
		}
	}
}

func TestPutPricesMergesPartialUpdate(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodPut, "/gas-station/prices", map[string]float64{"premium": 2.5})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var prices map[string]float64
	decodeBody(t, rec, &prices)
	if prices["premium"] != 2.5 {
		t.Fatalf("premium not updated: %v", prices["premium"])
	}
	if prices["regular"] != 1.744 {
		t.Fatalf("untouched grade changed: %v", prices["regular"])
	}
}

func TestPaymentFlowOverREST(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodPost, "/gas-station/process-payment",
		map[string]any{"pumpId": 1, "paymentId": "abc"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("confirming an unknown payment must fail, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station/initiate-payment",
		map[string]any{"pumpId": 1, "paymentId": "abc"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 on initiate, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station/process-payment",
		map[string]any{"pumpId": 1, "paymentId": "abc"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 on confirm, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station/process-payment",
		map[string]any{"pumpId": 1, "paymentId": "abc"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("a payment must confirm at most once, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station/process-payment",
		map[string]any{"pumpId": 1})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("missing paymentId must be rejected, got %d", rec.Code)
	}
}

func TestSimulationLifecycleRoutes(t *testing.T) {
	hub, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodPost, "/gas-station-simulation/start", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 on start, got %d", rec.Code)
	}
	var state map[string]any
	decodeBody(t, rec, &state)
	if running, ok := state["isSimulationRunning"].(bool); !ok || !running {
		t.Fatalf("start response must report a running simulation, got %v", state["isSimulationRunning"])
	}
	if !hub.IsRunning() {
		t.Fatalf("hub not running after start route")
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station-simulation/stop", nil)
	decodeBody(t, rec, &state)
	if running, ok := state["isSimulationRunning"].(bool); !ok || running {
		t.Fatalf("stop response must report a stopped simulation, got %v", state["isSimulationRunning"])
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station-simulation/reset", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", rec.Code)
	}
}

func TestPutSettingsRejectsMalformedBody(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(nethttp.MethodPut, "/gas-station-simulation/settings", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 for malformed settings, got %d", rec.Code)
	}
}

func TestPutSettingsMergesKnobs(t *testing.T) {
	hub, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodPut, "/gas-station-simulation/settings",
		map[string]any{"vehiclesAutoRefill": true, "queueSize": 4})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	state := hub.State()
	if !state.VehiclesAutoRefill || state.QueueSize != 4 {
		t.Fatalf("settings not merged: autoRefill=%v queueSize=%d", state.VehiclesAutoRefill, state.QueueSize)
	}
}

func TestRefillTankRoute(t *testing.T) {
	hub, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodPost, "/gas-station-simulation/refill-tank",
		map[string]any{"amount": 100, "fuelType": "diesel"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if hub.State().RefillingFuels[server.GradeDiesel] != 100 {
		t.Fatalf("refill not ordered: %v", hub.State().RefillingFuels)
	}

	rec = doJSON(t, router, nethttp.MethodPost, "/gas-station-simulation/refill-tank",
		map[string]any{"amount": 100, "fuelType": "kerosene"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("unknown grade must be rejected, got %d", rec.Code)
	}
}

func TestPumpCRUDRoutes(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodPost, "/pumps", nil)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var pump map[string]any
	decodeBody(t, rec, &pump)
	if pump["id"] != float64(4) || pump["status"] != "idle" {
		t.Fatalf("unexpected created pump: %v", pump)
	}

	rec = doJSON(t, router, nethttp.MethodGet, "/pumps", nil)
	var pumps []map[string]any
	decodeBody(t, rec, &pumps)
	if len(pumps) != 4 {
		t.Fatalf("expected 4 pumps, got %d", len(pumps))
	}

	rec = doJSON(t, router, nethttp.MethodGet, "/pumps/4", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 for existing pump, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodGet, "/pumps/99", nil)
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 for unknown pump, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodDelete, "/pumps/4", nil)
	if rec.Code != nethttp.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodDelete, "/pumps/4", nil)
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 deleting a missing pump, got %d", rec.Code)
	}

	rec = doJSON(t, router, nethttp.MethodDelete, "/pumps/abc", nil)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 for a non-numeric id, got %d", rec.Code)
	}
}

func TestDeleteBusyPumpConflicts(t *testing.T) {
	hub, router := newTestRouter(t)

	driveVehicleToPump(t, hub, 1)
	rec := doJSON(t, router, nethttp.MethodDelete, "/pumps/1", nil)
	if rec.Code != nethttp.StatusConflict {
		t.Fatalf("expected 409 deleting a busy pump, got %d", rec.Code)
	}
}

func TestHealthAndDiagnostics(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, nethttp.MethodGet, "/health", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, nethttp.MethodGet, "/diagnostics", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 from diagnostics, got %d", rec.Code)
	}
	var diag map[string]any
	decodeBody(t, rec, &diag)
	if diag["status"] != "ok" {
		t.Fatalf("unexpected diagnostics payload: %v", diag)
	}
	hubInfo, ok := diag["hub"].(map[string]any)
	if !ok {
		t.Fatalf("diagnostics missing hub section: %v", diag)
	}
	if hubInfo["pumpCount"] != float64(3) {
		t.Fatalf("unexpected pump count: %v", hubInfo["pumpCount"])
	}
}

// driveVehicleToPump runs ticks with a saturated arrival rate until the
// given pump holds a vehicle.
func driveVehicleToPump(t *testing.T, hub *server.Hub, pumpID int) {
	t.Helper()

	rate := float64(server.TickRate())
	hub.UpdateSettings(server.SettingsPatch{VehiclesPerSecond: &rate})
	for i := 0; i < 1000; i++ {
		hub.Advance()
		if pump, ok := hub.PumpByID(pumpID); ok && pump.Status == server.PumpBusy {
			rate = 0
			hub.UpdateSettings(server.SettingsPatch{VehiclesPerSecond: &rate})
			return
		}
	}
	t.Fatalf("no vehicle reached pump %d", pumpID)
}
