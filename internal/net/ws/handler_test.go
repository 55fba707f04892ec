package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	server "gas-station-sim/server"
)

func testHub(t *testing.T) *server.Hub {
	t.Helper()
	cfg := server.DefaultHubConfig()
	cfg.Seed = 1
	hub := server.NewHubWithConfig(cfg)
	t.Cleanup(hub.Stop)
	return hub
}

func dialFeed(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, baseURL), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func websocketURL(t *testing.T, baseURL string) string {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	parsed.Path = "/"
	return parsed.String()
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read websocket frame: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode websocket payload: %v", err)
	}
	return frame
}

func TestHandleSubscribeSendsFullSnapshot(t *testing.T) {
	hub := testHub(t)
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dialFeed(t, srv.URL)
	frame := readFrame(t, conn)

	if frame["type"] != "stateUpdate" {
		t.Fatalf("expected stateUpdate frame, got %v", frame["type"])
	}
	if full, ok := frame["full"].(bool); !ok || !full {
		t.Fatalf("expected initial frame to carry the full snapshot, got %v", frame["full"])
	}

	state, ok := frame["state"].(map[string]any)
	if !ok {
		t.Fatalf("expected state object, got %T", frame["state"])
	}
	pumps, ok := state["pumps"].([]any)
	if !ok || len(pumps) != 3 {
		t.Fatalf("expected 3 pumps in the snapshot, got %v", state["pumps"])
	}
	first, ok := pumps[0].(map[string]any)
	if !ok || first["status"] != "idle" {
		t.Fatalf("expected idle pump, got %v", pumps[0])
	}
	if running, ok := state["isSimulationRunning"].(bool); !ok || running {
		t.Fatalf("fresh hub must report a stopped simulation, got %v", state["isSimulationRunning"])
	}
}

func TestHandleCommandStartUpdatesHub(t *testing.T) {
	hub := testHub(t)
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dialFeed(t, srv.URL)
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "command", "cmd": "START"}); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "stateUpdate" {
		t.Fatalf("expected stateUpdate after START, got %v", frame["type"])
	}
	state, ok := frame["state"].(map[string]any)
	if !ok {
		t.Fatalf("expected state object, got %T", frame["state"])
	}
	if running, ok := state["isSimulationRunning"].(bool); !ok || !running {
		t.Fatalf("expected running simulation after START, got %v", state["isSimulationRunning"])
	}
	if !hub.IsRunning() {
		t.Fatalf("hub did not start")
	}
}

func TestHandleSelectGasolineStartsFueling(t *testing.T) {
	hub := testHub(t)
	attachTestVehicle(t, hub)

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dialFeed(t, srv.URL)
	readFrame(t, conn)

	msg := map[string]any{"type": "selectGasoline", "pumpId": 1, "gasolineType": "regular"}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send selection: %v", err)
	}

	frame := readFrame(t, conn)
	state, ok := frame["state"].(map[string]any)
	if !ok {
		t.Fatalf("expected state object, got %T", frame["state"])
	}
	pumps := state["pumps"].([]any)
	first := pumps[0].(map[string]any)
	if first["status"] != "fueling" {
		t.Fatalf("expected pump fueling after selection, got %v", first["status"])
	}
	if first["selectedGasoline"] != "regular" {
		t.Fatalf("expected regular selected, got %v", first["selectedGasoline"])
	}
}

func TestHandleDiscardsMalformedMessages(t *testing.T) {
	hub := testHub(t)
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dialFeed(t, srv.URL)
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("failed to send garbage: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "command", "cmd": "START"}); err != nil {
		t.Fatalf("failed to send command after garbage: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "stateUpdate" {
		t.Fatalf("expected the connection to survive malformed input, got %v", frame["type"])
	}
}

// attachTestVehicle parks a vehicle on pump 1 through the public command
// surface so selectGasoline has something to fuel.
func attachTestVehicle(t *testing.T, hub *server.Hub) {
	t.Helper()

	hub.UpdateSettings(server.SettingsPatch{
		VehiclesPerSecond: floatPtr(float64(server.TickRate())),
	})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.Advance()
		if pump, ok := hub.PumpByID(1); ok && pump.Status == server.PumpBusy {
			rate := 0.0
			hub.UpdateSettings(server.SettingsPatch{VehiclesPerSecond: &rate})
			return
		}
	}
	t.Fatalf("no vehicle reached pump 1")
}

func floatPtr(v float64) *float64 { return &v }
