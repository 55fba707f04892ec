package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	server "gas-station-sim/server"
)

type clientMessage struct {
	Type         string `json:"type"`
	Cmd          string `json:"cmd,omitempty"`
	PumpID       int    `json:"pumpId,omitempty"`
	GasolineType string `json:"gasolineType,omitempty"`
	FuelType     string `json:"fuelType,omitempty"`
}

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades feed connections and relays inbound commands to the hub.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

// Handle upgrades the request, pushes the full snapshot, and then relays
// client commands until the connection drops.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	sub, snapshot, err := h.hub.Subscribe(conn)
	if err != nil {
		h.logger.Printf("failed to marshal initial state: %v", err)
		conn.Close()
		return
	}

	if err := h.hub.SubscriberWrite(sub, snapshot); err != nil {
		h.hub.Unsubscribe(sub)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Unsubscribe(sub)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message: %v", err)
			continue
		}
		h.dispatch(msg)
	}
}

func (h *Handler) dispatch(msg clientMessage) {
	switch msg.Type {
	case "command":
		switch msg.Cmd {
		case "START":
			h.hub.Start()
		case "STOP":
			h.hub.Stop()
		case "RESET":
			h.hub.Reset()
		default:
			h.logger.Printf("unknown command %q", msg.Cmd)
		}
	case "selectGasoline":
		h.hub.SelectGasoline(msg.PumpID, server.FuelGrade(msg.GasolineType))
	case "startRefueling":
		h.hub.StartRefueling(msg.PumpID, server.FuelGrade(msg.FuelType))
	default:
		h.logger.Printf("unknown message type %q", msg.Type)
	}
}
