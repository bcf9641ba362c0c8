package handlers

import (
	"log"
	"net/http"
	"resto_manager/internal/broadcast"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type controlMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// WSHandler upgrades observer connections (kitchen, floor and management
// displays) and bridges them onto the broadcast hub.
type WSHandler struct {
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *broadcast.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Displays connect from their own origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	client := h.hub.Register()
	go h.writeLoop(conn, client)
	h.readLoop(conn, client)
}

// writeLoop drains the client's envelope stream onto the socket. It ends
// when the hub unregisters the client and closes the stream.
func (h *WSHandler) writeLoop(conn *websocket.Conn, client *broadcast.Client) {
	defer conn.Close()
	for env := range client.Out() {
		if err := conn.WriteJSON(env); err != nil {
			log.Printf("ws: write failed: %v", err)
			return
		}
	}
}

// readLoop handles subscribe/unsubscribe/ping control messages until the
// observer disconnects.
func (h *WSHandler) readLoop(conn *websocket.Conn, client *broadcast.Client) {
	defer h.hub.Unregister(client)

	for {
		var msg controlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read failed: %v", err)
			}
			return
		}

		switch msg.Type {
		case "subscribe":
			if h.hub.Subscribe(client, msg.Channel) {
				client.Send(broadcast.Envelope{Type: "subscribed", Channel: msg.Channel})
			}
		case "unsubscribe":
			if h.hub.Unsubscribe(client, msg.Channel) {
				client.Send(broadcast.Envelope{Type: "unsubscribed", Channel: msg.Channel})
			}
		case "ping":
			client.Send(broadcast.Envelope{Type: "pong"})
		}
	}
}
