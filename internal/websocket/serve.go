package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"realtime-chat-be/internal/entity"
)

const sendBufferSize = 256

// ServeWs attaches an upgraded connection to the hub and runs its pumps.
// Blocks until the read pump exits, matching fiber's websocket handler
// contract.
func ServeWs(hub *Hub, conn *websocket.Conn, user *entity.User) {
	client := &Client{
		Id:   uuid.New(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
	}

	hub.Register(client, user)

	go client.writePump()
	client.readPump()
}
