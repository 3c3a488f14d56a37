// Package pubsub keeps track of connected websocket clients and routes
// room broadcasts and per-user notifications to them.
package pubsub

import (
	"log/slog"
	"sync"
)

// Hub maps chat rooms and user IDs to their connected clients. All maps
// are guarded by mu; membership is purely in-memory and rebuilt as
// clients reconnect.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	users  map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		users:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// JoinRoom subscribes the client to a chat room. Joining twice is a no-op.
func (hub *Hub) JoinRoom(roomID string, client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hub.rooms[roomID] == nil {
		hub.rooms[roomID] = make(map[*Client]struct{})
	}
	hub.rooms[roomID][client] = struct{}{}
	hub.logger.Info("client joined room", "room", roomID, "user_id", client.UserID)
}

// ListenUser registers the client on its user's personal channel so
// notifications reach it regardless of which rooms it joined.
func (hub *Hub) ListenUser(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hub.users[client.UserID] == nil {
		hub.users[client.UserID] = make(map[*Client]struct{})
	}
	hub.users[client.UserID][client] = struct{}{}
}

// Broadcast sends an event to every client in the room, including the
// sender. Write failures are logged and skipped, never fatal.
func (hub *Hub) Broadcast(roomID, event string, payload any) {
	hub.mu.RLock()
	clients := make([]*Client, 0, len(hub.rooms[roomID]))
	for client := range hub.rooms[roomID] {
		clients = append(clients, client)
	}
	hub.mu.RUnlock()

	for _, client := range clients {
		if err := client.Emit(event, payload); err != nil {
			hub.logger.Warn("broadcast write failed", "room", roomID, "user_id", client.UserID, "error", err)
		}
	}
}

// Notify sends an event to every client registered on the user's personal
// channel. Offline users are silently skipped.
func (hub *Hub) Notify(userID, event string, payload any) {
	hub.mu.RLock()
	clients := make([]*Client, 0, len(hub.users[userID]))
	for client := range hub.users[userID] {
		clients = append(clients, client)
	}
	hub.mu.RUnlock()

	for _, client := range clients {
		if err := client.Emit(event, payload); err != nil {
			hub.logger.Warn("notify write failed", "user_id", userID, "error", err)
		}
	}
}

// Disconnect removes the client from every room and its personal channel.
func (hub *Hub) Disconnect(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for roomID, members := range hub.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(hub.rooms, roomID)
		}
	}
	if members, ok := hub.users[client.UserID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(hub.users, client.UserID)
		}
	}
	hub.logger.Info("client disconnected", "user_id", client.UserID)
}

// OnlineUsers reports the IDs with at least one client on their personal
// channel.
func (hub *Hub) OnlineUsers() []string {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	ids := make([]string, 0, len(hub.users))
	for userID := range hub.users {
		ids = append(ids, userID)
	}
	return ids
}

// RoomSize reports how many clients are subscribed to a room.
func (hub *Hub) RoomSize(roomID string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.rooms[roomID])
}
