package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"github.com/ulternae/kcchat/service/pubsub"
	"github.com/ulternae/kcchat/service/worker"
)

// wsRequest is the envelope clients send over the socket. Fields beyond
// Event are used depending on the event type.
type wsRequest struct {
	Event   string `json:"event"`
	Room    string `json:"room"`
	Content string `json:"content"`
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
}

// Handler for the chat websocket. Each connection serves one client and
// dispatches its events until the socket closes.
func (server *Server) HandleWS(ctx *gin.Context) {
	// Upgrade request from HTTP to Web Socket
	conn, err := server.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		server.logger.Error("failed to upgrade to Web Socket", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	requester := claims(ctx)
	client := pubsub.NewClient(requester.ID, conn)
	defer func() {
		server.hub.Disconnect(client)
		client.Close()
	}()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			server.logger.Info("client disconnected", "user_id", requester.ID, "error", err)
			return
		}

		switch req.Event {
		case "joinRoom":
			server.handleJoinRoom(client, req)
		case "sendMessage":
			server.handleSocketMessage(client, requester.ID, requester.Nickname, req)
		case "listenUser":
			// The channel is bound to the authenticated user, the
			// user_id field of the request is ignored
			server.hub.ListenUser(client)
		case "notification":
			server.handleSocketNotification(requester.ID, req)
		default:
			server.emitError(client, "unknown event: "+req.Event)
		}
	}
}

// handleJoinRoom subscribes the client to a chat room and replays the
// room's message history to it.
func (server *Server) handleJoinRoom(client *pubsub.Client, req wsRequest) {
	if _, err := uuid.Parse(req.Room); err != nil {
		server.emitError(client, "invalid room ID")
		return
	}

	if _, _, err := server.engine.ResolveChat(req.Room); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			server.emitError(client, appErr.Message)
			return
		}
		server.logger.Error("ws joinRoom: failed to resolve chat", "error", err)
		server.emitError(client, "failed to join room")
		return
	}

	server.hub.JoinRoom(req.Room, client)

	messages, err := server.chats.Messages(req.Room)
	if err != nil {
		server.logger.Error("ws joinRoom: failed to load messages", "error", err)
		server.emitError(client, "failed to load messages")
		return
	}

	if err := client.Emit("loadMessages", messages); err != nil {
		server.logger.Warn("ws joinRoom: failed to send message history", "error", err)
	}
}

// handleSocketMessage persists a chat message and broadcasts it to the room.
func (server *Server) handleSocketMessage(client *pubsub.Client, senderID, nickname string, req wsRequest) {
	message, err := server.chats.SendMessage(senderID, req.Room, req.Content, db.MessageType(req.Type))
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			server.emitError(client, appErr.Message)
			return
		}
		server.logger.Error("ws sendMessage: failed to persist message", "error", err)
		server.emitError(client, "failed to send message")
		return
	}

	server.hub.Broadcast(req.Room, "message", gin.H{
		"room":     req.Room,
		"user_id":  senderID,
		"nickname": nickname,
		"content":  message.Content,
		"type":     message.Type,
		"sent_at":  message.SentAt,
	})
}

// handleSocketNotification queues a user-to-user notification. Delivery is
// fire and forget from the client's point of view.
func (server *Server) handleSocketNotification(sourceID string, req wsRequest) {
	if req.UserID == "" || req.Content == "" {
		return
	}

	err := server.distributor.DistributeTaskSendNotification(context.Background(), worker.NotificationPayload{
		SourceID: sourceID,
		DestID:   req.UserID,
		Content:  req.Content,
	})
	if err != nil {
		server.logger.Error("ws notification: failed to create task: send notification", "error", err)
	}
}

func (server *Server) emitError(client *pubsub.Client, message string) {
	if err := client.Emit("error", ErrorResponse{message}); err != nil {
		server.logger.Warn("failed to send error event", "error", err)
	}
}
