package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/worker"
)

type CreateChatRequest struct {
	FriendID string `json:"friend_id" binding:"required"`
}

// Handler for creating a 1:1 chat with another user
func (server *Server) HandleCreateChat(ctx *gin.Context) {
	var req CreateChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	created, err := server.chats.CreateDirect(claims(ctx).ID, req.FriendID)
	if err != nil {
		server.respondError(ctx, "POST /api/chats", err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Handler for listing the requester's chats split into direct and group chats
func (server *Server) HandleListChats(ctx *gin.Context) {
	requester := claims(ctx)
	overview, err := server.chats.ListForUser(requester.ID, requester.Nickname)
	if err != nil {
		server.respondError(ctx, "GET /api/chats", err)
		return
	}

	ctx.JSON(http.StatusOK, overview)
}

// Handler for fetching a single chat
func (server *Server) HandleGetChat(ctx *gin.Context) {
	summary, err := server.chats.GetByID(claims(ctx).Nickname, ctx.Param("id"))
	if err != nil {
		server.respondError(ctx, "GET /api/chats/:id", err)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// Handler for fetching the full message history of a chat
func (server *Server) HandleGetMessages(ctx *gin.Context) {
	messages, err := server.chats.Messages(ctx.Param("id"))
	if err != nil {
		server.respondError(ctx, "GET /api/chats/:id/messages", err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

// Handler for posting a message over HTTP. The websocket path is the
// primary one, this endpoint serves clients without a socket.
func (server *Server) HandleSendMessage(ctx *gin.Context) {
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	requester := claims(ctx)
	chatID := ctx.Param("id")
	message, err := server.chats.SendMessage(requester.ID, chatID, req.Content, db.MessageType(req.Type))
	if err != nil {
		server.respondError(ctx, "POST /api/chats/:id/messages", err)
		return
	}

	ctx.JSON(http.StatusCreated, message)

	// Push the message to everyone currently in the room
	server.hub.Broadcast(chatID, "message", gin.H{
		"room":     chatID,
		"user_id":  requester.ID,
		"nickname": requester.Nickname,
		"content":  message.Content,
		"type":     message.Type,
		"sent_at":  message.SentAt,
	})

	// Notify the other direct chat participant when they are not in the room
	resolved, participants, err := server.engine.ResolveChat(chatID)
	if err != nil || resolved.IsGroup {
		return
	}
	for _, participantID := range participants {
		if participantID == requester.ID {
			continue
		}
		err = server.distributor.DistributeTaskSendNotification(context.Background(), worker.NotificationPayload{
			SourceID: requester.ID,
			DestID:   participantID,
			Content:  fmt.Sprintf("%s sent you a message", requester.Nickname),
		})
		if err != nil {
			server.logger.Error("POST /api/chats/:id/messages: failed to create task: send notification", "error", err)
		}
	}
}
