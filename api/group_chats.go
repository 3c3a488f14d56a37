package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CreateGroupChatRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required"`
}

// Handler for creating a chat inside a group. Users outside the group are
// reported back as warnings rather than failing the whole request.
func (server *Server) HandleCreateGroupChat(ctx *gin.Context) {
	var req CreateGroupChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	result, err := server.chats.CreateGroupChat(claims(ctx).ID, ctx.Param("id"), req.Name, req.Members)
	if err != nil {
		server.respondError(ctx, "POST /api/groups/:id/chats", err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// Handler for listing the chats of a group
func (server *Server) HandleListGroupChats(ctx *gin.Context) {
	chats, err := server.chats.GroupChats(claims(ctx).ID, ctx.Param("id"))
	if err != nil {
		server.respondError(ctx, "GET /api/groups/:id/chats", err)
		return
	}

	ctx.JSON(http.StatusOK, chats)
}

// Handler for fetching a group chat with its participant roles
func (server *Server) HandleGetGroupChat(ctx *gin.Context) {
	details, err := server.chats.GroupChatDetails(claims(ctx).ID, ctx.Param("id"), ctx.Param("chatID"))
	if err != nil {
		server.respondError(ctx, "GET /api/groups/:id/chats/:chatID", err)
		return
	}

	ctx.JSON(http.StatusOK, details)
}

type UpdateGroupChatRequest struct {
	Name    *string  `json:"name"`
	Members []string `json:"members"`
}

// Handler for renaming a group chat or adding participants to it
func (server *Server) HandleUpdateGroupChat(ctx *gin.Context) {
	var req UpdateGroupChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	err := server.chats.UpdateGroupChat(claims(ctx).ID, ctx.Param("id"), ctx.Param("chatID"), req.Name, req.Members)
	if err != nil {
		server.respondError(ctx, "PUT /api/groups/:id/chats/:chatID", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "chat updated successfully"})
}

// Handler for deleting a group chat and its messages
func (server *Server) HandleDeleteGroupChat(ctx *gin.Context) {
	err := server.chats.DeleteGroupChat(claims(ctx).ID, ctx.Param("id"), ctx.Param("chatID"))
	if err != nil {
		server.respondError(ctx, "DELETE /api/groups/:id/chats/:chatID", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "chat deleted successfully"})
}
