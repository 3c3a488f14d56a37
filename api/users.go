package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler for searching users by nickname fragment
func (server *Server) HandleSearchUsers(ctx *gin.Context) {
	profiles, err := server.users.Search(ctx.Query("nickname"))
	if err != nil {
		server.respondError(ctx, "GET /api/users", err)
		return
	}

	ctx.JSON(http.StatusOK, profiles)
}

// Handler for listing users with at least one open socket
func (server *Server) HandleGetOnlineUsers(ctx *gin.Context) {
	online := server.hub.OnlineUsers()

	ctx.JSON(http.StatusOK, gin.H{
		"total": len(online),
		"users": online,
	})
}
