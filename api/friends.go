package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/worker"
)

// Request struct for sending friend request
type AddFriendRequest struct {
	FriendID string `json:"friend_id" binding:"required"`
}

// Handler for sending friend request
func (server *Server) HandleAddFriend(ctx *gin.Context) {
	// Get request body and validate
	var req AddFriendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	requester := claims(ctx)
	message, err := server.friends.CreateRequest(requester.ID, req.FriendID)
	if err != nil {
		server.respondError(ctx, "POST /api/friends", err)
		return
	}

	// Return successful message back to client
	ctx.JSON(http.StatusCreated, gin.H{"message": message})

	// Notify the other side
	err = server.distributor.DistributeTaskSendNotification(context.Background(), worker.NotificationPayload{
		SourceID: requester.ID,
		DestID:   req.FriendID,
		Content:  fmt.Sprintf("%s has sent a friend request", requester.Nickname),
	})
	if err != nil {
		server.logger.Error("POST /api/friends: failed to create task: send notification", "error", err)
	}
}

// Handler for listing the requester's friendships grouped by status
func (server *Server) HandleListFriends(ctx *gin.Context) {
	grouped, err := server.friends.List(claims(ctx).ID)
	if err != nil {
		server.respondError(ctx, "GET /api/friends", err)
		return
	}

	ctx.JSON(http.StatusOK, grouped)
}

// Handler for updating friendship status
func (server *Server) HandleUpdateFriendshipStatus(ctx *gin.Context) {
	// Get the status in query parameter and the friend ID in path parameter
	status := db.FriendshipStatus(ctx.Query("status"))
	friendID := ctx.Param("id")

	requester := claims(ctx)
	if err := server.friends.UpdateStatus(requester.ID, friendID, status); err != nil {
		server.respondError(ctx, "PUT /api/friends/:id", err)
		return
	}

	// Return successful message back to client
	ctx.JSON(http.StatusOK, gin.H{"message": "Updated successfully"})

	// Notify the other side about the change
	err := server.distributor.DistributeTaskSendNotification(context.Background(), worker.NotificationPayload{
		SourceID: requester.ID,
		DestID:   friendID,
		Content:  fmt.Sprintf("%s has %s your friend request", requester.Nickname, status),
	})
	if err != nil {
		server.logger.Error("PUT /api/friends/:id: failed to create task: send notification", "error", err)
	}
}

// Handler for removing a friendship in any status
func (server *Server) HandleDeleteFriend(ctx *gin.Context) {
	if err := server.friends.Delete(claims(ctx).ID, ctx.Param("id")); err != nil {
		server.respondError(ctx, "DELETE /api/friends/:id", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}
