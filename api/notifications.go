package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/db"
)

// HandleListNotifications returns the requester's notifications, newest
// first. Passing ?status=unread (or read) narrows the list.
func (server *Server) HandleListNotifications(ctx *gin.Context) {
	requesterID := claims(ctx).ID

	query := server.queries.DB.Where("dest_id = ?", requesterID)
	switch status := ctx.Query("status"); status {
	case "":
	case string(db.Unread), string(db.Read):
		query = query.Where("status = ?", status)
	default:
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid status: " + status})
		return
	}

	var notifications []db.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		server.logger.Error("GET /api/notifications", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"total":         len(notifications),
		"notifications": notifications,
	})
}

// HandleMarkNotificationsRead flips every unread notification of the
// requester to read.
func (server *Server) HandleMarkNotificationsRead(ctx *gin.Context) {
	requesterID := claims(ctx).ID

	result := server.queries.DB.
		Model(&db.Notification{}).
		Where("dest_id = ? AND status = ?", requesterID, db.Unread).
		Update("status", db.Read)
	if result.Error != nil {
		server.logger.Error("PUT /api/notifications/read", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}
