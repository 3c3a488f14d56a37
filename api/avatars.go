package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/db"
	"gorm.io/gorm"
)

// Handler for listing the avatar catalog
func (server *Server) HandleListAvatars(ctx *gin.Context) {
	var avatars []db.Avatar
	result := server.queries.DB.Order("avatar_id").Find(&avatars)
	if result.Error != nil {
		server.logger.Error("GET /api/avatars: failed to fetch avatars", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, avatars)
}

// Handler for fetching a single avatar
func (server *Server) HandleGetAvatar(ctx *gin.Context) {
	var avatar db.Avatar
	result := server.queries.DB.Where("avatar_id = ?", ctx.Param("id")).First(&avatar)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"Avatar not found"})
			return
		}
		server.logger.Error("GET /api/avatars/:id: failed to fetch avatar", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, avatar)
}

type CreateAvatarRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// Handler for adding an avatar to the catalog. Restricted to the admin IDs
// from the configuration.
func (server *Server) HandleCreateAvatar(ctx *gin.Context) {
	if !server.config.IsAdmin(claims(ctx).ID) {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"You don't have authorization on this action"})
		return
	}

	var req CreateAvatarRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	avatar := db.Avatar{URL: req.URL}
	result := server.queries.DB.Create(&avatar)
	if result.Error != nil {
		server.logger.Error("POST /api/avatars: failed to create avatar", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, avatar)
}
