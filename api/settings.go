package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Handler for fetching the requester's settings. Users registered before
// settings existed get the defaults back.
func (server *Server) HandleGetSettings(ctx *gin.Context) {
	requesterID := claims(ctx).ID

	var settings db.Settings
	result := server.queries.DB.Where("user_id = ?", requesterID).First(&settings)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusOK, db.Settings{
				UserID:   requesterID,
				Language: "en",
				Theme:    "darkMode",
			})
			return
		}
		server.logger.Error("GET /api/settings: failed to fetch settings", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, settings)
}

type UpdateSettingsRequest struct {
	Language string `json:"language" binding:"required"`
	Theme    string `json:"theme" binding:"required"`
}

// Handler for upserting the requester's settings
func (server *Server) HandleUpdateSettings(ctx *gin.Context) {
	var req UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	settings := db.Settings{
		UserID:   claims(ctx).ID,
		Language: req.Language,
		Theme:    req.Theme,
	}
	result := server.queries.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"language", "theme"}),
	}).Create(&settings)
	if result.Error != nil {
		server.logger.Error("PUT /api/settings: failed to upsert settings", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, settings)
}
