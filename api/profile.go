package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/service/user"
)

// Handler for fetching the requester's own profile
func (server *Server) HandleGetProfile(ctx *gin.Context) {
	profile, err := server.users.Profile(claims(ctx).ID)
	if err != nil {
		server.respondError(ctx, "GET /api/profile", err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

type UpdateProfileRequest struct {
	Nickname *string `json:"nickname"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	AvatarID *uint   `json:"avatar_id"`
}

// Handler for partially updating the requester's profile
func (server *Server) HandleUpdateProfile(ctx *gin.Context) {
	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if req.Password != nil && len(*req.Password) < 8 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Password must be at least 8 characters"})
		return
	}

	profile, err := server.users.UpdateProfile(claims(ctx).ID, user.UpdateParams{
		Nickname: req.Nickname,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		AvatarID: req.AvatarID,
	})
	if err != nil {
		server.respondError(ctx, "PUT /api/profile", err)
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

// Handler for deleting the requester's account and all data attached to it
func (server *Server) HandleDeleteAccount(ctx *gin.Context) {
	if err := server.users.DeleteAccount(claims(ctx).ID); err != nil {
		server.respondError(ctx, "DELETE /api/profile", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "account deleted successfully"})
}
