package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/service/group"
)

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
	Category    string `json:"category"`
	Color       string `json:"color"`
	AvatarID    uint   `json:"avatar_id"`
}

// Handler for creating a group. The creator becomes its first moderator.
func (server *Server) HandleCreateGroup(ctx *gin.Context) {
	var req CreateGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	created, err := server.groups.Create(claims(ctx).ID, group.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Category:    req.Category,
		Color:       req.Color,
		AvatarID:    req.AvatarID,
	})
	if err != nil {
		server.respondError(ctx, "POST /api/groups", err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Handler for listing groups visible to the requester
func (server *Server) HandleListGroups(ctx *gin.Context) {
	groups, err := server.groups.List(claims(ctx).ID)
	if err != nil {
		server.respondError(ctx, "GET /api/groups", err)
		return
	}

	ctx.JSON(http.StatusOK, groups)
}

// Handler for fetching a single group with its member list
func (server *Server) HandleGetGroup(ctx *gin.Context) {
	details, err := server.groups.Get(claims(ctx).ID, ctx.Param("id"))
	if err != nil {
		server.respondError(ctx, "GET /api/groups/:id", err)
		return
	}

	ctx.JSON(http.StatusOK, details)
}

type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
	Category    *string `json:"category"`
	Color       *string `json:"color"`
	AvatarID    *uint   `json:"avatar_id"`
}

// Handler for partially updating a group
func (server *Server) HandleUpdateGroup(ctx *gin.Context) {
	var req UpdateGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	updated, err := server.groups.Update(claims(ctx).ID, ctx.Param("id"), group.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Category:    req.Category,
		Color:       req.Color,
		AvatarID:    req.AvatarID,
	})
	if err != nil {
		server.respondError(ctx, "PUT /api/groups/:id", err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// Handler for deleting a group along with its members, chats and messages
func (server *Server) HandleDeleteGroup(ctx *gin.Context) {
	if err := server.groups.Delete(claims(ctx).ID, ctx.Param("id")); err != nil {
		server.respondError(ctx, "DELETE /api/groups/:id", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "group deleted successfully"})
}

type AddGroupMembersRequest struct {
	Members []string `json:"members" binding:"required"`
}

// Handler for adding members to a group
func (server *Server) HandleAddGroupMembers(ctx *gin.Context) {
	var req AddGroupMembersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	change, err := server.groups.AddMembers(claims(ctx).ID, ctx.Param("id"), req.Members)
	if err != nil {
		server.respondError(ctx, "POST /api/groups/:id/members", err)
		return
	}

	ctx.JSON(http.StatusOK, change)
}

// Handler for joining a public group
func (server *Server) HandleJoinGroup(ctx *gin.Context) {
	requester := claims(ctx)
	message, err := server.groups.Join(requester.ID, requester.Nickname, ctx.Param("id"))
	if err != nil {
		server.respondError(ctx, "POST /api/groups/:id/members/join", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}

// Handler for removing a single member from a group
func (server *Server) HandleDeleteGroupMember(ctx *gin.Context) {
	err := server.groups.DeleteMember(claims(ctx).ID, ctx.Param("id"), ctx.Param("userID"))
	if err != nil {
		server.respondError(ctx, "DELETE /api/groups/:id/members/:userID", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "member removed successfully"})
}

// Handler for removing every member except the creator
func (server *Server) HandleDeleteAllGroupMembers(ctx *gin.Context) {
	if err := server.groups.DeleteAllMembers(claims(ctx).ID, ctx.Param("id")); err != nil {
		server.respondError(ctx, "DELETE /api/groups/:id/members", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "members removed successfully"})
}

type AssignModeratorsRequest struct {
	Moderators []string `json:"moderators" binding:"required"`
}

// Handler for promoting members (or adding new users) as moderators
func (server *Server) HandleAssignModerators(ctx *gin.Context) {
	var req AssignModeratorsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	message, err := server.groups.AssignModerators(claims(ctx).ID, ctx.Param("id"), req.Moderators)
	if err != nil {
		server.respondError(ctx, "POST /api/groups/:id/moderators", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}

// Handler for demoting a single moderator back to plain member
func (server *Server) HandleDeleteModerator(ctx *gin.Context) {
	err := server.groups.DeleteModerator(claims(ctx).ID, ctx.Param("id"), ctx.Param("userID"))
	if err != nil {
		server.respondError(ctx, "DELETE /api/groups/:id/moderators/:userID", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "moderator removed successfully"})
}

// Handler for demoting every moderator except the creator
func (server *Server) HandleDeleteAllModerators(ctx *gin.Context) {
	if err := server.groups.DeleteAllModerators(claims(ctx).ID, ctx.Param("id")); err != nil {
		server.respondError(ctx, "DELETE /api/groups/:id/moderators", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "moderators removed successfully"})
}
