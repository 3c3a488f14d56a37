// Package membership resolves groups and chats and decides who may act on
// them. All operations are read-only: callers authorize first, then hand
// the mutation to the group or chat manager.
package membership

import (
	"errors"

	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"gorm.io/gorm"
)

type Engine struct {
	queries *db.Queries
}

func NewEngine(queries *db.Queries) *Engine {
	return &Engine{
		queries: queries,
	}
}

// Method to fetch a group by ID
func (engine *Engine) ResolveGroup(groupID string) (*db.Group, error) {
	var group db.Group
	result := engine.queries.DB.Where("group_id = ?", groupID).First(&group)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("the group was not found", "group_id")
		}
		return nil, apperr.Database("groups", result.Error)
	}
	return &group, nil
}

// Method to fetch all membership rows of a group
func (engine *Engine) GroupMembers(groupID string) ([]db.GroupMember, error) {
	var members []db.GroupMember
	result := engine.queries.DB.Where("group_id = ?", groupID).Find(&members)
	if result.Error != nil {
		return nil, apperr.Database("group_members", result.Error)
	}
	return members, nil
}

// Method to fetch a chat with its participant IDs
func (engine *Engine) ResolveChat(chatID string) (*db.Chat, []string, error) {
	var chat db.Chat
	result := engine.queries.DB.Where("chat_id = ?", chatID).First(&chat)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("the chat was not found", "chat_id")
		}
		return nil, nil, apperr.Database("chats", result.Error)
	}

	var participantIDs []string
	result = engine.queries.DB.
		Model(&db.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &participantIDs)
	if result.Error != nil {
		return nil, nil, apperr.Database("chat_participants", result.Error)
	}

	return &chat, participantIDs, nil
}

// AuthorizeGroupAction succeeds when the actor is the group creator or a
// member with moderator rights. Creator authority is computed, never
// stored: the creator passes even without a membership row.
func (engine *Engine) AuthorizeGroupAction(group *db.Group, actorID string) error {
	if group.CreatorID == actorID {
		return nil
	}

	var member db.GroupMember
	result := engine.queries.DB.
		Where("group_id = ? AND user_id = ?", group.ID, actorID).
		First(&member)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return apperr.Database("group_members", result.Error)
	}

	if result.Error != nil || !member.IsModerator {
		return apperr.Unauthorized("this user does not have access to do this action", "groups")
	}
	return nil
}

// AuthorizeMembership succeeds when the actor is the creator or any member,
// moderator or not. Used for read-type operations such as viewing the
// chats of a group.
func (engine *Engine) AuthorizeMembership(group *db.Group, actorID string) error {
	if group.CreatorID == actorID {
		return nil
	}

	var member db.GroupMember
	result := engine.queries.DB.
		Where("group_id = ? AND user_id = ?", group.ID, actorID).
		First(&member)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.Unauthorized("this user is not a member of the group", "groups")
		}
		return apperr.Database("group_members", result.Error)
	}
	return nil
}

// FilterValidUsers deduplicates the candidate IDs and drops those without
// a matching user row. It fails only when no candidate survives.
func (engine *Engine) FilterValidUsers(candidateIDs []string) ([]string, error) {
	unique := make([]string, 0, len(candidateIDs))
	seen := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var validIDs []string
	result := engine.queries.DB.
		Model(&db.User{}).
		Where("user_id IN ?", unique).
		Pluck("user_id", &validIDs)
	if result.Error != nil {
		return nil, apperr.Database("users", result.Error)
	}

	if len(validIDs) == 0 {
		return nil, apperr.NoValidUsers("users")
	}

	// Preserve the caller's order, Pluck returns rows in index order
	ordered := make([]string, 0, len(validIDs))
	valid := make(map[string]struct{}, len(validIDs))
	for _, id := range validIDs {
		valid[id] = struct{}{}
	}
	for _, id := range unique {
		if _, ok := valid[id]; ok {
			ordered = append(ordered, id)
		}
	}

	return ordered, nil
}
