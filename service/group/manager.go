// Package group implements the group lifecycle: creation with the seeded
// creator membership, partial updates, the ordered deletion cascade, and
// member/moderator management.
package group

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"github.com/ulternae/kcchat/service/membership"
	"gorm.io/gorm"
)

type Manager struct {
	queries *db.Queries
	engine  *membership.Engine
	logger  *slog.Logger
}

func NewManager(queries *db.Queries, engine *membership.Engine, logger *slog.Logger) *Manager {
	return &Manager{
		queries: queries,
		engine:  engine,
		logger:  logger,
	}
}

type CreateParams struct {
	Name        string
	Description string
	IsPublic    bool
	Category    string
	Color       string
	AvatarID    uint
}

type UpdateParams struct {
	Name        *string
	Description *string
	IsPublic    *bool
	Category    *string
	Color       *string
	AvatarID    *uint
}

// Summary is a group joined with its creator's nickname, as returned by
// the listing endpoint.
type Summary struct {
	db.Group
	CreatorNickname string `json:"creator_nickname"`
}

type Details struct {
	db.Group
	Members []MemberDetails `json:"members"`
}

type MemberDetails struct {
	UserID      string `json:"user_id"`
	Nickname    string `json:"nickname"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsModerator bool   `json:"is_moderator"`
}

// Create inserts the group and the creator's moderator membership row in
// one transaction.
func (manager *Manager) Create(actorID string, params CreateParams) (*db.Group, error) {
	if _, err := manager.engine.FilterValidUsers([]string{actorID}); err != nil {
		return nil, err
	}

	group := db.Group{
		ID:          uuid.NewString(),
		Name:        params.Name,
		Description: params.Description,
		IsPublic:    params.IsPublic,
		CreatorID:   actorID,
		Category:    params.Category,
		Color:       params.Color,
		AvatarID:    params.AvatarID,
		CreatedAt:   time.Now(),
	}

	err := manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		member := db.GroupMember{
			GroupID:     group.ID,
			UserID:      actorID,
			IsModerator: true,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, apperr.Database("groups", err)
	}

	return &group, nil
}

// List returns the groups the actor belongs to plus every public group.
func (manager *Manager) List(actorID string) ([]Summary, error) {
	if _, err := manager.engine.FilterValidUsers([]string{actorID}); err != nil {
		return nil, err
	}

	var summaries []Summary
	result := manager.queries.DB.
		Table("groups").
		Select("DISTINCT groups.*, creators.nickname AS creator_nickname").
		Joins("LEFT JOIN group_members ON group_members.group_id = groups.group_id AND group_members.user_id = ?", actorID).
		Joins("JOIN users AS creators ON creators.user_id = groups.creator_id").
		Where("group_members.user_id IS NOT NULL OR groups.is_public = ?", true).
		Order("groups.is_public").
		Scan(&summaries)
	if result.Error != nil {
		return nil, apperr.Database("groups", result.Error)
	}

	return summaries, nil
}

// Get returns a group with its member details.
func (manager *Manager) Get(actorID, groupID string) (*Details, error) {
	if _, err := manager.engine.FilterValidUsers([]string{actorID}); err != nil {
		return nil, err
	}

	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return nil, err
	}

	var members []MemberDetails
	result := manager.queries.DB.
		Table("group_members").
		Select("users.user_id, users.nickname, users.username, users.email, group_members.is_moderator").
		Joins("JOIN users ON users.user_id = group_members.user_id").
		Where("group_members.group_id = ?", groupID).
		Scan(&members)
	if result.Error != nil {
		return nil, apperr.Database("group_members", result.Error)
	}

	return &Details{Group: *group, Members: members}, nil
}

// Update applies a partial column update with only the supplied fields.
func (manager *Manager) Update(actorID, groupID string, params UpdateParams) (*db.Group, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.IsPublic != nil {
		updates["is_public"] = *params.IsPublic
	}
	if params.Category != nil {
		updates["category"] = *params.Category
	}
	if params.Color != nil {
		updates["color"] = *params.Color
	}
	if params.AvatarID != nil {
		updates["avatar_id"] = *params.AvatarID
	}
	if len(updates) == 0 {
		return group, nil
	}

	result := manager.queries.DB.
		Model(&db.Group{}).
		Where("group_id = ?", groupID).
		Updates(updates)
	if result.Error != nil {
		return nil, apperr.Database("groups", result.Error)
	}

	return manager.engine.ResolveGroup(groupID)
}

// Delete runs the full cascade in one transaction: membership rows, then
// for every linked chat its messages, participants, the link and the chat
// row itself, and finally the group row. Any failure rolls back the whole
// unit.
func (manager *Manager) Delete(actorID, groupID string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	err = manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&db.GroupMember{}).Error; err != nil {
			return err
		}

		var chatIDs []string
		if err := tx.Model(&db.GroupChat{}).
			Where("group_id = ?", groupID).
			Pluck("chat_id", &chatIDs).Error; err != nil {
			return err
		}

		if len(chatIDs) > 0 {
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&db.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&db.ChatParticipant{}).Error; err != nil {
				return err
			}
			if err := tx.Where("group_id = ?", groupID).Delete(&db.GroupChat{}).Error; err != nil {
				return err
			}
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&db.Chat{}).Error; err != nil {
				return err
			}
		}

		return tx.Where("group_id = ?", groupID).Delete(&db.Group{}).Error
	})
	if err != nil {
		return apperr.From(err, "groups, group_members, chats")
	}

	manager.logger.Info("group deleted", "group_id", groupID, "actor_id", actorID)
	return nil
}
