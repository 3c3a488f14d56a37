// Package user covers profile reads and updates, user search and the
// account deletion cascade.
package user

import (
	"errors"
	"log/slog"

	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"github.com/ulternae/kcchat/service/security"
	"gorm.io/gorm"
)

type Manager struct {
	queries *db.Queries
	logger  *slog.Logger
}

func NewManager(queries *db.Queries, logger *slog.Logger) *Manager {
	return &Manager{
		queries: queries,
		logger:  logger,
	}
}

type Profile struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarID  uint   `json:"avatar_id"`
	AvatarURL string `json:"avatar_url"`
}

type UpdateParams struct {
	Nickname *string
	Username *string
	Email    *string
	Password *string
	AvatarID *uint
}

// Profile returns the user's profile joined with their avatar URL.
func (manager *Manager) Profile(userID string) (*Profile, error) {
	var profile Profile
	result := manager.queries.DB.
		Table("users").
		Select("users.user_id, users.nickname, users.username, users.email, users.avatar_id, avatars.url AS avatar_url").
		Joins("LEFT JOIN avatars ON avatars.avatar_id = users.avatar_id").
		Where("users.user_id = ?", userID).
		Scan(&profile)
	if result.Error != nil {
		return nil, apperr.Database("users", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("user not found", "user_id")
	}
	return &profile, nil
}

// UpdateProfile applies a partial update. Passwords are hashed before
// storage and a supplied avatar must exist in the catalog.
func (manager *Manager) UpdateProfile(userID string, params UpdateParams) (*Profile, error) {
	updates := map[string]any{}
	if params.Nickname != nil {
		updates["nickname"] = *params.Nickname
	}
	if params.Username != nil {
		updates["username"] = *params.Username
	}
	if params.Email != nil {
		updates["email"] = *params.Email
	}
	if params.Password != nil {
		hashed, err := security.BcryptHash(*params.Password)
		if err != nil {
			return nil, apperr.Database("users", err)
		}
		updates["password"] = hashed
	}
	if params.AvatarID != nil {
		var avatar db.Avatar
		result := manager.queries.DB.Where("avatar_id = ?", *params.AvatarID).First(&avatar)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("the selected avatar was not found", "avatar_id")
			}
			return nil, apperr.Database("avatars", result.Error)
		}
		updates["avatar_id"] = *params.AvatarID
	}

	if len(updates) == 0 {
		return manager.Profile(userID)
	}

	result := manager.queries.DB.
		Model(&db.User{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			field := manager.conflictField(userID, updates)
			return nil, apperr.Conflict("the "+field+" is already in use, please select another", field)
		}
		return nil, apperr.Database("users", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("user not found", "user_id")
	}

	return manager.Profile(userID)
}

// conflictField reports which unique column an update collided on. The
// translated duplicate-key error carries no column name, so the candidate
// values are probed against other rows instead.
func (manager *Manager) conflictField(excludeID string, updates map[string]any) string {
	for _, field := range []string{"nickname", "username", "email"} {
		value, ok := updates[field]
		if !ok {
			continue
		}
		var count int64
		err := manager.queries.DB.
			Model(&db.User{}).
			Where(field+" = ? AND user_id <> ?", value, excludeID).
			Count(&count).Error
		if err == nil && count > 0 {
			return field
		}
	}
	return "profile"
}

// Search lists users whose nickname contains the given fragment. An empty
// fragment lists everyone.
func (manager *Manager) Search(nickname string) ([]Profile, error) {
	var profiles []Profile
	result := manager.queries.DB.
		Table("users").
		Select("users.user_id, users.nickname, users.username, users.email, users.avatar_id, avatars.url AS avatar_url").
		Joins("LEFT JOIN avatars ON avatars.avatar_id = users.avatar_id").
		Where("users.nickname LIKE ?", "%"+nickname+"%").
		Scan(&profiles)
	if result.Error != nil {
		return nil, apperr.Database("users", result.Error)
	}
	return profiles, nil
}

// DeleteAccount removes the user and everything hanging off them in one
// transaction. Groups they created go through the full group cascade
// first, then their remaining memberships, chat participations, authored
// messages, friendships, notifications and settings.
func (manager *Manager) DeleteAccount(userID string) error {
	var user db.User
	result := manager.queries.DB.Where("user_id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found", "user_id")
		}
		return apperr.Database("users", result.Error)
	}

	err := manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		var ownedGroupIDs []string
		if err := tx.Model(&db.Group{}).
			Where("creator_id = ?", userID).
			Pluck("group_id", &ownedGroupIDs).Error; err != nil {
			return err
		}

		for _, groupID := range ownedGroupIDs {
			if err := cascadeGroup(tx, groupID); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&db.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&db.ChatParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ?", userID).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR friend_id = ?", userID, userID).Delete(&db.Friendship{}).Error; err != nil {
			return err
		}
		if err := tx.Where("source_id = ? OR dest_id = ?", userID, userID).Delete(&db.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&db.Settings{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&db.User{}).Error
	})
	if err != nil {
		return apperr.From(err, "users")
	}

	manager.logger.Info("account deleted", "user_id", userID)
	return nil
}

// cascadeGroup mirrors the group deletion cascade inside an already open
// transaction.
func cascadeGroup(tx *gorm.DB, groupID string) error {
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
}
