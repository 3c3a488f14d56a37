// Package friend implements the friend-request state machine. Requests
// are stored directionally but looked up as an unordered pair, and only
// a rejected request may be re-sent.
package friend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
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

// CreateRequest sends a friend request, or revives a rejected one back to
// pending. A pending or accepted request between the pair is a conflict:
// an accepted friendship never returns to pending through a re-request.
func (manager *Manager) CreateRequest(actorID, friendID string) (string, error) {
	if actorID == friendID {
		return "", apperr.Validation("cannot send a friend request to yourself", "user_id, friend_id")
	}

	var friend db.User
	result := manager.queries.DB.Where("user_id = ?", friendID).First(&friend)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("the user for the friend request does not exist", "friend_id")
		}
		return "", apperr.Database("users", result.Error)
	}

	existing, err := manager.findBetween(actorID, friendID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.Database("friends", err)
	}

	if existing == nil {
		friendship := db.Friendship{
			UserID:   actorID,
			FriendID: friendID,
			Status:   db.Pending,
		}
		if err := manager.queries.DB.Create(&friendship).Error; err != nil {
			return "", apperr.Database("friends", err)
		}
		return fmt.Sprintf("success sending request to user %s (%s)", friend.Username, friend.Nickname), nil
	}

	if existing.Status != db.Rejected {
		return "", apperr.Conflict("the request already exists", "user_id, friend_id")
	}

	result = manager.queries.DB.
		Model(&db.Friendship{}).
		Where("id = ?", existing.ID).
		Update("status", db.Pending)
	if result.Error != nil {
		return "", apperr.Database("friends", result.Error)
	}

	return fmt.Sprintf("success updating request to user %s (%s)", friend.Username, friend.Nickname), nil
}

// List groups the actor's friendships (either direction) by status.
func (manager *Manager) List(actorID string) (map[db.FriendshipStatus][]db.Friendship, error) {
	var friendships []db.Friendship
	result := manager.queries.DB.
		Where("user_id = ? OR friend_id = ?", actorID, actorID).
		Find(&friendships)
	if result.Error != nil {
		return nil, apperr.Database("friends", result.Error)
	}

	grouped := make(map[db.FriendshipStatus][]db.Friendship)
	for _, friendship := range friendships {
		grouped[friendship.Status] = append(grouped[friendship.Status], friendship)
	}

	return grouped, nil
}

// UpdateStatus explicitly sets the status of the request between the
// actor and a friend.
func (manager *Manager) UpdateStatus(actorID, friendID string, status db.FriendshipStatus) error {
	if actorID == friendID {
		return apperr.Validation("the user and the friend request are the same user", "user_id, friend_id")
	}

	switch status {
	case db.Pending, db.Accepted, db.Rejected:
	default:
		return apperr.Validation("invalid status provided", "status")
	}

	existing, err := manager.findBetween(actorID, friendID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("no friend request found between the specified users", "friend_id")
		}
		return apperr.Database("friends", err)
	}

	result := manager.queries.DB.
		Model(&db.Friendship{}).
		Where("id = ?", existing.ID).
		Update("status", status)
	if result.Error != nil {
		return apperr.Database("friends", result.Error)
	}

	return nil
}

// Delete removes the request between the actor and a friend.
func (manager *Manager) Delete(actorID, friendID string) error {
	if actorID == friendID {
		return apperr.Validation("the user and the friend request are the same user", "user_id, friend_id")
	}

	existing, err := manager.findBetween(actorID, friendID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("no friend request found between the specified users", "friend_id")
		}
		return apperr.Database("friends", err)
	}

	result := manager.queries.DB.Delete(&db.Friendship{}, existing.ID)
	if result.Error != nil {
		return apperr.Database("friends", result.Error)
	}

	return nil
}

// findBetween looks up the request between two users in either direction.
func (manager *Manager) findBetween(userID, friendID string) (*db.Friendship, error) {
	var friendship db.Friendship
	result := manager.queries.DB.
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		First(&friendship)
	if result.Error != nil {
		return nil, result.Error
	}
	return &friendship, nil
}
