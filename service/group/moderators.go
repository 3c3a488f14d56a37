package group

import (
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"gorm.io/gorm"
)

// AssignModerators promotes candidates that are plain members and inserts
// moderator rows for candidates not yet in the group. Candidates that are
// already moderators are left untouched.
func (manager *Manager) AssignModerators(actorID, groupID string, candidateIDs []string) (string, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return "", err
	}

	validIDs, err := manager.engine.FilterValidUsers(candidateIDs)
	if err != nil {
		return "", err
	}

	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return "", err
	}

	members, err := manager.engine.GroupMembers(groupID)
	if err != nil {
		return "", err
	}

	moderators := make(map[string]struct{})
	plainMembers := make(map[string]struct{})
	for _, member := range members {
		if member.IsModerator {
			moderators[member.UserID] = struct{}{}
		} else {
			plainMembers[member.UserID] = struct{}{}
		}
	}

	var promoteIDs, createIDs []string
	for _, id := range validIDs {
		if _, ok := plainMembers[id]; ok {
			promoteIDs = append(promoteIDs, id)
			continue
		}
		if _, ok := moderators[id]; !ok {
			createIDs = append(createIDs, id)
		}
	}

	if len(promoteIDs) == 0 && len(createIDs) == 0 {
		return "no new moderators to assign or update", nil
	}

	err = manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if len(promoteIDs) > 0 {
			if err := tx.Model(&db.GroupMember{}).
				Where("group_id = ? AND user_id IN ?", groupID, promoteIDs).
				Update("is_moderator", true).Error; err != nil {
				return err
			}
		}
		if len(createIDs) > 0 {
			rows := make([]db.GroupMember, 0, len(createIDs))
			for _, id := range createIDs {
				rows = append(rows, db.GroupMember{GroupID: groupID, UserID: id, IsModerator: true})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", apperr.Database("group_members", err)
	}

	return "successfully assigned moderators in the group", nil
}

// DeleteModerator demotes a moderator back to plain member. The membership
// row is preserved so the user keeps access to the group and its chats.
func (manager *Manager) DeleteModerator(actorID, groupID, moderatorID string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if _, err := manager.engine.FilterValidUsers([]string{moderatorID}); err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	if moderatorID == group.CreatorID {
		return apperr.Validation("the group creator cannot be demoted", "moderator_id")
	}

	result := manager.queries.DB.
		Model(&db.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, moderatorID).
		Update("is_moderator", false)
	if result.Error != nil {
		return apperr.Database("group_members", result.Error)
	}
	return nil
}

// DeleteAllModerators demotes every moderator except the creator.
func (manager *Manager) DeleteAllModerators(actorID, groupID string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	result := manager.queries.DB.
		Model(&db.GroupMember{}).
		Where("group_id = ? AND user_id <> ?", groupID, group.CreatorID).
		Update("is_moderator", false)
	if result.Error != nil {
		return apperr.Database("group_members", result.Error)
	}
	return nil
}
