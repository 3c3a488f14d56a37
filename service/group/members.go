package group

import (
	"fmt"

	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
)

// MemberChange reports the outcome of a membership mutation.
type MemberChange struct {
	GroupID string   `json:"group_id"`
	Added   []string `json:"added,omitempty"`
	Members []string `json:"user_ids"`
	Message string   `json:"message"`
}

// AddMembers inserts the candidates that exist and are not yet members.
// Adding other users always requires moderator authority. The one
// exception is a public group where the candidate set is exactly the
// actor, which is treated as a self-enroll like Join. The diff against
// current members is recomputed on every call, so repeating the same
// candidate set is a no-op.
func (manager *Manager) AddMembers(actorID, groupID string, candidateIDs []string) (*MemberChange, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return nil, err
	}

	validIDs, err := manager.engine.FilterValidUsers(candidateIDs)
	if err != nil {
		return nil, err
	}

	selfEnroll := group.IsPublic && len(validIDs) == 1 && validIDs[0] == actorID
	if !selfEnroll {
		if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
			return nil, err
		}
	}

	members, err := manager.engine.GroupMembers(groupID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(members))
	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		existing[member.UserID] = struct{}{}
		memberIDs = append(memberIDs, member.UserID)
	}

	var newIDs []string
	for _, id := range validIDs {
		if _, ok := existing[id]; !ok {
			newIDs = append(newIDs, id)
		}
	}

	if len(newIDs) == 0 {
		return &MemberChange{
			GroupID: groupID,
			Members: memberIDs,
			Message: "all selected users are already members of this group",
		}, nil
	}

	rows := make([]db.GroupMember, 0, len(newIDs))
	for _, id := range newIDs {
		rows = append(rows, db.GroupMember{GroupID: groupID, UserID: id, IsModerator: false})
	}
	if err := manager.queries.DB.Create(&rows).Error; err != nil {
		return nil, apperr.Database("group_members", err)
	}

	return &MemberChange{
		GroupID: groupID,
		Added:   newIDs,
		Members: append(memberIDs, newIDs...),
		Message: "successfully added new members to the group",
	}, nil
}

// Join enrolls the actor into a public group. Joining a group you already
// belong to is a no-op, joining a private group is refused.
func (manager *Manager) Join(actorID, actorNickname, groupID string) (string, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return "", err
	}

	if !group.IsPublic {
		return "", apperr.Unauthorized("this group is not public", "groups")
	}

	members, err := manager.engine.GroupMembers(groupID)
	if err != nil {
		return "", err
	}
	for _, member := range members {
		if member.UserID == actorID {
			return fmt.Sprintf("member %s already exists in the group %s", actorNickname, group.Name), nil
		}
	}

	member := db.GroupMember{GroupID: groupID, UserID: actorID, IsModerator: false}
	if err := manager.queries.DB.Create(&member).Error; err != nil {
		return "", apperr.Database("group_members", err)
	}

	return fmt.Sprintf("success, user %s is a member of the group %s", actorNickname, group.Name), nil
}

// DeleteMember removes a single non-creator membership row.
func (manager *Manager) DeleteMember(actorID, groupID, memberID string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if _, err := manager.engine.FilterValidUsers([]string{memberID}); err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	if memberID == group.CreatorID {
		return apperr.Validation("the group creator cannot be removed from the group", "member_id")
	}

	result := manager.queries.DB.
		Where("group_id = ? AND user_id = ?", groupID, memberID).
		Delete(&db.GroupMember{})
	if result.Error != nil {
		return apperr.Database("group_members", result.Error)
	}
	return nil
}

// DeleteAllMembers removes every membership row except the creator's.
func (manager *Manager) DeleteAllMembers(actorID, groupID string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	result := manager.queries.DB.
		Where("group_id = ? AND user_id <> ?", groupID, group.CreatorID).
		Delete(&db.GroupMember{})
	if result.Error != nil {
		return apperr.Database("group_members", result.Error)
	}
	return nil
}
