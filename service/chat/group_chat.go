package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"gorm.io/gorm"
)

// GroupChatResult carries the created chat plus the candidate IDs that
// were dropped for not belonging to the group. Invalid candidates are a
// warning, not a failure, as long as two valid participants remain.
type GroupChatResult struct {
	Chat         db.Chat  `json:"chat"`
	Participants []string `json:"participants"`
	Warnings     []string `json:"warnings,omitempty"`
}

// GroupChatMember is a chat participant joined with their group role.
type GroupChatMember struct {
	UserID      string `json:"user_id"`
	Nickname    string `json:"nickname"`
	AvatarID    uint   `json:"avatar_id"`
	IsModerator bool   `json:"is_moderator"`
}

type GroupChatDetails struct {
	Group   db.Group          `json:"group"`
	Chat    db.Chat           `json:"chat"`
	Members []GroupChatMember `json:"members_details"`
}

// CreateGroupChat creates a named chat owned by a group. Creating a
// sub-chat is a moderator-level action. Participants must be the creator
// or current members; everyone else is reported back as a warning.
func (manager *Manager) CreateGroupChat(actorID, groupID, name string, participantIDs []string) (*GroupChatResult, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return nil, err
	}

	members, err := manager.engine.GroupMembers(groupID)
	if err != nil {
		return nil, err
	}
	memberSet := make(map[string]struct{}, len(members))
	for _, member := range members {
		memberSet[member.UserID] = struct{}{}
	}

	var validIDs, invalidIDs []string
	seen := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		_, isMember := memberSet[id]
		if isMember || id == group.CreatorID {
			validIDs = append(validIDs, id)
		} else {
			invalidIDs = append(invalidIDs, id)
		}
	}

	if len(validIDs) < 2 {
		return nil, apperr.InsufficientMembers("you need a minimum of 2 valid members to create a chat")
	}

	chat := db.Chat{
		ID:        uuid.NewString(),
		Name:      &name,
		IsGroup:   true,
		CreatedAt: time.Now(),
	}

	err = manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		participants := make([]db.ChatParticipant, 0, len(validIDs))
		for _, id := range validIDs {
			participants = append(participants, db.ChatParticipant{ChatID: chat.ID, UserID: id})
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		link := db.GroupChat{GroupID: groupID, ChatID: chat.ID}
		return tx.Create(&link).Error
	})
	if err != nil {
		return nil, apperr.Database("chats, chat_participants, group_chats", err)
	}

	return &GroupChatResult{
		Chat:         chat,
		Participants: validIDs,
		Warnings:     invalidIDs,
	}, nil
}

// GroupChats lists the chats owned by a group. Any member may look.
func (manager *Manager) GroupChats(actorID, groupID string) ([]db.Chat, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := manager.engine.AuthorizeMembership(group, actorID); err != nil {
		return nil, err
	}

	var chats []db.Chat
	result := manager.queries.DB.
		Table("chats").
		Joins("JOIN group_chats ON group_chats.chat_id = chats.chat_id").
		Where("group_chats.group_id = ?", groupID).
		Find(&chats)
	if result.Error != nil {
		return nil, apperr.Database("group_chats", result.Error)
	}

	return chats, nil
}

// GroupChatDetails returns a group chat with per-participant role details.
// The creator may participate without a membership row and still shows up
// as a moderator.
func (manager *Manager) GroupChatDetails(actorID, groupID, chatID string) (*GroupChatDetails, error) {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := manager.engine.AuthorizeMembership(group, actorID); err != nil {
		return nil, err
	}

	chat, participantIDs, err := manager.resolveLinkedChat(groupID, chatID)
	if err != nil {
		return nil, err
	}

	details := make([]GroupChatMember, 0, len(participantIDs))
	for _, participantID := range participantIDs {
		var member GroupChatMember
		result := manager.queries.DB.
			Table("group_members").
			Select("users.user_id, users.nickname, users.avatar_id, group_members.is_moderator").
			Joins("JOIN users ON users.user_id = group_members.user_id").
			Where("group_members.group_id = ? AND users.user_id = ?", groupID, participantID).
			Scan(&member)
		if result.Error != nil {
			return nil, apperr.Database("group_members", result.Error)
		}

		if result.RowsAffected == 0 {
			if participantID != group.CreatorID {
				continue
			}
			// Implicit creator: no membership row, always a moderator
			var creator db.User
			if err := manager.queries.DB.Where("user_id = ?", participantID).First(&creator).Error; err != nil {
				return nil, apperr.Database("users", err)
			}
			member = GroupChatMember{
				UserID:      creator.ID,
				Nickname:    creator.Nickname,
				AvatarID:    creator.AvatarID,
				IsModerator: true,
			}
		}

		details = append(details, member)
	}

	return &GroupChatDetails{Group: *group, Chat: *chat, Members: details}, nil
}

// UpdateGroupChat optionally renames the chat and adds participants drawn
// from the group's member set that are not already in the chat.
func (manager *Manager) UpdateGroupChat(actorID, groupID, chatID string, name *string, participantIDs []string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	_, currentIDs, err := manager.resolveLinkedChat(groupID, chatID)
	if err != nil {
		return err
	}

	members, err := manager.engine.GroupMembers(groupID)
	if err != nil {
		return err
	}
	memberSet := make(map[string]struct{}, len(members))
	for _, member := range members {
		memberSet[member.UserID] = struct{}{}
	}
	currentSet := make(map[string]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		currentSet[id] = struct{}{}
	}

	var newIDs []string
	for _, id := range participantIDs {
		_, isMember := memberSet[id]
		_, alreadyIn := currentSet[id]
		if isMember && !alreadyIn {
			newIDs = append(newIDs, id)
			currentSet[id] = struct{}{}
		}
	}

	err = manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if name != nil {
			if err := tx.Model(&db.Chat{}).
				Where("chat_id = ?", chatID).
				Update("name", *name).Error; err != nil {
				return err
			}
		}
		if len(newIDs) > 0 {
			rows := make([]db.ChatParticipant, 0, len(newIDs))
			for _, id := range newIDs {
				rows = append(rows, db.ChatParticipant{ChatID: chatID, UserID: id})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Database("chats, chat_participants", err)
	}

	return nil
}

// DeleteGroupChat removes a group chat and its dependents in one
// transaction: participants, the group link, messages, then the chat row.
func (manager *Manager) DeleteGroupChat(actorID, groupID, chatID string) error {
	group, err := manager.engine.ResolveGroup(groupID)
	if err != nil {
		return err
	}
	if _, _, err := manager.resolveLinkedChat(groupID, chatID); err != nil {
		return err
	}
	if err := manager.engine.AuthorizeGroupAction(group, actorID); err != nil {
		return err
	}

	err = manager.queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&db.ChatParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&db.GroupChat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("chat_id = ?", chatID).Delete(&db.Chat{}).Error
	})
	if err != nil {
		return apperr.Database("chats, chat_participants, group_chats, messages", err)
	}

	return nil
}

// resolveLinkedChat resolves a chat and verifies it belongs to the group.
func (manager *Manager) resolveLinkedChat(groupID, chatID string) (*db.Chat, []string, error) {
	chat, participantIDs, err := manager.engine.ResolveChat(chatID)
	if err != nil {
		return nil, nil, err
	}

	var count int64
	result := manager.queries.DB.
		Model(&db.GroupChat{}).
		Where("group_id = ? AND chat_id = ?", groupID, chatID).
		Count(&count)
	if result.Error != nil {
		return nil, nil, apperr.Database("group_chats", result.Error)
	}
	if count == 0 {
		return nil, nil, apperr.NotFound("the chat does not belong to this group", "chat_id")
	}

	return chat, participantIDs, nil
}
