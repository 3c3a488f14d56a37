package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
)

func seedGroup(t *testing.T, queries *db.Queries, creatorID string, memberIDs ...string) db.Group {
	t.Helper()

	group := db.Group{ID: uuid.NewString(), Name: "gophers", CreatorID: creatorID}
	require.NoError(t, queries.DB.Create(&group).Error)
	require.NoError(t, queries.DB.Create(&db.GroupMember{
		GroupID: group.ID, UserID: creatorID, IsModerator: true,
	}).Error)
	for _, id := range memberIDs {
		require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: group.ID, UserID: id}).Error)
	}
	return group
}

func TestCreateGroupChat(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	outsider := seedUser(t, queries, "outsider")
	group := seedGroup(t, queries, creator.ID, alice.ID)

	// Two valid participants plus one outside the group: the chat is
	// created and the outsider is reported as a warning
	result, err := manager.CreateGroupChat(creator.ID, group.ID, "general", []string{creator.ID, alice.ID, outsider.ID})
	require.NoError(t, err)
	require.True(t, result.Chat.IsGroup)
	require.Equal(t, "general", *result.Chat.Name)
	require.ElementsMatch(t, []string{creator.ID, alice.ID}, result.Participants)
	require.Equal(t, []string{outsider.ID}, result.Warnings)

	var link db.GroupChat
	require.NoError(t, queries.DB.
		Where("group_id = ? AND chat_id = ?", group.ID, result.Chat.ID).
		First(&link).Error)
}

func TestCreateGroupChatInsufficientMembers(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	outsider := seedUser(t, queries, "outsider")
	group := seedGroup(t, queries, creator.ID)

	_, err := manager.CreateGroupChat(creator.ID, group.ID, "general", []string{creator.ID, outsider.ID})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindInsufficientMembers, appErr.Kind)

	// Nothing was created
	var count int64
	require.NoError(t, queries.DB.Model(&db.Chat{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateGroupChatRequiresModerator(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	group := seedGroup(t, queries, creator.ID, alice.ID)

	_, err := manager.CreateGroupChat(alice.ID, group.ID, "general", []string{creator.ID, alice.ID})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestGroupChatDetailsImplicitCreator(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")

	// The creator participates without a membership row
	group := db.Group{ID: uuid.NewString(), Name: "gophers", CreatorID: creator.ID}
	require.NoError(t, queries.DB.Create(&group).Error)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: group.ID, UserID: alice.ID}).Error)

	name := "general"
	chat := db.Chat{ID: uuid.NewString(), Name: &name, IsGroup: true}
	require.NoError(t, queries.DB.Create(&chat).Error)
	require.NoError(t, queries.DB.Create(&[]db.ChatParticipant{
		{ChatID: chat.ID, UserID: creator.ID},
		{ChatID: chat.ID, UserID: alice.ID},
	}).Error)
	require.NoError(t, queries.DB.Create(&db.GroupChat{GroupID: group.ID, ChatID: chat.ID}).Error)

	details, err := manager.GroupChatDetails(creator.ID, group.ID, chat.ID)
	require.NoError(t, err)
	require.Len(t, details.Members, 2)

	byID := make(map[string]GroupChatMember, len(details.Members))
	for _, member := range details.Members {
		byID[member.UserID] = member
	}
	require.True(t, byID[creator.ID].IsModerator)
	require.False(t, byID[alice.ID].IsModerator)
}

func TestUpdateGroupChat(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")
	group := seedGroup(t, queries, creator.ID, alice.ID, bob.ID)

	result, err := manager.CreateGroupChat(creator.ID, group.ID, "general", []string{creator.ID, alice.ID})
	require.NoError(t, err)

	// Rename and pull bob in; alice is already a participant and outsiders
	// are dropped silently
	name := "renamed"
	err = manager.UpdateGroupChat(creator.ID, group.ID, result.Chat.ID, &name, []string{alice.ID, bob.ID, uuid.NewString()})
	require.NoError(t, err)

	var updated db.Chat
	require.NoError(t, queries.DB.Where("chat_id = ?", result.Chat.ID).First(&updated).Error)
	require.Equal(t, "renamed", *updated.Name)

	var participants []db.ChatParticipant
	require.NoError(t, queries.DB.Where("chat_id = ?", result.Chat.ID).Find(&participants).Error)
	require.Len(t, participants, 3)
}

func TestDeleteGroupChat(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	group := seedGroup(t, queries, creator.ID, alice.ID)

	result, err := manager.CreateGroupChat(creator.ID, group.ID, "general", []string{creator.ID, alice.ID})
	require.NoError(t, err)
	_, err = manager.SendMessage(alice.ID, result.Chat.ID, "hello", db.TextMessage)
	require.NoError(t, err)

	require.NoError(t, manager.DeleteGroupChat(creator.ID, group.ID, result.Chat.ID))

	for _, model := range []any{&db.Chat{}, &db.ChatParticipant{}, &db.GroupChat{}, &db.Message{}} {
		var count int64
		require.NoError(t, queries.DB.Model(model).Count(&count).Error)
		require.Zero(t, count)
	}

	// The group itself is untouched
	var groups int64
	require.NoError(t, queries.DB.Model(&db.Group{}).Count(&groups).Error)
	require.EqualValues(t, 1, groups)
}

func TestDeleteGroupChatWrongGroup(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	group := seedGroup(t, queries, creator.ID, alice.ID)
	other := seedGroup(t, queries, creator.ID, alice.ID)

	result, err := manager.CreateGroupChat(creator.ID, group.ID, "general", []string{creator.ID, alice.ID})
	require.NoError(t, err)

	// The chat belongs to the first group, not the second
	err = manager.DeleteGroupChat(creator.ID, other.ID, result.Chat.ID)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}
