package group

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
)

func TestAssignModerators(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	created, err := manager.Create(creator.ID, CreateParams{Name: "gophers"})
	require.NoError(t, err)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: created.ID, UserID: alice.ID}).Error)

	// Alice is promoted in place, bob is inserted as a moderator member
	_, err = manager.AssignModerators(creator.ID, created.ID, []string{alice.ID, bob.ID})
	require.NoError(t, err)

	var members []db.GroupMember
	require.NoError(t, queries.DB.
		Where("group_id = ? AND is_moderator = ?", created.ID, true).
		Find(&members).Error)
	require.Len(t, members, 3) // creator + alice + bob

	// Assigning an existing moderator again changes nothing
	message, err := manager.AssignModerators(creator.ID, created.ID, []string{alice.ID})
	require.NoError(t, err)
	require.Equal(t, "no new moderators to assign or update", message)
}

func TestAssignModeratorsRequiresAuthority(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	created, err := manager.Create(creator.ID, CreateParams{Name: "gophers"})
	require.NoError(t, err)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: created.ID, UserID: alice.ID}).Error)

	_, err = manager.AssignModerators(alice.ID, created.ID, []string{bob.ID})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestDeleteModeratorDemotes(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")

	created, err := manager.Create(creator.ID, CreateParams{Name: "gophers"})
	require.NoError(t, err)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: created.ID, UserID: alice.ID, IsModerator: true}).Error)

	require.NoError(t, manager.DeleteModerator(creator.ID, created.ID, alice.ID))

	// The membership row survives, only the role changes
	var member db.GroupMember
	require.NoError(t, queries.DB.
		Where("group_id = ? AND user_id = ?", created.ID, alice.ID).
		First(&member).Error)
	require.False(t, member.IsModerator)

	// The creator cannot be demoted
	err = manager.DeleteModerator(creator.ID, created.ID, creator.ID)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindValidation, appErr.Kind)
}

func TestDeleteAllModerators(t *testing.T) {
	manager, queries := newTestManager(t)
	creator := seedUser(t, queries, "creator")
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	created, err := manager.Create(creator.ID, CreateParams{Name: "gophers"})
	require.NoError(t, err)
	require.NoError(t, queries.DB.Create(&[]db.GroupMember{
		{GroupID: created.ID, UserID: alice.ID, IsModerator: true},
		{GroupID: created.ID, UserID: bob.ID, IsModerator: true},
	}).Error)

	require.NoError(t, manager.DeleteAllModerators(creator.ID, created.ID))

	// Everyone stays a member, only the creator keeps the moderator flag
	var members []db.GroupMember
	require.NoError(t, queries.DB.Where("group_id = ?", created.ID).Find(&members).Error)
	require.Len(t, members, 3)
	for _, member := range members {
		require.Equal(t, member.UserID == creator.ID, member.IsModerator)
	}
}
