package membership

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// test DB helper
func newTestQueries(t *testing.T) *db.Queries {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("membership_%d.db", time.Now().UnixNano()))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	queries := &db.Queries{DB: gdb}
	require.NoError(t, queries.AutoMigration())
	return queries
}

func seedUser(t *testing.T, queries *db.Queries, nickname string) db.User {
	t.Helper()

	user := db.User{
		ID:       uuid.NewString(),
		Nickname: nickname,
		Username: nickname,
		Email:    nickname + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, queries.DB.Create(&user).Error)
	return user
}

func TestResolveGroup(t *testing.T) {
	queries := newTestQueries(t)
	engine := NewEngine(queries)
	creator := seedUser(t, queries, "creator")

	group := db.Group{ID: uuid.NewString(), Name: "gophers", CreatorID: creator.ID}
	require.NoError(t, queries.DB.Create(&group).Error)

	resolved, err := engine.ResolveGroup(group.ID)
	require.NoError(t, err)
	require.Equal(t, group.ID, resolved.ID)
	require.Equal(t, creator.ID, resolved.CreatorID)

	_, err = engine.ResolveGroup(uuid.NewString())
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestAuthorizeGroupAction(t *testing.T) {
	queries := newTestQueries(t)
	engine := NewEngine(queries)

	creator := seedUser(t, queries, "creator")
	moderator := seedUser(t, queries, "moderator")
	member := seedUser(t, queries, "member")
	outsider := seedUser(t, queries, "outsider")

	group := db.Group{ID: uuid.NewString(), Name: "gophers", CreatorID: creator.ID}
	require.NoError(t, queries.DB.Create(&group).Error)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: group.ID, UserID: moderator.ID, IsModerator: true}).Error)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: group.ID, UserID: member.ID}).Error)

	// The creator passes without a membership row
	require.NoError(t, engine.AuthorizeGroupAction(&group, creator.ID))
	require.NoError(t, engine.AuthorizeGroupAction(&group, moderator.ID))

	var appErr *apperr.Error
	require.ErrorAs(t, engine.AuthorizeGroupAction(&group, member.ID), &appErr)
	require.Equal(t, apperr.KindUnauthorized, appErr.Kind)
	require.ErrorAs(t, engine.AuthorizeGroupAction(&group, outsider.ID), &appErr)
	require.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestAuthorizeMembership(t *testing.T) {
	queries := newTestQueries(t)
	engine := NewEngine(queries)

	creator := seedUser(t, queries, "creator")
	member := seedUser(t, queries, "member")
	outsider := seedUser(t, queries, "outsider")

	group := db.Group{ID: uuid.NewString(), Name: "gophers", CreatorID: creator.ID}
	require.NoError(t, queries.DB.Create(&group).Error)
	require.NoError(t, queries.DB.Create(&db.GroupMember{GroupID: group.ID, UserID: member.ID}).Error)

	require.NoError(t, engine.AuthorizeMembership(&group, creator.ID))
	require.NoError(t, engine.AuthorizeMembership(&group, member.ID))

	var appErr *apperr.Error
	require.ErrorAs(t, engine.AuthorizeMembership(&group, outsider.ID), &appErr)
	require.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestFilterValidUsers(t *testing.T) {
	queries := newTestQueries(t)
	engine := NewEngine(queries)

	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	// Duplicates collapse, unknown IDs are dropped, order is preserved
	valid, err := engine.FilterValidUsers([]string{bob.ID, alice.ID, bob.ID, uuid.NewString()})
	require.NoError(t, err)
	require.Equal(t, []string{bob.ID, alice.ID}, valid)

	// All unknown is a failure, not an empty success
	_, err = engine.FilterValidUsers([]string{uuid.NewString(), uuid.NewString()})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindNoValidUsers, appErr.Kind)
}

func TestResolveChat(t *testing.T) {
	queries := newTestQueries(t)
	engine := NewEngine(queries)

	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	chat := db.Chat{ID: uuid.NewString()}
	require.NoError(t, queries.DB.Create(&chat).Error)
	require.NoError(t, queries.DB.Create(&[]db.ChatParticipant{
		{ChatID: chat.ID, UserID: alice.ID},
		{ChatID: chat.ID, UserID: bob.ID},
	}).Error)

	resolved, participants, err := engine.ResolveChat(chat.ID)
	require.NoError(t, err)
	require.Equal(t, chat.ID, resolved.ID)
	require.ElementsMatch(t, []string{alice.ID, bob.ID}, participants)

	_, _, err = engine.ResolveChat(uuid.NewString())
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}
