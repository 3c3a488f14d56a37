package friend

import (
	"fmt"
	"io"
	"log/slog"
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
func newTestManager(t *testing.T) (*Manager, *db.Queries) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("friend_%d.db", time.Now().UnixNano()))
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

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(queries, slogger), queries
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

func statusBetween(t *testing.T, queries *db.Queries, a, b string) db.FriendshipStatus {
	t.Helper()

	var friendship db.Friendship
	require.NoError(t, queries.DB.
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		First(&friendship).Error)
	return friendship.Status
}

func TestCreateRequest(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	message, err := manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Contains(t, message, bob.Nickname)
	require.Equal(t, db.Pending, statusBetween(t, queries, alice.ID, bob.ID))
}

func TestCreateRequestValidation(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")

	_, err := manager.CreateRequest(alice.ID, alice.ID)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindValidation, appErr.Kind)

	_, err = manager.CreateRequest(alice.ID, uuid.NewString())
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestCreateRequestConflicts(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	_, err := manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	// A pending request cannot be re-sent, from either direction
	var appErr *apperr.Error
	_, err = manager.CreateRequest(alice.ID, bob.ID)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindConflict, appErr.Kind)
	_, err = manager.CreateRequest(bob.ID, alice.ID)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindConflict, appErr.Kind)

	// An accepted friendship conflicts too
	require.NoError(t, manager.UpdateStatus(bob.ID, alice.ID, db.Accepted))
	_, err = manager.CreateRequest(alice.ID, bob.ID)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindConflict, appErr.Kind)
}

func TestCreateRequestAfterRejection(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	_, err := manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, manager.UpdateStatus(bob.ID, alice.ID, db.Rejected))

	// A rejected request may be revived back to pending
	_, err = manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, db.Pending, statusBetween(t, queries, alice.ID, bob.ID))

	// Still only one row for the pair
	var count int64
	require.NoError(t, queries.DB.Model(&db.Friendship{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpdateStatus(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	_, err := manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, manager.UpdateStatus(bob.ID, alice.ID, db.Accepted))
	require.Equal(t, db.Accepted, statusBetween(t, queries, alice.ID, bob.ID))

	var appErr *apperr.Error
	require.ErrorAs(t, manager.UpdateStatus(bob.ID, alice.ID, db.FriendshipStatus("blocked")), &appErr)
	require.Equal(t, apperr.KindValidation, appErr.Kind)

	require.ErrorAs(t, manager.UpdateStatus(alice.ID, uuid.NewString(), db.Accepted), &appErr)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestList(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")
	carol := seedUser(t, queries, "carol")

	_, err := manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, manager.UpdateStatus(bob.ID, alice.ID, db.Accepted))

	// carol's request towards alice stays pending
	_, err = manager.CreateRequest(carol.ID, alice.ID)
	require.NoError(t, err)

	grouped, err := manager.List(alice.ID)
	require.NoError(t, err)
	require.Len(t, grouped[db.Accepted], 1)
	require.Len(t, grouped[db.Pending], 1)
	require.Empty(t, grouped[db.Rejected])
}

func TestDelete(t *testing.T) {
	manager, queries := newTestManager(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	_, err := manager.CreateRequest(alice.ID, bob.ID)
	require.NoError(t, err)

	// Either side may remove the friendship
	require.NoError(t, manager.Delete(bob.ID, alice.ID))

	var count int64
	require.NoError(t, queries.DB.Model(&db.Friendship{}).Count(&count).Error)
	require.Zero(t, count)

	var appErr *apperr.Error
	require.ErrorAs(t, manager.Delete(alice.ID, bob.ID), &appErr)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}
