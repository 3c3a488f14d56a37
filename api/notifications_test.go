package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/pubsub"
	"github.com/ulternae/kcchat/service/security"
	"github.com/ulternae/kcchat/util"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// test server wired against a throwaway SQLite database
func newTestServer(t *testing.T) (*Server, *db.Queries) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("api_%d.db", time.Now().UnixNano()))
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

	config := &util.Config{
		BaseURL:                "localhost:8080",
		Port:                   "8080",
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Minute * 15,
		RefreshTokenExpiration: time.Hour * 24,
	}
	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	server := NewServer(queries, config, pubsub.NewHub(testLogger), nil, testLogger)
	server.RegisterHandler()
	return server, queries
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

func accessToken(t *testing.T, server *Server, user db.User) string {
	t.Helper()

	token, err := server.jwtService.CreateToken(user.ID, user.Nickname, user.Email, security.AccessToken)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, server *Server, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, target, nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	server.mux.ServeHTTP(recorder, request)
	return recorder
}

func TestListNotifications(t *testing.T) {
	server, queries := newTestServer(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	base := time.Now().Add(-time.Hour)
	require.NoError(t, queries.DB.Create(&[]db.Notification{
		{SourceID: bob.ID, DestID: alice.ID, Content: "first", CreatedAt: base},
		{SourceID: bob.ID, DestID: alice.ID, Content: "second", CreatedAt: base.Add(time.Minute)},
		{SourceID: alice.ID, DestID: bob.ID, Content: "for bob", CreatedAt: base},
	}).Error)

	token := accessToken(t, server, alice)
	recorder := doRequest(t, server, http.MethodGet, "/api/notifications", token)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Total         int               `json:"total"`
		Notifications []db.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, 2, body.Total)
	require.Equal(t, "second", body.Notifications[0].Content) // newest first
	require.Equal(t, "first", body.Notifications[1].Content)
	for _, notification := range body.Notifications {
		require.Equal(t, alice.ID, notification.DestID)
	}

	recorder = doRequest(t, server, http.MethodGet, "/api/notifications?status=bogus", token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMarkNotificationsRead(t *testing.T) {
	server, queries := newTestServer(t)
	alice := seedUser(t, queries, "alice")
	bob := seedUser(t, queries, "bob")

	require.NoError(t, queries.DB.Create(&[]db.Notification{
		{SourceID: bob.ID, DestID: alice.ID, Content: "one", Status: db.Unread, CreatedAt: time.Now()},
		{SourceID: bob.ID, DestID: alice.ID, Content: "two", Status: db.Unread, CreatedAt: time.Now()},
		{SourceID: alice.ID, DestID: bob.ID, Content: "for bob", Status: db.Unread, CreatedAt: time.Now()},
	}).Error)

	token := accessToken(t, server, alice)
	recorder := doRequest(t, server, http.MethodPut, "/api/notifications/read", token)
	require.Equal(t, http.StatusOK, recorder.Code)

	var unread int64
	require.NoError(t, queries.DB.Model(&db.Notification{}).
		Where("dest_id = ? AND status = ?", alice.ID, db.Unread).Count(&unread).Error)
	require.Zero(t, unread)

	// Bob's notifications are untouched
	require.NoError(t, queries.DB.Model(&db.Notification{}).
		Where("dest_id = ? AND status = ?", bob.ID, db.Unread).Count(&unread).Error)
	require.EqualValues(t, 1, unread)

	recorder = doRequest(t, server, http.MethodGet, "/api/notifications?status=unread", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Zero(t, body.Total)
}
