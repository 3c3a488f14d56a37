// Package api exposes the HTTP and websocket surface of the chat backend.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/chat"
	"github.com/ulternae/kcchat/service/friend"
	"github.com/ulternae/kcchat/service/group"
	"github.com/ulternae/kcchat/service/membership"
	"github.com/ulternae/kcchat/service/pubsub"
	"github.com/ulternae/kcchat/service/security"
	"github.com/ulternae/kcchat/service/user"
	"github.com/ulternae/kcchat/service/worker"
	"github.com/ulternae/kcchat/util"
)

type Server struct {
	mux     *gin.Engine
	queries *db.Queries

	jwtService  *security.JWTService
	oauth       OAuth
	upgrader    *websocket.Upgrader
	distributor worker.TaskDistributor
	hub         *pubsub.Hub

	engine  *membership.Engine
	users   *user.Manager
	groups  *group.Manager
	chats   *chat.Manager
	friends *friend.Manager

	config *util.Config
	logger *slog.Logger
}

func NewServer(
	queries *db.Queries,
	config *util.Config,
	hub *pubsub.Hub,
	distributor worker.TaskDistributor,
	logger *slog.Logger,
) *Server {
	// Create dependency
	jwtService := security.NewJWTService(config)
	oauth := NewGoogleOAuth(queries, distributor, jwtService, config, logger)
	engine := membership.NewEngine(queries)

	return &Server{
		mux:     gin.Default(),
		queries: queries,

		jwtService: jwtService,
		oauth:      oauth,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		distributor: distributor,
		hub:         hub,

		engine:  engine,
		users:   user.NewManager(queries, logger),
		groups:  group.NewManager(queries, engine, logger),
		chats:   chat.NewManager(queries, engine, logger),
		friends: friend.NewManager(queries, logger),

		config: config,
		logger: logger,
	}
}

// Helper method to register handler to route
func (server *Server) RegisterHandler() {
	// Setup global middlewares
	server.mux.Use(server.CORSMiddleware())

	api := server.mux.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", server.HandleRegister)
			auth.POST("/login", server.HandleLogin)
			auth.POST("/token/refresh", server.AuthMiddleware(), server.HandleRefreshToken)
			auth.GET("/oauth", server.oauth.HandleOAuth)
		}

		// Profile and account routes
		api.GET("/profile", server.AuthMiddleware(), server.HandleGetProfile)
		api.PUT("/profile", server.AuthMiddleware(), server.HandleUpdateProfile)
		api.DELETE("/profile", server.AuthMiddleware(), server.HandleDeleteAccount)

		// User routes
		api.GET("/users", server.AuthMiddleware(), server.HandleSearchUsers)
		api.GET("/users/online", server.AuthMiddleware(), server.HandleGetOnlineUsers)

		// Settings routes
		api.GET("/settings", server.AuthMiddleware(), server.HandleGetSettings)
		api.PUT("/settings", server.AuthMiddleware(), server.HandleUpdateSettings)

		api.GET("/notifications", server.AuthMiddleware(), server.HandleListNotifications)
		api.PUT("/notifications/read", server.AuthMiddleware(), server.HandleMarkNotificationsRead)

		// Avatar routes
		api.GET("/avatars", server.HandleListAvatars)
		api.GET("/avatars/:id", server.HandleGetAvatar)
		api.POST("/avatars", server.AuthMiddleware(), server.HandleCreateAvatar)

		// Friend routes
		friends := api.Group("/friends", server.AuthMiddleware())
		{
			friends.POST("", server.HandleAddFriend)
			friends.GET("", server.HandleListFriends)
			friends.PUT("/:id", server.HandleUpdateFriendshipStatus)
			friends.DELETE("/:id", server.HandleDeleteFriend)
		}

		// Group routes
		groups := api.Group("/groups", server.AuthMiddleware())
		{
			groups.POST("", server.HandleCreateGroup)
			groups.GET("", server.HandleListGroups)
			groups.GET("/:id", server.HandleGetGroup)
			groups.PUT("/:id", server.HandleUpdateGroup)
			groups.DELETE("/:id", server.HandleDeleteGroup)

			groups.POST("/:id/members", server.HandleAddGroupMembers)
			groups.POST("/:id/members/join", server.HandleJoinGroup)
			groups.DELETE("/:id/members", server.HandleDeleteAllGroupMembers)
			groups.DELETE("/:id/members/:userID", server.HandleDeleteGroupMember)

			groups.POST("/:id/moderators", server.HandleAssignModerators)
			groups.DELETE("/:id/moderators", server.HandleDeleteAllModerators)
			groups.DELETE("/:id/moderators/:userID", server.HandleDeleteModerator)

			groups.POST("/:id/chats", server.HandleCreateGroupChat)
			groups.GET("/:id/chats", server.HandleListGroupChats)
			groups.GET("/:id/chats/:chatID", server.HandleGetGroupChat)
			groups.PUT("/:id/chats/:chatID", server.HandleUpdateGroupChat)
			groups.DELETE("/:id/chats/:chatID", server.HandleDeleteGroupChat)
		}

		// Chat routes
		chats := api.Group("/chats", server.AuthMiddleware())
		{
			chats.POST("", server.HandleCreateChat)
			chats.GET("", server.HandleListChats)
			chats.GET("/:id", server.HandleGetChat)
			chats.GET("/:id/messages", server.HandleGetMessages)
			chats.POST("/:id/messages", server.HandleSendMessage)
		}
	}

	// Websocket routes
	ws := server.mux.Group("/ws")
	{
		ws.GET("/chat", server.AuthMiddleware(), server.HandleWS)
	}

	// Callback URL for OAuth2
	server.mux.GET("/oauth2/callback", server.oauth.HandleCallback)
}

// Method to start the server
func (server *Server) Start() error {
	server.RegisterHandler()
	return server.mux.Run(fmt.Sprintf(":%s", server.config.Port))
}
