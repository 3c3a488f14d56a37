package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/apperr"
	"github.com/ulternae/kcchat/service/security"
	"github.com/ulternae/kcchat/service/worker"
	"gorm.io/gorm"
)

// User data return to client
type UserData struct {
	ID       string `json:"user_id"`
	Nickname string `json:"nickname"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Struct holds both access token and refresh token
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Response struct after register/login
type AuthResponse struct {
	UserData UserData `json:"user"`
	Tokens   Tokens   `json:"tokens"`
}

type RegisterRequest struct {
	Nickname string `json:"nickname"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Handler for registering a new user with username/email and password
func (server *Server) HandleRegister(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Nickname falls back to the username when not provided
	if req.Nickname == "" {
		req.Nickname = req.Username
	}

	hashed, err := security.BcryptHash(req.Password)
	if err != nil {
		server.logger.Error("POST /api/auth/register: failed to hash password", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	account := db.User{
		ID:       uuid.NewString(),
		Nickname: req.Nickname,
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		AvatarID: 1,
	}

	// The user and their default settings are created together
	err = server.queries.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		return tx.Create(&db.Settings{UserID: account.ID}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			field := server.registerConflictField(account)
			appErr := apperr.Conflict("the "+field+" is already in use, please select another", field)
			ctx.JSON(appErr.Status, appErr)
			return
		}
		server.logger.Error("POST /api/auth/register: failed to create user", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	tokens, err := server.createTokenPair(account)
	if err != nil {
		server.logger.Error("POST /api/auth/register: failed to create JWT tokens", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, AuthResponse{
		UserData: UserData{
			ID:       account.ID,
			Nickname: account.Nickname,
			Username: account.Username,
			Email:    account.Email,
		},
		Tokens: *tokens,
	})

	// Create background tasks: send welcome email
	err = server.distributor.DistributeTaskSendWelcomeEmail(context.Background(), worker.EmailPayload{
		Email:    account.Email,
		Nickname: account.Nickname,
	})
	if err != nil {
		server.logger.Error("POST /api/auth/register: failed to distribute \"send welcome email\" task",
			"error", err)
		// Should NOT return here
	}
}

type LoginRequest struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Handler for login with nickname or email plus password
func (server *Server) HandleLogin(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if req.Nickname == "" && req.Email == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Either nickname or email is required"})
		return
	}

	var account db.User
	query := server.queries.DB
	if req.Nickname != "" {
		query = query.Where("nickname = ?", req.Nickname)
	} else {
		query = query.Where("email = ?", req.Email)
	}
	result := query.First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid credentials"})
			return
		}
		server.logger.Error("POST /api/auth/login: failed to fetch user", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if !security.BcryptCompare(account.Password, req.Password) {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid credentials"})
		return
	}

	tokens, err := server.createTokenPair(account)
	if err != nil {
		server.logger.Error("POST /api/auth/login: failed to create JWT tokens", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, AuthResponse{
		UserData: UserData{
			ID:       account.ID,
			Nickname: account.Nickname,
			Username: account.Username,
			Email:    account.Email,
		},
		Tokens: *tokens,
	})
}

// Handler for exchanging a refresh token for a new token pair
func (server *Server) HandleRefreshToken(ctx *gin.Context) {
	requester := claims(ctx)

	var account db.User
	result := server.queries.DB.Where("user_id = ?", requester.ID).First(&account)
	if result.Error != nil {
		server.logger.Error("POST /api/auth/token/refresh: failed to fetch user", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	tokens, err := server.createTokenPair(account)
	if err != nil {
		server.logger.Error("POST /api/auth/token/refresh: failed to create JWT tokens", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, tokens)
}

// registerConflictField reports which unique column a registration
// collided on. The translated duplicate-key error carries no column name,
// so the submitted values are probed instead.
func (server *Server) registerConflictField(account db.User) string {
	candidates := []struct {
		field string
		value string
	}{
		{"nickname", account.Nickname},
		{"username", account.Username},
		{"email", account.Email},
	}
	for _, candidate := range candidates {
		var count int64
		err := server.queries.DB.
			Model(&db.User{}).
			Where(candidate.field+" = ?", candidate.value).
			Count(&count).Error
		if err == nil && count > 0 {
			return candidate.field
		}
	}
	return "profile"
}

func (server *Server) createTokenPair(account db.User) (*Tokens, error) {
	accessToken, err := server.jwtService.CreateToken(
		account.ID, account.Nickname, account.Email, security.AccessToken,
	)
	if err != nil {
		return nil, err
	}
	refreshToken, err := server.jwtService.CreateToken(
		account.ID, account.Nickname, account.Email, security.RefreshToken,
	)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
