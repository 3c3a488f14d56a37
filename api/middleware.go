package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/security"
	"gorm.io/gorm"
)

const (
	claimsKey = "claims-key"
)

func (server *Server) AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		// Get the token from request header, falling back to the query
		// parameter for websocket connections
		token := strings.TrimSpace(strings.TrimPrefix(ctx.Request.Header.Get("Authorization"), "Bearer"))
		if token == "" {
			token = ctx.Query("token")
		}
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Missing Bearer token"})
			return
		}

		// Verify token
		claims, err := server.jwtService.VerifyToken(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token: " + err.Error()})
			return
		}

		// Check that the token's user still exists
		var account db.User
		result := server.queries.DB.Where("user_id = ?", claims.ID).First(&account)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token: ID not exists"})
				return
			}
			server.logger.Error("Auth middleware: user lookup", "error", result.Error)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}

		// Check token type
		path := ctx.FullPath()
		tokenType := security.TokenType(claims.TokenType)
		if tokenType != security.AccessToken && tokenType != security.RefreshToken {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{"Invalid token: invalid token type"})
			return
		}

		// Only the refresh endpoint need refresh token, all endpoint that need authentication need access token
		if path == "/api/auth/token/refresh" && tokenType == security.RefreshToken ||
			path != "/api/auth/token/refresh" && tokenType != security.RefreshToken {
			ctx.Set(claimsKey, claims)
			ctx.Next()
			return
		}

		ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{"This token type is not suitable for this endpoint"})
	}
}

func (server *Server) CORSMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Writer.Header().Set("Access-Control-Allow-Origin", fmt.Sprintf("http://%s", server.config.BaseURL))
		ctx.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}

// claims is a small helper to pull verified claims out of the context.
func claims(ctx *gin.Context) *security.CustomClaims {
	value, _ := ctx.Get(claimsKey)
	return value.(*security.CustomClaims)
}
