package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulternae/kcchat/service/apperr"
)

// ErrorResponse is the body for errors raised inside handlers themselves.
// Service errors carry their own shape through apperr.Error.
type ErrorResponse struct {
	Message string `json:"error"`
}

// respondError translates a service error into an HTTP response. Unknown
// errors are logged and reported as a plain 500.
func (server *Server) respondError(ctx *gin.Context, route string, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			server.logger.Error(route, "error", err)
			ctx.JSON(appErr.Status, ErrorResponse{"Internal server error"})
			return
		}
		ctx.JSON(appErr.Status, appErr)
		return
	}

	server.logger.Error(route, "error", err)
	ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
}
