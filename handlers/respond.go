package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"duochat/middleware"
	"duochat/models"
	"duochat/services"
	"duochat/utils"
)

var statusByCode = map[services.ErrorCode]int{
	services.ErrorUnauthenticated: http.StatusUnauthorized,
	services.ErrorInvalidOperand:  http.StatusBadRequest,
	services.ErrorConflict:        http.StatusConflict,
	services.ErrorNotFound:        http.StatusNotFound,
	services.ErrorForbidden:       http.StatusForbidden,
	services.ErrorValidation:      http.StatusBadRequest,
	services.ErrorInternal:        http.StatusInternalServerError,
}

// respondError writes the categorized outcome of a failed service call.
func respondError(c *gin.Context, err error) {
	code := services.CodeOf(err)
	status := statusByCode[code]

	if code == services.ErrorInternal {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		utils.InternalError(c, "internal error")
		return
	}

	utils.Error(c, status, services.MessageOf(err))
}

func identity(c *gin.Context) (models.Identity, bool) {
	me, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "unauthenticated")
	}
	return me, ok
}
