package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/cursor"
	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

// respondError translates the service error taxonomy into HTTP statuses.
// Everything unrecognized is a 500 with a generic message so internal detail
// never leaks to clients.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.FieldErrorResponse(verr.Reason, verr.Field))
	case errors.Is(err, cursor.ErrInvalid):
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid page token"))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse("forbidden"))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse("not found"))
	case errors.Is(err, models.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, models.ErrorResponse("event is at capacity"))
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse("conflict"))
	case errors.Is(err, models.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse("temporarily unavailable, retry later"))
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("internal error"))
	}
}

// requireIdentity fetches the identity set by the auth middleware, answering
// 401 itself when it is missing.
func requireIdentity(c *gin.Context) (helpers.Identity, bool) {
	id, ok := helpers.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return helpers.Identity{}, false
	}
	return id, true
}
