package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/models"
	"github.com/porchlight-app/server/internal/services"
)

func RegisterPushHandler(ps *services.PushService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		var input services.PushRegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request body"))
			return
		}

		record, err := ps.Register(c.Request.Context(), actor, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(record, "token registered"))
	}
}

func GetPushTokensHandler(ps *services.PushService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		record, err := ps.Get(c.Request.Context(), actor, c.Query("uid"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(record, ""))
	}
}

func UnregisterPushHandler(ps *services.PushService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		var body struct {
			Token string `json:"token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request body"))
			return
		}

		record, err := ps.Unregister(c.Request.Context(), actor, body.Token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(record, "token removed"))
	}
}
