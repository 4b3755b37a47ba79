package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/models"
	"github.com/porchlight-app/server/internal/services"
)

func CreateEventHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		var input models.EventInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request body"))
			return
		}

		event, err := es.Create(c.Request.Context(), &input, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "event created"))
	}
}

func GetEventHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}

		event, err := es.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

// GetPublicEventHandler serves the share-link view without authentication.
func GetPublicEventHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := es.GetPublic(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(view, ""))
	}
}

func PatchEventHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		var patch models.EventPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request body"))
			return
		}

		event, err := es.Patch(c.Request.Context(), c.Param("id"), &patch, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "event updated"))
	}
}

func CancelEventHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		event, err := es.Cancel(c.Request.Context(), c.Param("id"), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "event canceled"))
	}
}

func DeleteEventHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		if err := es.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "event deleted"))
	}
}

func ListEventsHandler(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid limit parameter"))
				return
			}
			limit = n
		}

		filter := models.EventFilter{
			Window:       c.Query("window"),
			Neighborhood: c.Query("neighborhood"),
			Category:     c.Query("category"),
		}

		page, err := es.List(c.Request.Context(), filter, c.Query("pageToken"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}
