package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/models"
	"github.com/porchlight-app/server/internal/services"
)

type rsvpBody struct {
	Status models.RsvpStatus `json:"status"`
}

func UpsertRsvpHandler(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		var body rsvpBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request body"))
			return
		}

		record, err := rs.Upsert(c.Request.Context(), c.Param("id"), actor, body.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(record, "rsvp recorded"))
	}
}

func RemoveRsvpHandler(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		if err := rs.Remove(c.Request.Context(), c.Param("id"), actor); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "rsvp removed"))
	}
}

func SummarizeRsvpsHandler(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		summary, err := rs.Summarize(c.Request.Context(), c.Param("id"), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(summary, ""))
	}
}

func ListAttendeesHandler(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}

		bucket := models.RsvpStatus(c.Query("status"))
		attendees, err := rs.ListAttendees(c.Request.Context(), c.Param("id"), bucket)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(attendees, ""))
	}
}
