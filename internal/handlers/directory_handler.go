package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/models"
	"github.com/porchlight-app/server/internal/services"
)

func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+name+" parameter"))
		return nil, false
	}
	return &n, true
}

func ListPeopleHandler(ds *services.DirectoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}

		ageMin, ok := queryInt(c, "ageMin")
		if !ok {
			return
		}
		ageMax, ok := queryInt(c, "ageMax")
		if !ok {
			return
		}
		limit := 0
		if n, ok := queryInt(c, "limit"); !ok {
			return
		} else if n != nil {
			limit = *n
		}

		filter := services.DirectoryFilter{
			Neighborhood: c.Query("neighborhood"),
			Type:         c.Query("type"),
			AgeMin:       ageMin,
			AgeMax:       ageMax,
			Search:       c.Query("search"),
		}

		page, err := ds.List(c.Request.Context(), filter, c.Query("pageToken"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}

func GetHouseholdHandler(ds *services.DirectoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}

		household, err := ds.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(household, ""))
	}
}

// UpsertMyHouseholdHandler writes the caller's own directory entry; the
// document id is always the caller's uid.
func UpsertMyHouseholdHandler(ds *services.DirectoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		var doc map[string]any
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request body"))
			return
		}

		household, err := ds.UpsertMine(c.Request.Context(), actor, doc)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(household, "household saved"))
	}
}

func ListFavoritesHandler(ds *services.DirectoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		households, err := ds.ListFavorites(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(households, ""))
	}
}

func AddFavoriteHandler(ds *services.DirectoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		ids, err := ds.AddFavorite(c.Request.Context(), actor, c.Param("householdId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(ids, "favorite added"))
	}
}

func RemoveFavoriteHandler(ds *services.DirectoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireIdentity(c)
		if !ok {
			return
		}

		ids, err := ds.RemoveFavorite(c.Request.Context(), actor, c.Param("householdId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(ids, "favorite removed"))
	}
}
