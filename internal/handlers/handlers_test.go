package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
	"github.com/porchlight-app/server/internal/services"
)

// identityStub plays the part of the auth middleware in tests.
func identityStub(id helpers.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.SetIdentity(c, id)
		c.Next()
	}
}

func newTestRouter(t *testing.T, id helpers.Identity) (*gin.Engine, *models.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := models.NewMemoryRepo()
	events := services.NewEventService(repo, repo)
	rsvps := services.NewRsvpService(repo, repo, repo)

	r := gin.New()
	r.GET("/events/public/:id", GetPublicEventHandler(events))

	authed := r.Group("/", identityStub(id))
	authed.POST("/events", CreateEventHandler(events))
	authed.GET("/events/:id", GetEventHandler(events))
	authed.PUT("/events/:id/rsvp", UpsertRsvpHandler(rsvps))

	// One route with no identity at all, to exercise the 401 path.
	r.GET("/bare/events/:id", GetEventHandler(events))

	return r, repo
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEventEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, helpers.Identity{UID: "host-1"})

	w := doJSON(r, http.MethodPost, "/events", `{"type":"now","title":"Street fair"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    models.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Street fair", resp.Data.Title)
	assert.Equal(t, "host-1", resp.Data.HostID)
}

func TestValidationErrorsMapTo400WithField(t *testing.T) {
	r, _ := newTestRouter(t, helpers.Identity{UID: "host-1"})

	w := doJSON(r, http.MethodPost, "/events", `{"type":"future","title":"No start"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "startAt", resp.Field)
}

func TestCapacityExceededMapsTo409(t *testing.T) {
	r, repo := newTestRouter(t, helpers.Identity{UID: "guest-1"})

	capacity := 0
	event := &models.Event{
		ID:       "e1",
		Kind:     models.KindNow,
		Title:    "Full house",
		Status:   models.EventActive,
		Capacity: &capacity,
	}
	require.NoError(t, repo.InsertEvent(context.Background(), event))

	w := doJSON(r, http.MethodPut, "/events/e1/rsvp", `{"status":"going"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMissingEventMapsTo404(t *testing.T) {
	r, _ := newTestRouter(t, helpers.Identity{UID: "guest-1"})

	w := doJSON(r, http.MethodGet, "/events/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissingIdentityMapsTo401(t *testing.T) {
	r, _ := newTestRouter(t, helpers.Identity{UID: "guest-1"})

	w := doJSON(r, http.MethodGet, "/bare/events/e1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicEventEndpointHidesPrivate(t *testing.T) {
	r, repo := newTestRouter(t, helpers.Identity{UID: "host-1"})

	require.NoError(t, repo.InsertEvent(context.Background(), &models.Event{
		ID:         "pub-1",
		Kind:       models.KindNow,
		Title:      "Open mic",
		Status:     models.EventActive,
		Visibility: models.VisibilityPublic,
		HostID:     "host-1",
	}))
	require.NoError(t, repo.InsertEvent(context.Background(), &models.Event{
		ID:         "priv-1",
		Kind:       models.KindNow,
		Title:      "Invite only",
		Status:     models.EventActive,
		Visibility: models.VisibilityPrivate,
		HostID:     "host-1",
	}))

	w := doJSON(r, http.MethodGet, "/events/public/pub-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	// The public projection must not expose the host.
	assert.NotContains(t, w.Body.String(), "host-1")

	w = doJSON(r, http.MethodGet, "/events/public/priv-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
