package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlight-app/server/internal/cursor"
	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

func newTestServices(t *testing.T) (*models.MemoryRepo, *EventService, *RsvpService, *DirectoryService, *PushService) {
	t.Helper()
	repo := models.NewMemoryRepo()
	return repo,
		NewEventService(repo, repo),
		NewRsvpService(repo, repo, repo),
		NewDirectoryService(repo, repo),
		NewPushService(repo)
}

var host = helpers.Identity{UID: "host-1", Email: "host@example.com"}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(n int) *int              { return &n }

func TestCreateFutureRequiresStartAt(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	_, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindFuture,
		Title: "Block party",
	}, host)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "startAt", verr.Field)
}

func TestCreateNowDefaults(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	before := time.Now().UTC()
	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindNow,
		Title: "Impromptu lemonade stand",
	}, host)
	require.NoError(t, err)

	assert.WithinDuration(t, before, event.StartAt, 2*time.Second)
	require.NotNil(t, event.ExpiresAt)
	assert.Equal(t, event.StartAt.Add(24*time.Hour), *event.ExpiresAt)
	assert.Equal(t, models.EventActive, event.Status)
	assert.Equal(t, models.DefaultCategory, event.Category)
	assert.Equal(t, host.UID, event.HostID)
}

func TestCreateRejectsBadTimeOrdering(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)

	_, err := events.Create(context.Background(), &models.EventInput{
		Kind:    models.KindFuture,
		Title:   "Backwards event",
		StartAt: &start,
		EndAt:   timePtr(start.Add(-time.Hour)),
	}, host)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "endAt", verr.Field)
}

func TestShareableLinkFollowsVisibility(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:       models.KindNow,
		Title:      "Open house",
		Visibility: models.VisibilityPublic,
	}, host)
	require.NoError(t, err)
	assert.Equal(t, "/e/"+event.ID, event.ShareableLink)

	private := models.VisibilityPrivate
	patched, err := events.Patch(context.Background(), event.ID, &models.EventPatch{Visibility: &private}, host)
	require.NoError(t, err)
	assert.Empty(t, patched.ShareableLink)

	// Private events are invisible through the public view.
	_, err = events.GetPublic(context.Background(), event.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPatchForbiddenLeavesRecordUnchanged(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindNow,
		Title: "Original title",
	}, host)
	require.NoError(t, err)

	stranger := helpers.Identity{UID: "stranger-1"}
	title := "Hijacked"
	_, err = events.Patch(context.Background(), event.ID, &models.EventPatch{Title: &title}, stranger)
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original title", got.Title)
}

func TestPatchMergesPartialFields(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)
	start := time.Date(2026, 10, 3, 10, 0, 0, 0, time.UTC)

	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:     models.KindFuture,
		Title:    "Cleanup day",
		Details:  "Bring gloves",
		StartAt:  &start,
		Capacity: intPtr(10),
	}, host)
	require.NoError(t, err)

	title := "Cleanup morning"
	patched, err := events.Patch(context.Background(), event.ID, &models.EventPatch{Title: &title}, host)
	require.NoError(t, err)

	assert.Equal(t, "Cleanup morning", patched.Title)
	assert.Equal(t, "Bring gloves", patched.Details)
	assert.Equal(t, start, patched.StartAt)
	require.NotNil(t, patched.Capacity)
	assert.Equal(t, 10, *patched.Capacity)
}

func TestCancelForbiddenForStranger(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindNow,
		Title: "Quiet gathering",
	}, host)
	require.NoError(t, err)

	_, err = events.Cancel(context.Background(), event.ID, helpers.Identity{UID: "stranger-1"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := events.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventActive, got.Status)
}

func TestCancelIsIdempotent(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindNow,
		Title: "Rained out",
	}, host)
	require.NoError(t, err)

	first, err := events.Cancel(context.Background(), event.ID, host)
	require.NoError(t, err)
	require.NotNil(t, first.CanceledAt)
	assert.Equal(t, host.UID, first.CanceledBy)

	second, err := events.Cancel(context.Background(), event.ID, host)
	require.NoError(t, err)
	assert.Equal(t, *first.CanceledAt, *second.CanceledAt)
}

func TestDeleteCascadesRsvps(t *testing.T) {
	repo, events, rsvps, _, _ := newTestServices(t)

	event, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindNow,
		Title: "Short-lived",
	}, host)
	require.NoError(t, err)

	_, err = rsvps.Upsert(context.Background(), event.ID, helpers.Identity{UID: "guest-1"}, models.RsvpGoing)
	require.NoError(t, err)

	require.NoError(t, events.Delete(context.Background(), event.ID, host))

	_, err = events.Get(context.Background(), event.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	records, err := repo.ListRsvps(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListExcludesExpired(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)
	past := time.Now().UTC().Add(-48 * time.Hour)

	_, err := events.Create(context.Background(), &models.EventInput{
		Kind:      models.KindNow,
		Title:     "Long over",
		StartAt:   &past,
		ExpiresAt: timePtr(past.Add(24 * time.Hour)),
	}, host)
	require.NoError(t, err)

	for _, window := range []string{"", "now", "future"} {
		page, err := events.List(context.Background(), models.EventFilter{Window: window}, "", 20)
		require.NoError(t, err)
		assert.Empty(t, page.Items, "window %q", window)
	}
}

func TestListWindowAndNeighborhoodFilters(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)
	future := time.Now().UTC().Add(72 * time.Hour)

	_, err := events.Create(context.Background(), &models.EventInput{
		Kind:  models.KindNow,
		Title: "Happening",
	}, host)
	require.NoError(t, err)

	_, err = events.Create(context.Background(), &models.EventInput{
		Kind:          models.KindFuture,
		Title:         "Oak Ridge picnic",
		StartAt:       &future,
		Neighborhoods: []string{"Oak Ridge"},
	}, host)
	require.NoError(t, err)

	page, err := events.List(context.Background(), models.EventFilter{Window: "future"}, "", 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Oak Ridge picnic", page.Items[0].Title)

	page, err = events.List(context.Background(), models.EventFilter{Window: "now"}, "", 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Happening", page.Items[0].Title)

	page, err = events.List(context.Background(), models.EventFilter{Neighborhood: "Bayhill"}, "", 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListPaginatesWithFilterBoundCursor(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)
	base := time.Now().UTC().Add(24 * time.Hour)

	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		_, err := events.Create(context.Background(), &models.EventInput{
			Kind:    models.KindFuture,
			Title:   "Event",
			StartAt: &start,
		}, host)
		require.NoError(t, err)
	}

	filter := models.EventFilter{Window: "future"}
	first, err := events.List(context.Background(), filter, "", 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextPageToken)

	second, err := events.List(context.Background(), filter, first.NextPageToken, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextPageToken)
	assert.True(t, second.Items[0].StartAt.After(first.Items[1].StartAt))

	// Replaying the token under a different filter combination is rejected.
	_, err = events.List(context.Background(), models.EventFilter{Window: "future", Category: "sports"}, first.NextPageToken, 2)
	assert.ErrorIs(t, err, cursor.ErrInvalid)

	// A fresh listing still works after the bad token.
	fresh, err := events.List(context.Background(), filter, "", 20)
	require.NoError(t, err)
	assert.Len(t, fresh.Items, 3)
}

func TestListRejectsGarbageToken(t *testing.T) {
	_, events, _, _, _ := newTestServices(t)

	_, err := events.List(context.Background(), models.EventFilter{}, "!!definitely-not-a-token!!", 20)
	assert.ErrorIs(t, err, cursor.ErrInvalid)
}
