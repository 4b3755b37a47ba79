package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/porchlight-app/server/internal/cursor"
	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

type EventService struct {
	eventRepo models.EventRepo
	rsvpRepo  models.RsvpRepo
}

func NewEventService(eventRepo models.EventRepo, rsvpRepo models.RsvpRepo) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		rsvpRepo:  rsvpRepo,
	}
}

// EventPage is one slice of a filtered event listing. NextPageToken is empty
// on the final page.
type EventPage struct {
	Items         []*models.Event `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// checkEventTimes enforces the temporal ordering rules after any merge of
// input onto an event: endAt never precedes startAt, expiresAt strictly
// follows it.
func checkEventTimes(startAt time.Time, endAt, expiresAt *time.Time) error {
	if endAt != nil && endAt.Before(startAt) {
		return models.Invalid("endAt", "must not precede startAt")
	}
	if expiresAt != nil && !expiresAt.After(startAt) {
		return models.Invalid("expiresAt", "must be after startAt")
	}
	return nil
}

func shareableLink(id string, visibility models.Visibility) string {
	if visibility == models.VisibilityPrivate {
		return ""
	}
	return "/e/" + id
}

func (es *EventService) Create(ctx context.Context, input *models.EventInput, actor helpers.Identity) (*models.Event, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var startAt time.Time
	switch input.Kind {
	case models.KindFuture:
		if input.StartAt == nil {
			return nil, models.Invalid("startAt", "required for future events")
		}
		startAt = input.StartAt.UTC()
	case models.KindNow:
		startAt = now
		if input.StartAt != nil {
			startAt = input.StartAt.UTC()
		}
	}

	expiresAt := input.ExpiresAt
	if expiresAt == nil && input.Kind == models.KindNow {
		t := startAt.Add(models.NowEventTTL)
		expiresAt = &t
	}
	if err := checkEventTimes(startAt, input.EndAt, expiresAt); err != nil {
		return nil, err
	}

	category := input.Category
	if category == "" {
		category = models.DefaultCategory
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	neighborhoods := input.Neighborhoods
	if neighborhoods == nil {
		neighborhoods = []string{}
	}

	event := &models.Event{
		ID:            uuid.New().String(),
		Kind:          input.Kind,
		Title:         input.Title,
		Details:       input.Details,
		Location:      input.Location,
		StartAt:       startAt,
		EndAt:         input.EndAt,
		ExpiresAt:     expiresAt,
		Capacity:      input.Capacity,
		Neighborhoods: neighborhoods,
		Category:      category,
		Visibility:    visibility,
		HostID:        actor.UID,
		Status:        models.EventActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	event.ShareableLink = shareableLink(event.ID, event.Visibility)

	if err := es.eventRepo.InsertEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (es *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, models.Invalid("id", "required")
	}
	return es.eventRepo.GetEvent(ctx, id)
}

// GetPublic serves the unauthenticated share-link view. Private events are
// reported as absent rather than forbidden so the link leaks nothing.
func (es *EventService) GetPublic(ctx context.Context, id string) (*models.PublicEventView, error) {
	event, err := es.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Visibility == models.VisibilityPrivate {
		return nil, models.ErrNotFound
	}
	return event.PublicView(), nil
}

func (es *EventService) Patch(ctx context.Context, id string, patch *models.EventPatch, actor helpers.Identity) (*models.Event, error) {
	event, err := es.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(event.HostID) {
		return nil, models.ErrForbidden
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Details != nil {
		event.Details = *patch.Details
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.StartAt != nil {
		event.StartAt = patch.StartAt.UTC()
	}
	if patch.EndAt != nil {
		event.EndAt = patch.EndAt
	}
	if patch.ExpiresAt != nil {
		event.ExpiresAt = patch.ExpiresAt
	}
	if patch.Capacity != nil {
		event.Capacity = patch.Capacity
	}
	if patch.Neighborhoods != nil {
		event.Neighborhoods = *patch.Neighborhoods
	}
	if patch.Category != nil {
		event.Category = *patch.Category
	}
	if patch.Visibility != nil {
		event.Visibility = *patch.Visibility
		event.ShareableLink = shareableLink(event.ID, event.Visibility)
	}

	if err := checkEventTimes(event.StartAt, event.EndAt, event.ExpiresAt); err != nil {
		return nil, err
	}

	event.UpdatedAt = time.Now().UTC()
	if err := es.eventRepo.ReplaceEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Cancel soft-cancels an event. Canceling an already-canceled event is a
// no-op success so client retries stay cheap.
func (es *EventService) Cancel(ctx context.Context, id string, actor helpers.Identity) (*models.Event, error) {
	event, err := es.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(event.HostID) {
		return nil, models.ErrForbidden
	}
	if event.Status == models.EventCanceled {
		return event, nil
	}

	now := time.Now().UTC()
	event.Status = models.EventCanceled
	event.CanceledAt = &now
	event.CanceledBy = actor.UID
	event.UpdatedAt = now

	if err := es.eventRepo.ReplaceEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete hard-deletes an event and its attendance records.
func (es *EventService) Delete(ctx context.Context, id string, actor helpers.Identity) error {
	event, err := es.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(event.HostID) {
		return models.ErrForbidden
	}
	if err := es.eventRepo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	return es.rsvpRepo.DeleteEventRsvps(ctx, id)
}

func (es *EventService) List(ctx context.Context, filter models.EventFilter, pageToken string, limit int) (*EventPage, error) {
	switch filter.Window {
	case "", "now", "future":
	default:
		return nil, models.Invalid("window", "must be now or future")
	}
	limit = clampLimit(limit)

	var after *models.EventKey
	if pageToken != "" {
		key, err := cursor.Decode(filter.Signature(), pageToken)
		if err != nil {
			return nil, err
		}
		startAt, perr := time.Parse(time.RFC3339Nano, key.Primary)
		if perr != nil {
			return nil, cursor.ErrInvalid
		}
		after = &models.EventKey{StartAt: startAt, ID: key.ID}
	}

	now := time.Now().UTC()
	items, hasMore, err := es.eventRepo.ListEvents(ctx, filter, now, after, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Event{}
	}

	page := &EventPage{Items: items}
	if hasMore {
		last := items[len(items)-1]
		page.NextPageToken = cursor.Encode(filter.Signature(), cursor.Key{
			Primary: last.StartAt.UTC().Format(time.RFC3339Nano),
			ID:      last.ID,
		})
	}
	return page, nil
}
