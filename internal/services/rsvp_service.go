package services

import (
	"context"
	"errors"
	"time"

	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

type RsvpService struct {
	eventRepo     models.EventRepo
	rsvpRepo      models.RsvpRepo
	householdRepo models.HouseholdRepo
}

func NewRsvpService(eventRepo models.EventRepo, rsvpRepo models.RsvpRepo, householdRepo models.HouseholdRepo) *RsvpService {
	return &RsvpService{
		eventRepo:     eventRepo,
		rsvpRepo:      rsvpRepo,
		householdRepo: householdRepo,
	}
}

// Attendee is an RSVP record resolved against the directory for display.
type Attendee struct {
	UID          string            `json:"uid"`
	Status       models.RsvpStatus `json:"status"`
	RsvpAt       time.Time         `json:"rsvpAt"`
	LastName     string            `json:"lastName,omitempty"`
	Neighborhood string            `json:"neighborhood,omitempty"`
}

// Upsert records the caller's attendance intent, enforcing capacity on the
// transition into "going". The going counter is reserved before the record
// write and released again if that write fails, so the admitted count never
// drifts above capacity.
func (rs *RsvpService) Upsert(ctx context.Context, eventID string, actor helpers.Identity, status models.RsvpStatus) (*models.Rsvp, error) {
	if eventID == "" {
		return nil, models.Invalid("eventId", "required")
	}
	if !models.ValidRsvpStatus(status) {
		return nil, models.Invalid("status", "must be going, maybe or declined")
	}

	event, err := rs.eventRepo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventCanceled {
		return nil, models.ErrConflict
	}

	wasGoing := false
	prior, err := rs.rsvpRepo.GetRsvp(ctx, eventID, actor.UID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if prior != nil {
		wasGoing = prior.Status == models.RsvpGoing
	}
	nowGoing := status == models.RsvpGoing

	reserved := false
	if nowGoing && !wasGoing {
		if err := rs.eventRepo.ReserveGoing(ctx, eventID); err != nil {
			return nil, err
		}
		reserved = true
	}

	record := &models.Rsvp{
		ID:       models.RsvpID(eventID, actor.UID),
		EventID:  eventID,
		PersonID: actor.UID,
		Status:   status,
		RsvpAt:   time.Now().UTC(),
	}
	if err := rs.rsvpRepo.PutRsvp(ctx, record); err != nil {
		if reserved {
			rs.eventRepo.ReleaseGoing(ctx, eventID)
		}
		return nil, err
	}

	if wasGoing && !nowGoing {
		if err := rs.eventRepo.ReleaseGoing(ctx, eventID); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// Remove deletes the caller's attendance record. Removing an absent record
// succeeds as a no-op.
func (rs *RsvpService) Remove(ctx context.Context, eventID string, actor helpers.Identity) error {
	if eventID == "" {
		return models.Invalid("eventId", "required")
	}

	prior, err := rs.rsvpRepo.GetRsvp(ctx, eventID, actor.UID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := rs.rsvpRepo.DeleteRsvp(ctx, eventID, actor.UID); err != nil {
		return err
	}
	if prior.Status == models.RsvpGoing {
		return rs.eventRepo.ReleaseGoing(ctx, eventID)
	}
	return nil
}

// Summarize buckets the event's RSVPs by status and reports the caller's own
// status, "none" when they have no record.
func (rs *RsvpService) Summarize(ctx context.Context, eventID string, actor helpers.Identity) (*models.RsvpSummary, error) {
	if eventID == "" {
		return nil, models.Invalid("eventId", "required")
	}
	if _, err := rs.eventRepo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	records, err := rs.rsvpRepo.ListRsvps(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summary := &models.RsvpSummary{EventID: eventID, Mine: "none"}
	for _, record := range records {
		switch record.Status {
		case models.RsvpGoing:
			summary.Going++
		case models.RsvpMaybe:
			summary.Maybe++
		case models.RsvpDeclined:
			summary.Declined++
		}
		if record.PersonID == actor.UID {
			summary.Mine = string(record.Status)
		}
	}
	return summary, nil
}

// ListAttendees returns the event's attendees, optionally limited to one
// status bucket, with names resolved from the directory where available.
func (rs *RsvpService) ListAttendees(ctx context.Context, eventID string, bucket models.RsvpStatus) ([]*Attendee, error) {
	if eventID == "" {
		return nil, models.Invalid("eventId", "required")
	}
	if bucket != "" && !models.ValidRsvpStatus(bucket) {
		return nil, models.Invalid("status", "must be going, maybe or declined")
	}
	if _, err := rs.eventRepo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	records, err := rs.rsvpRepo.ListRsvps(ctx, eventID)
	if err != nil {
		return nil, err
	}

	attendees := []*Attendee{}
	for _, record := range records {
		if bucket != "" && record.Status != bucket {
			continue
		}
		attendee := &Attendee{
			UID:    record.PersonID,
			Status: record.Status,
			RsvpAt: record.RsvpAt,
		}
		doc, err := rs.householdRepo.GetHousehold(ctx, record.PersonID)
		if err == nil {
			h := models.NormalizeHousehold(record.PersonID, doc)
			attendee.LastName = h.LastName
			attendee.Neighborhood = h.Neighborhood
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		attendees = append(attendees, attendee)
	}
	return attendees, nil
}
