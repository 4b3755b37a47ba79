package models

import (
	"time"
)

type EventKind string

const (
	KindNow    EventKind = "now"
	KindFuture EventKind = "future"
)

type EventStatus string

const (
	EventActive   EventStatus = "active"
	EventCanceled EventStatus = "canceled"
)

type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityLinkOnly Visibility = "link_only"
	VisibilityPublic   Visibility = "public"
)

// DefaultCategory is used when a client omits the category.
const DefaultCategory = "other"

// NowEventTTL is how long a "now" event stays visible when the host gives no
// explicit expiry.
const NowEventTTL = 24 * time.Hour

type Event struct {
	ID            string      `bson:"_id" json:"id"`
	Kind          EventKind   `bson:"kind" json:"type"`
	Title         string      `bson:"title" json:"title"`
	Details       string      `bson:"details,omitempty" json:"details,omitempty"`
	Location      string      `bson:"location,omitempty" json:"location,omitempty"`
	StartAt       time.Time   `bson:"start_at" json:"startAt"`
	EndAt         *time.Time  `bson:"end_at,omitempty" json:"endAt,omitempty"`
	ExpiresAt     *time.Time  `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	Capacity      *int        `bson:"capacity,omitempty" json:"capacity,omitempty"`
	Neighborhoods []string    `bson:"neighborhoods" json:"neighborhoods"`
	Category      string      `bson:"category" json:"category"`
	Visibility    Visibility  `bson:"visibility" json:"visibility"`
	ShareableLink string      `bson:"shareable_link,omitempty" json:"shareableLink,omitempty"`
	HostID        string      `bson:"host_id" json:"hostId"`
	Status        EventStatus `bson:"status" json:"status"`
	CanceledAt    *time.Time  `bson:"canceled_at,omitempty" json:"canceledAt,omitempty"`
	CanceledBy    string      `bson:"canceled_by,omitempty" json:"canceledBy,omitempty"`
	GoingCount    int         `bson:"going_count" json:"goingCount"`
	CreatedAt     time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updatedAt"`
}

// EndBoundary is the instant an event stops "happening now": endAt when set,
// otherwise expiresAt.
func (e *Event) EndBoundary() *time.Time {
	if e.EndAt != nil {
		return e.EndAt
	}
	return e.ExpiresAt
}

func (e *Event) ExpiredAt(t time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(t)
}

func (e *Event) HappeningAt(t time.Time) bool {
	end := e.EndBoundary()
	if end == nil {
		return false
	}
	return !e.StartAt.After(t) && t.Before(*end)
}

func (e *Event) FutureAt(t time.Time) bool {
	return e.StartAt.After(t)
}

// PublicView is the unauthenticated projection of a shared event: safe fields
// only, no host identity or neighborhood targeting.
type PublicEventView struct {
	ID         string      `json:"id"`
	Kind       EventKind   `json:"type"`
	Title      string      `json:"title"`
	Details    string      `json:"details,omitempty"`
	Location   string      `json:"location,omitempty"`
	Visibility Visibility  `json:"visibility"`
	Category   string      `json:"category"`
	Capacity   *int        `json:"capacity,omitempty"`
	Status     EventStatus `json:"status"`
	StartAt    time.Time   `json:"startAt"`
	EndAt      *time.Time  `json:"endAt,omitempty"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (e *Event) PublicView() *PublicEventView {
	return &PublicEventView{
		ID:         e.ID,
		Kind:       e.Kind,
		Title:      e.Title,
		Details:    e.Details,
		Location:   e.Location,
		Visibility: e.Visibility,
		Category:   e.Category,
		Capacity:   e.Capacity,
		Status:     e.Status,
		StartAt:    e.StartAt,
		EndAt:      e.EndAt,
		ExpiresAt:  e.ExpiresAt,
		CreatedAt:  e.CreatedAt,
	}
}

type EventInput struct {
	Kind          EventKind  `json:"type" validate:"required,oneof=now future"`
	Title         string     `json:"title" validate:"required"`
	Details       string     `json:"details"`
	Location      string     `json:"location"`
	StartAt       *time.Time `json:"startAt"`
	EndAt         *time.Time `json:"endAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	Capacity      *int       `json:"capacity" validate:"omitempty,min=1"`
	Neighborhoods []string   `json:"neighborhoods"`
	Category      string     `json:"category" validate:"omitempty,oneof=neighborhood playdate help pet food celebrations sports other"`
	Visibility    Visibility `json:"visibility" validate:"omitempty,oneof=private link_only public"`
}

// EventPatch carries partial updates; nil fields keep their prior values.
type EventPatch struct {
	Title         *string     `json:"title" validate:"omitempty,min=1"`
	Details       *string     `json:"details"`
	Location      *string     `json:"location"`
	StartAt       *time.Time  `json:"startAt"`
	EndAt         *time.Time  `json:"endAt"`
	ExpiresAt     *time.Time  `json:"expiresAt"`
	Capacity      *int        `json:"capacity" validate:"omitempty,min=1"`
	Neighborhoods *[]string   `json:"neighborhoods"`
	Category      *string     `json:"category" validate:"omitempty,oneof=neighborhood playdate help pet food celebrations sports other"`
	Visibility    *Visibility `json:"visibility" validate:"omitempty,oneof=private link_only public"`
}

// EventFilter narrows listEvents. Window is "", "now" or "future".
type EventFilter struct {
	Window       string
	Neighborhood string
	Category     string
}

// Signature is the canonical string bound into pagination tokens so a cursor
// from one filter combination cannot be replayed under another.
func (f EventFilter) Signature() string {
	return "events|" + f.Window + "|" + f.Neighborhood + "|" + f.Category
}

// EventKey is the keyset-pagination anchor for event listings.
type EventKey struct {
	StartAt time.Time
	ID      string
}
