package models

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements every repo interface with in-memory storage. Useful
// for tests and local development without a MongoDB instance; the invariants
// (composite RSVP keys, conditional going-count admission) hold under a
// single mutex.
type MemoryRepo struct {
	mu         sync.Mutex
	events     map[string]*Event
	rsvps      map[string]*Rsvp
	households map[string]map[string]any
	favorites  map[string]map[string]struct{}
	push       map[string]*PushTokens
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		events:     make(map[string]*Event),
		rsvps:      make(map[string]*Rsvp),
		households: make(map[string]map[string]any),
		favorites:  make(map[string]map[string]struct{}),
		push:       make(map[string]*PushTokens),
	}
}

func cloneEvent(e *Event) *Event {
	c := *e
	return &c
}

func (r *MemoryRepo) InsertEvent(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[event.ID]; exists {
		return ErrConflict
	}
	r.events[event.ID] = cloneEvent(event)
	return nil
}

func (r *MemoryRepo) GetEvent(ctx context.Context, id string) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEvent(event), nil
}

func (r *MemoryRepo) ReplaceEvent(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.events[event.ID]
	if !ok {
		return ErrNotFound
	}
	replacement := cloneEvent(event)
	// The counter is owned by Reserve/ReleaseGoing, not by document writes.
	replacement.GoingCount = current.GoingCount
	r.events[event.ID] = replacement
	return nil
}

func (r *MemoryRepo) DeleteEvent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *MemoryRepo) ListEvents(ctx context.Context, filter EventFilter, now time.Time, after *EventKey, limit int) ([]*Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Event
	for _, event := range r.events {
		if event.Status != EventActive || event.ExpiredAt(now) {
			continue
		}
		switch filter.Window {
		case "now":
			if !event.HappeningAt(now) {
				continue
			}
		case "future":
			if !event.FutureAt(now) {
				continue
			}
		default:
			if !event.HappeningAt(now) && !event.FutureAt(now) {
				continue
			}
		}
		if filter.Neighborhood != "" && !containsString(event.Neighborhoods, filter.Neighborhood) {
			continue
		}
		if filter.Category != "" && event.Category != filter.Category {
			continue
		}
		matched = append(matched, cloneEvent(event))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartAt.Equal(matched[j].StartAt) {
			return matched[i].StartAt.Before(matched[j].StartAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if after != nil {
		idx := 0
		for idx < len(matched) {
			e := matched[idx]
			if e.StartAt.After(after.StartAt) ||
				(e.StartAt.Equal(after.StartAt) && e.ID > after.ID) {
				break
			}
			idx++
		}
		matched = matched[idx:]
	}

	hasMore := len(matched) > limit
	if hasMore {
		matched = matched[:limit]
	}
	return matched, hasMore, nil
}

func (r *MemoryRepo) ReserveGoing(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return ErrNotFound
	}
	if event.Status == EventCanceled {
		return ErrConflict
	}
	if event.Capacity != nil && event.GoingCount >= *event.Capacity {
		return ErrCapacityExceeded
	}
	event.GoingCount++
	return nil
}

func (r *MemoryRepo) ReleaseGoing(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event, ok := r.events[id]; ok && event.GoingCount > 0 {
		event.GoingCount--
	}
	return nil
}

func (r *MemoryRepo) GetRsvp(ctx context.Context, eventID, personID string) (*Rsvp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.rsvps[RsvpID(eventID, personID)]
	if !ok {
		return nil, ErrNotFound
	}
	c := *record
	return &c, nil
}

func (r *MemoryRepo) PutRsvp(ctx context.Context, record *Rsvp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *record
	r.rsvps[record.ID] = &c
	return nil
}

func (r *MemoryRepo) DeleteRsvp(ctx context.Context, eventID, personID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rsvps, RsvpID(eventID, personID))
	return nil
}

func (r *MemoryRepo) ListRsvps(ctx context.Context, eventID string) ([]*Rsvp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []*Rsvp
	for _, record := range r.rsvps {
		if record.EventID != eventID {
			continue
		}
		c := *record
		records = append(records, &c)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (r *MemoryRepo) DeleteEventRsvps(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, record := range r.rsvps {
		if record.EventID == eventID {
			delete(r.rsvps, id)
		}
	}
	return nil
}

func (r *MemoryRepo) GetHousehold(ctx context.Context, id string) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.households[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (r *MemoryRepo) UpsertHousehold(ctx context.Context, id string, doc map[string]any) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	current, ok := r.households[id]
	if !ok {
		current = map[string]any{"createdAt": now}
	}
	merged := cloneDoc(current)
	for k, v := range doc {
		merged[k] = v
	}
	if merged["createdAt"] == nil {
		merged["createdAt"] = now
	}
	merged["updatedAt"] = now
	r.households[id] = merged
	return cloneDoc(merged), nil
}

func (r *MemoryRepo) ListHouseholds(ctx context.Context) ([]RawHousehold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []RawHousehold
	for id, doc := range r.households {
		rows = append(rows, RawHousehold{ID: id, Doc: cloneDoc(doc)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r *MemoryRepo) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedFavorites(r.favorites[uid]), nil
}

func (r *MemoryRepo) AddFavorite(ctx context.Context, uid, householdID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.favorites[uid]
	if !ok {
		set = make(map[string]struct{})
		r.favorites[uid] = set
	}
	set[householdID] = struct{}{}
	return sortedFavorites(set), nil
}

func (r *MemoryRepo) RemoveFavorite(ctx context.Context, uid, householdID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.favorites[uid]; ok {
		delete(set, householdID)
	}
	return sortedFavorites(r.favorites[uid]), nil
}

func (r *MemoryRepo) GetPushTokens(ctx context.Context, uid string) (*PushTokens, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.push[uid]
	if !ok {
		return nil, ErrNotFound
	}
	c := *record
	c.Tokens = append([]string(nil), record.Tokens...)
	c.Platforms = clonePlatforms(record.Platforms)
	return &c, nil
}

func (r *MemoryRepo) SavePushTokens(ctx context.Context, record *PushTokens) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *record
	c.Tokens = append([]string(nil), record.Tokens...)
	c.Platforms = clonePlatforms(record.Platforms)
	r.push[record.UID] = &c
	return nil
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func clonePlatforms(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedFavorites(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
