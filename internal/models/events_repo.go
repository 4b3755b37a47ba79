package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const EventsColName = "events"

type EventRepo interface {
	InsertEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ReplaceEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventFilter, now time.Time, after *EventKey, limit int) ([]*Event, bool, error)

	// ReserveGoing atomically increments the event's going counter, refusing
	// when the event is gone (ErrNotFound), canceled (ErrConflict) or full
	// (ErrCapacityExceeded). ReleaseGoing undoes one reservation.
	ReserveGoing(ctx context.Context, id string) error
	ReleaseGoing(ctx context.Context, id string) error
}

func (mdb *MongodbRepo) InsertEvent(ctx context.Context, event *Event) error {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return Unavailable(err)
	}
	if _, err := col.InsertOne(ctx, event); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (mdb *MongodbRepo) GetEvent(ctx context.Context, id string) (*Event, error) {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	var event Event
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	return &event, nil
}

// ReplaceEvent writes back every document field except going_count, which is
// owned by Reserve/ReleaseGoing and must not be clobbered by a stale read.
func (mdb *MongodbRepo) ReplaceEvent(ctx context.Context, event *Event) error {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return Unavailable(err)
	}

	set := bson.M{
		"kind":          event.Kind,
		"title":         event.Title,
		"start_at":      event.StartAt,
		"neighborhoods": event.Neighborhoods,
		"category":      event.Category,
		"visibility":    event.Visibility,
		"host_id":       event.HostID,
		"status":        event.Status,
		"created_at":    event.CreatedAt,
		"updated_at":    event.UpdatedAt,
	}
	unset := bson.M{}
	setOrUnset := func(key string, present bool, value any) {
		if present {
			set[key] = value
		} else {
			unset[key] = ""
		}
	}
	setOrUnset("details", event.Details != "", event.Details)
	setOrUnset("location", event.Location != "", event.Location)
	setOrUnset("end_at", event.EndAt != nil, event.EndAt)
	setOrUnset("expires_at", event.ExpiresAt != nil, event.ExpiresAt)
	setOrUnset("capacity", event.Capacity != nil, event.Capacity)
	setOrUnset("shareable_link", event.ShareableLink != "", event.ShareableLink)
	setOrUnset("canceled_at", event.CanceledAt != nil, event.CanceledAt)
	setOrUnset("canceled_by", event.CanceledBy != "", event.CanceledBy)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": event.ID}, update)
	if err != nil {
		return Unavailable(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id string) error {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return Unavailable(err)
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return Unavailable(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// notExpired matches events whose expiresAt is absent or still ahead of now.
func notExpired(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$gt": now}},
		bson.M{"expires_at": bson.M{"$exists": false}},
	}}
}

// happeningNow matches startAt <= now < coalesce(endAt, expiresAt).
func happeningNow(now time.Time) bson.M {
	return bson.M{
		"start_at": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"end_at": bson.M{"$gt": now}},
			bson.M{"end_at": bson.M{"$exists": false}, "expires_at": bson.M{"$gt": now}},
		},
	}
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, filter EventFilter, now time.Time, after *EventKey, limit int) ([]*Event, bool, error) {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return nil, false, Unavailable(err)
	}

	and := bson.A{
		bson.M{"status": EventActive},
		notExpired(now),
	}
	switch filter.Window {
	case "now":
		and = append(and, happeningNow(now))
	case "future":
		and = append(and, bson.M{"start_at": bson.M{"$gt": now}})
	default:
		and = append(and, bson.M{"$or": bson.A{
			happeningNow(now),
			bson.M{"start_at": bson.M{"$gt": now}},
		}})
	}
	if filter.Neighborhood != "" {
		and = append(and, bson.M{"neighborhoods": filter.Neighborhood})
	}
	if filter.Category != "" {
		and = append(and, bson.M{"category": filter.Category})
	}
	if after != nil {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"start_at": bson.M{"$gt": after.StartAt}},
			bson.M{"start_at": after.StartAt, "_id": bson.M{"$gt": after.ID}},
		}})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit) + 1)

	cur, err := col.Find(ctx, bson.M{"$and": and}, opts)
	if err != nil {
		return nil, false, Unavailable(err)
	}
	defer cur.Close(ctx)

	var events []*Event
	for cur.Next(ctx) {
		var event Event
		if err := cur.Decode(&event); err != nil {
			return nil, false, Unavailable(err)
		}
		events = append(events, &event)
	}
	if err := cur.Err(); err != nil {
		return nil, false, Unavailable(err)
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}
	return events, hasMore, nil
}

func (mdb *MongodbRepo) ReserveGoing(ctx context.Context, id string) error {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return Unavailable(err)
	}

	// Single-document conditional update: admission only while the counter is
	// below capacity (or capacity is unset). Mongo applies this atomically,
	// which is what keeps concurrent going-RSVPs from overshooting.
	filter := bson.M{
		"_id":    id,
		"status": EventActive,
		"$or": bson.A{
			bson.M{"capacity": bson.M{"$exists": false}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$going_count", "$capacity"}}},
		},
	}
	res, err := col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"going_count": 1}})
	if err != nil {
		return Unavailable(err)
	}
	if res.ModifiedCount > 0 {
		return nil
	}

	// Rejected: figure out which rule tripped.
	event, err := mdb.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.Status == EventCanceled {
		return ErrConflict
	}
	return ErrCapacityExceeded
}

func (mdb *MongodbRepo) ReleaseGoing(ctx context.Context, id string) error {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return Unavailable(err)
	}
	filter := bson.M{"_id": id, "going_count": bson.M{"$gt": 0}}
	if _, err := col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"going_count": -1}}); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (mdb *MongodbRepo) ensureEventIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, DbName, EventsColName)
	if err != nil {
		return err
	}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("start_at_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("status_expires_idx"),
		},
		{
			Keys:    bson.D{{Key: "neighborhoods", Value: 1}},
			Options: options.Index().SetName("neighborhoods_idx"),
		},
	}
	_, err = col.Indexes().CreateMany(ctx, indexes)
	return err
}
