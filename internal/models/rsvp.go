package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RsvpColName = "event_attendees"

type RsvpStatus string

const (
	RsvpGoing    RsvpStatus = "going"
	RsvpMaybe    RsvpStatus = "maybe"
	RsvpDeclined RsvpStatus = "declined"
)

func ValidRsvpStatus(s RsvpStatus) bool {
	switch s {
	case RsvpGoing, RsvpMaybe, RsvpDeclined:
		return true
	}
	return false
}

// Rsvp is one person's attendance record for one event. The document id is
// the composite eventId_personId, so a person can never hold two records for
// the same event no matter how writes interleave.
type Rsvp struct {
	ID       string     `bson:"_id" json:"id"`
	EventID  string     `bson:"event_id" json:"eventId"`
	PersonID string     `bson:"uid" json:"uid"`
	Status   RsvpStatus `bson:"status" json:"status"`
	RsvpAt   time.Time  `bson:"rsvp_at" json:"rsvpAt"`
}

func RsvpID(eventID, personID string) string {
	return eventID + "_" + personID
}

type RsvpSummary struct {
	EventID  string `json:"eventId"`
	Going    int    `json:"going"`
	Maybe    int    `json:"maybe"`
	Declined int    `json:"declined"`
	Mine     string `json:"mine"` // "going", "maybe", "declined" or "none"
}

type RsvpRepo interface {
	GetRsvp(ctx context.Context, eventID, personID string) (*Rsvp, error)
	PutRsvp(ctx context.Context, record *Rsvp) error
	DeleteRsvp(ctx context.Context, eventID, personID string) error
	ListRsvps(ctx context.Context, eventID string) ([]*Rsvp, error)
	DeleteEventRsvps(ctx context.Context, eventID string) error
}

func (mdb *MongodbRepo) GetRsvp(ctx context.Context, eventID, personID string) (*Rsvp, error) {
	col, err := mdb.GetCollection(ctx, DbName, RsvpColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	var record Rsvp
	err = col.FindOne(ctx, bson.M{"_id": RsvpID(eventID, personID)}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	return &record, nil
}

func (mdb *MongodbRepo) PutRsvp(ctx context.Context, record *Rsvp) error {
	col, err := mdb.GetCollection(ctx, DbName, RsvpColName)
	if err != nil {
		return Unavailable(err)
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := col.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (mdb *MongodbRepo) DeleteRsvp(ctx context.Context, eventID, personID string) error {
	col, err := mdb.GetCollection(ctx, DbName, RsvpColName)
	if err != nil {
		return Unavailable(err)
	}
	// Deleting an absent record is a success no-op.
	if _, err := col.DeleteOne(ctx, bson.M{"_id": RsvpID(eventID, personID)}); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (mdb *MongodbRepo) ListRsvps(ctx context.Context, eventID string) ([]*Rsvp, error) {
	col, err := mdb.GetCollection(ctx, DbName, RsvpColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	cur, err := col.Find(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return nil, Unavailable(err)
	}
	defer cur.Close(ctx)

	var records []*Rsvp
	for cur.Next(ctx) {
		var record Rsvp
		if err := cur.Decode(&record); err != nil {
			return nil, Unavailable(err)
		}
		records = append(records, &record)
	}
	if err := cur.Err(); err != nil {
		return nil, Unavailable(err)
	}
	return records, nil
}

func (mdb *MongodbRepo) DeleteEventRsvps(ctx context.Context, eventID string) error {
	col, err := mdb.GetCollection(ctx, DbName, RsvpColName)
	if err != nil {
		return Unavailable(err)
	}
	if _, err := col.DeleteMany(ctx, bson.M{"event_id": eventID}); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (mdb *MongodbRepo) ensureRsvpIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, DbName, RsvpColName)
	if err != nil {
		return err
	}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetName("event_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("event_status_idx"),
		},
	}
	_, err = col.Indexes().CreateMany(ctx, indexes)
	return err
}
