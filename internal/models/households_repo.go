package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const HouseholdsColName = "households"

type HouseholdRepo interface {
	GetHousehold(ctx context.Context, id string) (map[string]any, error)
	// UpsertHousehold merges the given fields into the document keyed by id
	// and returns the stored result.
	UpsertHousehold(ctx context.Context, id string, doc map[string]any) (map[string]any, error)
	ListHouseholds(ctx context.Context) ([]RawHousehold, error)
}

// toPlain rewrites driver container types (primitive.D/M/A, DateTime) into
// plain maps, slices and time.Time so the normalization layer can stay
// driver-agnostic.
func toPlain(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = toPlain(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = toPlain(val)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = toPlain(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

func plainDoc(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = toPlain(v)
	}
	return out
}

func (mdb *MongodbRepo) GetHousehold(ctx context.Context, id string) (map[string]any, error) {
	col, err := mdb.GetCollection(ctx, DbName, HouseholdsColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	var doc bson.M
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	return plainDoc(doc), nil
}

func (mdb *MongodbRepo) UpsertHousehold(ctx context.Context, id string, doc map[string]any) (map[string]any, error) {
	col, err := mdb.GetCollection(ctx, DbName, HouseholdsColName)
	if err != nil {
		return nil, Unavailable(err)
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	for k, v := range doc {
		if k == "createdAt" || k == "_id" {
			continue
		}
		set[k] = v
	}
	update := bson.M{"$set": set}
	if v, ok := doc["createdAt"]; ok && v != nil {
		set["createdAt"] = v
	} else {
		update["$setOnInsert"] = bson.M{"createdAt": now}
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved bson.M
	if err := col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&saved); err != nil {
		return nil, Unavailable(err)
	}
	return plainDoc(saved), nil
}

func (mdb *MongodbRepo) ListHouseholds(ctx context.Context) ([]RawHousehold, error) {
	col, err := mdb.GetCollection(ctx, DbName, HouseholdsColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	cur, err := col.Find(ctx, bson.M{})
	if err != nil {
		return nil, Unavailable(err)
	}
	defer cur.Close(ctx)

	var rows []RawHousehold
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, Unavailable(err)
		}
		id, _ := doc["_id"].(string)
		rows = append(rows, RawHousehold{ID: id, Doc: plainDoc(doc)})
	}
	if err := cur.Err(); err != nil {
		return nil, Unavailable(err)
	}
	return rows, nil
}
