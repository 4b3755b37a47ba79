package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProfilesColName = "users"

// Profile is the per-person document carrying the favorites set. Other
// profile fields written by clients ride along untouched.
type Profile struct {
	UID       string    `bson:"_id" json:"uid"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Favorites []string  `bson:"favorites" json:"favorites"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

type ProfileRepo interface {
	GetFavorites(ctx context.Context, uid string) ([]string, error)
	AddFavorite(ctx context.Context, uid, householdID string) ([]string, error)
	RemoveFavorite(ctx context.Context, uid, householdID string) ([]string, error)
}

func (mdb *MongodbRepo) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	col, err := mdb.GetCollection(ctx, DbName, ProfilesColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	var profile Profile
	err = col.FindOne(ctx, bson.M{"_id": uid}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	if profile.Favorites == nil {
		return []string{}, nil
	}
	return profile.Favorites, nil
}

func (mdb *MongodbRepo) AddFavorite(ctx context.Context, uid, householdID string) ([]string, error) {
	col, err := mdb.GetCollection(ctx, DbName, ProfilesColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	now := time.Now().UTC()

	update := bson.M{
		"$addToSet": bson.M{"favorites": householdID},
		"$set":      bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var profile Profile
	if err := col.FindOneAndUpdate(ctx, bson.M{"_id": uid}, update, opts).Decode(&profile); err != nil {
		return nil, Unavailable(err)
	}
	return profile.Favorites, nil
}

func (mdb *MongodbRepo) RemoveFavorite(ctx context.Context, uid, householdID string) ([]string, error) {
	col, err := mdb.GetCollection(ctx, DbName, ProfilesColName)
	if err != nil {
		return nil, Unavailable(err)
	}

	update := bson.M{
		"$pull": bson.M{"favorites": householdID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var profile Profile
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": uid}, update, opts).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Removing from a missing profile is a success no-op.
		return []string{}, nil
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	if profile.Favorites == nil {
		return []string{}, nil
	}
	return profile.Favorites, nil
}
