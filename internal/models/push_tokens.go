package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const PushTokensColName = "push_tokens"

// PushTokens holds one person's registered device tokens, with the platform
// recorded per token.
type PushTokens struct {
	UID       string            `bson:"_id" json:"uid"`
	Tokens    []string          `bson:"tokens" json:"tokens"`
	Platforms map[string]string `bson:"platforms" json:"platforms"`
	CreatedAt time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updatedAt"`
}

type PushRepo interface {
	GetPushTokens(ctx context.Context, uid string) (*PushTokens, error)
	SavePushTokens(ctx context.Context, record *PushTokens) error
}

func (mdb *MongodbRepo) GetPushTokens(ctx context.Context, uid string) (*PushTokens, error) {
	col, err := mdb.GetCollection(ctx, DbName, PushTokensColName)
	if err != nil {
		return nil, Unavailable(err)
	}
	var record PushTokens
	err = col.FindOne(ctx, bson.M{"_id": uid}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Unavailable(err)
	}
	return &record, nil
}

func (mdb *MongodbRepo) SavePushTokens(ctx context.Context, record *PushTokens) error {
	col, err := mdb.GetCollection(ctx, DbName, PushTokensColName)
	if err != nil {
		return Unavailable(err)
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := col.ReplaceOne(ctx, bson.M{"_id": record.UID}, record, opts); err != nil {
		return Unavailable(err)
	}
	return nil
}
