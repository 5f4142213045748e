// Package store implements the durable membership shadow on MongoDB.
// Document shape: {roomId, members: [string], created: timestamp}.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/audiospace/audiospace-backend/internal/domain"
)

const collection = "rooms"

type record struct {
	RoomID  domain.RoomID `bson:"roomId"`
	Members []string      `bson:"members"`
	Created time.Time     `bson:"created"`
}

type Mongo struct {
	client *mongo.Client
	rooms  *mongo.Collection
}

// Connect dials MongoDB and pings the primary so a dead store is noticed at
// startup rather than on the first join.
func Connect(ctx context.Context, uri, db string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("module", "store.mongo").Str("db", db).Msg("connected to MongoDB")
	return &Mongo{
		client: client,
		rooms:  client.Database(db).Collection(collection),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AddMember upserts the room record, adding member to its set and stamping
// the creation time on first insert.
func (m *Mongo) AddMember(ctx context.Context, id domain.RoomID, member string) error {
	_, err := m.rooms.UpdateOne(ctx,
		bson.M{"roomId": id},
		bson.M{
			"$addToSet":    bson.M{"members": member},
			"$setOnInsert": bson.M{"created": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// RemoveMember pulls member from the room record and deletes the record
// once its member list is empty.
func (m *Mongo) RemoveMember(ctx context.Context, id domain.RoomID, member string) error {
	if _, err := m.rooms.UpdateOne(ctx,
		bson.M{"roomId": id},
		bson.M{"$pull": bson.M{"members": member}},
	); err != nil {
		return err
	}

	var rec record
	err := m.rooms.FindOne(ctx, bson.M{"roomId": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(rec.Members) == 0 {
		_, err = m.rooms.DeleteOne(ctx, bson.M{"roomId": id})
	}
	return err
}

// Members returns the recorded member list, empty when no record exists.
func (m *Mongo) Members(ctx context.Context, id domain.RoomID) ([]string, error) {
	var rec record
	err := m.rooms.FindOne(ctx, bson.M{"roomId": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Members, nil
}

// RoomsOf lists the ids of every room member has a durable record in.
func (m *Mongo) RoomsOf(ctx context.Context, member string) ([]domain.RoomID, error) {
	cur, err := m.rooms.Find(ctx, bson.M{"members": member})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []domain.RoomID
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		ids = append(ids, rec.RoomID)
	}
	return ids, cur.Err()
}
