package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/store"
)

const (
	snapshotCollection = "snapshots"
	markerCollection   = "markers"
)

// MongoStore keeps snapshots and markers in two MongoDB collections.
type MongoStore struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	snapshots   *mongo.Collection
	markers     *mongo.Collection
}

// NewMongoStore creates a new MongoDB-backed store. Call Connect before use.
func NewMongoStore(connectionString, databaseName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	database := mongoClient.Database(databaseName)
	return &MongoStore{
		mongoClient: mongoClient,
		database:    database,
		snapshots:   database.Collection(snapshotCollection),
		markers:     database.Collection(markerCollection),
	}, nil
}

// Connect verifies the connection and makes sure the unique indexes exist.
func (s *MongoStore) Connect(ctx context.Context) error {
	if s.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	if err := s.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	_, err := s.snapshots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create snapshot index: %w", err)
	}
	_, err = s.markers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create marker index: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *MongoStore) Close(ctx context.Context) error {
	if s.mongoClient == nil {
		return nil
	}
	return s.mongoClient.Disconnect(ctx)
}

func (s *MongoStore) GetSnapshot(ctx context.Context, slug, day string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.snapshots.FindOne(ctx, bson.M{"slug": slug, "day": day}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Snapshot{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}
	snap.FetchedAt = snap.FetchedAt.UTC()
	return snap, nil
}

// PutSnapshot upserts on (slug, day).
func (s *MongoStore) PutSnapshot(ctx context.Context, snap domain.Snapshot) error {
	snap.FetchedAt = snap.FetchedAt.UTC()
	filter := bson.M{"slug": snap.Slug, "day": snap.Day}
	update := bson.M{"$set": snap}
	opts := options.Update().SetUpsert(true)

	if _, err := s.snapshots.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) GetMarker(ctx context.Context, kind domain.MarkerKind, slug string) (domain.Marker, error) {
	var m domain.Marker
	err := s.markers.FindOne(ctx, bson.M{"kind": kind, "slug": slug}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Marker{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Marker{}, fmt.Errorf("find marker: %w", err)
	}
	m.FirstSeen = m.FirstSeen.UTC()
	return m, nil
}

// InsertMarkerOnce relies on $setOnInsert so an existing first-seen is never
// overwritten, then reads back whatever is stored.
func (s *MongoStore) InsertMarkerOnce(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	m.FirstSeen = m.FirstSeen.UTC()
	filter := bson.M{"kind": m.Kind, "slug": m.Slug}
	update := bson.M{"$setOnInsert": m}
	opts := options.Update().SetUpsert(true)

	if _, err := s.markers.UpdateOne(ctx, filter, update, opts); err != nil {
		return domain.Marker{}, fmt.Errorf("insert marker: %w", err)
	}
	return s.GetMarker(ctx, m.Kind, m.Slug)
}

func (s *MongoStore) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}, {Key: "slug", Value: 1}})
	cursor, err := s.snapshots.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Snapshot
	for cursor.Next(ctx) {
		var snap domain.Snapshot
		if err := cursor.Decode(&snap); err != nil {
			continue // Skip invalid documents
		}
		snap.FetchedAt = snap.FetchedAt.UTC()
		out = append(out, snap)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Markers(ctx context.Context) ([]domain.Marker, error) {
	opts := options.Find().SetSort(bson.D{{Key: "kind", Value: 1}, {Key: "slug", Value: 1}})
	cursor, err := s.markers.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query markers: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Marker
	for cursor.Next(ctx) {
		var m domain.Marker
		if err := cursor.Decode(&m); err != nil {
			continue // Skip invalid documents
		}
		m.FirstSeen = m.FirstSeen.UTC()
		out = append(out, m)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}
