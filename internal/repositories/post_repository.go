package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPostStore implements PostStore on a MongoDB collection. Subscriptions
// follow a change stream and re-read the full matching set on every change.
type MongoPostStore struct {
	collection *mongo.Collection
}

// NewMongoPostStore creates a new MongoPostStore
func NewMongoPostStore(db *mongo.Database) *MongoPostStore {
	return &MongoPostStore{collection: db.Collection("posts")}
}

// idFilter matches ObjectID keys for hex ids and string keys otherwise
func idFilter(id string) bson.M {
	if objID, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{objID, id}}}
	}
	return bson.M{"_id": id}
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, ErrPostNotFound
	}

	var doc bson.M
	err := r.collection.FindOne(ctx, idFilter(id)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post := models.PostFromDocument("", doc)
	return &post, nil
}

// FindPosts retrieves every post matching filter, newest first
func (r *MongoPostStore) FindPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	if len(filter.AuthorIDs) == 0 {
		return []models.Post{}, nil
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"authorId": bson.M{"$in": filter.AuthorIDs}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, models.PostFromDocument("", doc))
	}
	return posts, nil
}

// Subscribe opens a change stream on the posts collection. The current
// matching set is delivered first, then again after every relevant change.
func (r *MongoPostStore) Subscribe(ctx context.Context, filter models.PostFilter, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	if len(filter.AuthorIDs) == 0 {
		go onSnapshot([]models.Post{})
		return sub, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"fullDocument.authorId": bson.M{"$in": filter.AuthorIDs}},
			bson.M{"operationType": "delete"},
		}}}},
	}
	streamOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, streamOptions)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open post change stream: %w", err)
	}

	log := logger.Log.WithFields(logrus.Fields{"store": "mongo", "authors": len(filter.AuthorIDs)})
	go func() {
		defer stream.Close(context.Background())

		emit := func() bool {
			posts, err := r.FindPosts(ctx, filter)
			if err != nil {
				if ctx.Err() == nil {
					onError(err)
				}
				return false
			}
			onSnapshot(posts)
			return true
		}

		if !emit() {
			return
		}
		for stream.Next(ctx) {
			// Collapse events that are already queued into one re-read
			for stream.RemainingBatchLength() > 0 && stream.Next(ctx) {
			}
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			onError(err)
			return
		}
		log.Debug("Post change stream closed")
	}()

	return sub, nil
}
