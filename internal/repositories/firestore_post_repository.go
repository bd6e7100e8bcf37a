package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreInLimit is the maximum number of values of an "in" filter
const firestoreInLimit = 30

// FirestorePostStore implements PostStore on a Firestore collection using
// realtime query snapshots.
type FirestorePostStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestorePostStore creates a new FirestorePostStore
func NewFirestorePostStore(client *firestore.Client) *FirestorePostStore {
	return &FirestorePostStore{client: client, collection: "posts"}
}

// GetPostByID retrieves a post document by ID
func (r *FirestorePostStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, ErrPostNotFound
	}
	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post := models.PostFromDocument(doc.Ref.ID, doc.Data())
	return &post, nil
}

// Subscribe listens to the posts of the filter's authors. Author sets larger
// than one "in" query allows are split across several listeners whose latest
// results are merged; nothing is delivered until every listener has reported.
func (r *FirestorePostStore) Subscribe(ctx context.Context, filter models.PostFilter, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	if len(filter.AuthorIDs) == 0 {
		go onSnapshot([]models.Post{})
		return sub, nil
	}

	chunks := chunkIDs(filter.AuthorIDs, firestoreInLimit)
	m := &snapshotMerger{
		latest:     make([][]models.Post, len(chunks)),
		ready:      make([]bool, len(chunks)),
		onSnapshot: onSnapshot,
	}
	log := logger.Log.WithFields(logrus.Fields{"store": "firestore", "authors": len(filter.AuthorIDs), "listeners": len(chunks)})

	var failOnce sync.Once
	fail := func(err error) {
		failOnce.Do(func() {
			cancel()
			onError(err)
		})
	}

	for i, chunk := range chunks {
		ids := make([]interface{}, len(chunk))
		for j, id := range chunk {
			ids[j] = id
		}
		it := r.client.Collection(r.collection).Where("authorId", "in", ids).Snapshots(ctx)

		go func(i int, it *firestore.QuerySnapshotIterator) {
			defer it.Stop()
			for {
				snap, err := it.Next()
				if err != nil {
					if errors.Is(err, iterator.Done) || ctx.Err() != nil {
						log.Debug("Post listener stopped")
						return
					}
					fail(fmt.Errorf("post listener: %w", err))
					return
				}
				docs, err := snap.Documents.GetAll()
				if err != nil {
					if ctx.Err() == nil {
						fail(fmt.Errorf("read post snapshot: %w", err))
					}
					return
				}
				posts := make([]models.Post, 0, len(docs))
				for _, doc := range docs {
					posts = append(posts, models.PostFromDocument(doc.Ref.ID, doc.Data()))
				}
				if ctx.Err() != nil {
					return
				}
				m.update(i, posts)
			}
		}(i, it)
	}

	return sub, nil
}

// snapshotMerger combines the latest results of several listeners into one
// snapshot and serializes delivery.
type snapshotMerger struct {
	mu         sync.Mutex
	latest     [][]models.Post
	ready      []bool
	onSnapshot SnapshotFunc
}

func (m *snapshotMerger) update(i int, posts []models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest[i] = posts
	m.ready[i] = true
	for _, ok := range m.ready {
		if !ok {
			return
		}
	}

	var merged []models.Post
	for _, part := range m.latest {
		merged = append(merged, part...)
	}
	if merged == nil {
		merged = []models.Post{}
	}
	m.onSnapshot(merged)
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
