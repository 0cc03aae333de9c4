package repositories

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/anonto42/nastani/backend/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestorePostRepository implements PostRepository for Cloud Firestore
type FirestorePostRepository struct {
	collection *firestore.CollectionRef
}

// NewFirestorePostRepository creates a new FirestorePostRepository
func NewFirestorePostRepository(client *firestore.Client) *FirestorePostRepository {
	return newFirestorePostRepository(client, "posts")
}

func newFirestorePostRepository(client *firestore.Client, collection string) *FirestorePostRepository {
	return &FirestorePostRepository{collection: client.Collection(collection)}
}

// CreatePost adds the post under a store-assigned document id
func (r *FirestorePostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	ref, _, err := r.collection.Add(ctx, post)
	if err != nil {
		return err
	}
	post.ID = ref.ID
	return nil
}

// GetPostByID retrieves a post by document id
func (r *FirestorePostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	snap, err := r.collection.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return decodePost(snap)
}

// ListPosts returns one page of posts. Firestore has no cheap offset, so for
// later pages the preceding documents are fetched and the page continues after
// the last of them.
func (r *FirestorePostRepository) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	base := r.ordered(q.Zip)

	if q.Offset > 0 {
		preceding, err := base.Limit(int(q.Offset)).Documents(ctx).GetAll()
		if err != nil {
			return nil, fmt.Errorf("fetching page boundary: %w", err)
		}
		if int64(len(preceding)) < q.Offset {
			return []models.Post{}, nil
		}
		base = base.StartAfter(preceding[len(preceding)-1])
	}

	snaps, err := base.Limit(int(q.Limit)).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodePosts(snaps)
}

// ListPostsByEmail returns every post whose author snapshot has the given email
func (r *FirestorePostRepository) ListPostsByEmail(ctx context.Context, email string) ([]models.Post, error) {
	iter := r.collection.Where("email", "==", email).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	posts := []models.Post{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		post, err := decodePost(snap)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

// CountPosts runs a server-side count aggregation
func (r *FirestorePostRepository) CountPosts(ctx context.Context, zip string) (int64, error) {
	q := r.collection.Query
	if zip != "" {
		q = q.Where("zip", "==", zip)
	}
	res, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["total"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count aggregation result %T", res["total"])
	}
	return v.GetIntegerValue(), nil
}

// UpdatePost patches the given fields. Update fails with NotFound on a missing document.
func (r *FirestorePostRepository) UpdatePost(ctx context.Context, id string, fields map[string]any) error {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	updates := make([]firestore.Update, 0, len(paths))
	for _, path := range paths {
		updates = append(updates, firestore.Update{Path: path, Value: fields[path]})
	}

	if _, err := r.collection.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// DeletePost permanently removes the document
func (r *FirestorePostRepository) DeletePost(ctx context.Context, id string) error {
	if _, err := r.collection.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

func (r *FirestorePostRepository) ordered(zip string) firestore.Query {
	q := r.collection.Query
	if zip != "" {
		q = q.Where("zip", "==", zip)
	}
	return q.OrderBy("createdAt", firestore.Desc)
}

func decodePost(snap *firestore.DocumentSnapshot) (*models.Post, error) {
	var post models.Post
	if err := snap.DataTo(&post); err != nil {
		return nil, fmt.Errorf("decoding post %s: %w", snap.Ref.ID, err)
	}
	post.ID = snap.Ref.ID
	return &post, nil
}

func decodePosts(snaps []*firestore.DocumentSnapshot) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(snaps))
	for _, snap := range snaps {
		post, err := decodePost(snap)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}
