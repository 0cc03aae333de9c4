package repositories

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/anonto42/nastani/backend/internal/models"
)

// MemoryPostRepository keeps posts in process memory. It is used for local
// development (POST_STORE=memory) and in tests.
type MemoryPostRepository struct {
	mu     sync.RWMutex
	nextID int
	posts  map[string]models.Post
	calls  map[string]int
}

// NewMemoryPostRepository creates an empty MemoryPostRepository
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		nextID: 1,
		posts:  map[string]models.Post{},
		calls:  map[string]int{},
	}
}

func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["CreatePost"]++

	post.ID = "post-" + strconv.Itoa(r.nextID)
	r.nextID++
	r.posts[post.ID] = clonePost(*post)
	return nil
}

func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["GetPostByID"]++

	post, ok := r.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	post = clonePost(post)
	return &post, nil
}

func (r *MemoryPostRepository) ListPosts(_ context.Context, q PostQuery) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["ListPosts"]++

	matched := r.sorted(func(p models.Post) bool { return q.Zip == "" || p.Zip == q.Zip })
	if q.Offset < 0 || q.Offset >= int64(len(matched)) {
		return []models.Post{}, nil
	}
	end := q.Offset + q.Limit
	if end > int64(len(matched)) {
		end = int64(len(matched))
	}
	return matched[q.Offset:end], nil
}

func (r *MemoryPostRepository) ListPostsByEmail(_ context.Context, email string) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["ListPostsByEmail"]++

	return r.sorted(func(p models.Post) bool { return p.Email == email }), nil
}

func (r *MemoryPostRepository) CountPosts(_ context.Context, zip string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["CountPosts"]++

	var n int64
	for _, p := range r.posts {
		if zip == "" || p.Zip == zip {
			n++
		}
	}
	return n, nil
}

func (r *MemoryPostRepository) UpdatePost(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["UpdatePost"]++

	post, ok := r.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	for field, value := range fields {
		switch field {
		case "title":
			post.Title, _ = value.(string)
		case "desc":
			post.Desc, _ = value.(string)
		case "date":
			post.Date, _ = value.(string)
		case "time":
			post.Time, _ = value.(string)
		case "location":
			post.Location, _ = value.(string)
		case "image":
			post.Image, _ = value.(string)
		case "updatedAt":
			post.UpdatedAt, _ = value.(int64)
		case "lastModified":
			post.LastModified, _ = value.(int64)
		}
	}
	r.posts[id] = post
	return nil
}

func (r *MemoryPostRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["DeletePost"]++

	if _, ok := r.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

// CallCount returns how many times method was called
func (r *MemoryPostRepository) CallCount(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls[method]
}

func (r *MemoryPostRepository) sorted(keep func(models.Post) bool) []models.Post {
	posts := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if keep(p) {
			posts = append(posts, clonePost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt == posts[j].CreatedAt {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt > posts[j].CreatedAt
	})
	return posts
}

func clonePost(p models.Post) models.Post {
	if p.Latitude != nil {
		lat := *p.Latitude
		p.Latitude = &lat
	}
	if p.Longitude != nil {
		lon := *p.Longitude
		p.Longitude = &lon
	}
	return p
}
