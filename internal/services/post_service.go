package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/repositories"
	"github.com/anonto42/nastani/backend/internal/session"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrMissingID     = errors.New("missing post id")
	ErrInvalidPost   = errors.New("invalid post")
	ErrNotFound      = errors.New("post not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("not the owner of this post")
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
	zipLength    = 4
)

// TotalMode selects what the pagination total counts.
type TotalMode int

const (
	// TotalFiltered counts only posts matching the zip filter.
	TotalFiltered TotalMode = iota
	// TotalCollection counts the whole collection regardless of the filter.
	// Under a zip filter this overstates pages; kept for compatibility.
	TotalCollection
)

// ParseTotalMode maps "filtered" and "collection" to a TotalMode.
func ParseTotalMode(s string) (TotalMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "filtered":
		return TotalFiltered, nil
	case "collection":
		return TotalCollection, nil
	}
	return TotalFiltered, fmt.Errorf("unknown pagination total mode %q", s)
}

// SearchParams are the inputs of PostService.Search.
type SearchParams struct {
	ZipCode string
	Page    int
	Limit   int
}

// PostService lists, searches and mutates posts on top of a PostRepository.
type PostService struct {
	posts     repositories.PostRepository
	totalMode TotalMode
	now       func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, totalMode TotalMode) *PostService {
	return &PostService{posts: posts, totalMode: totalMode, now: time.Now}
}

// WithClock replaces the clock used to stamp createdAt and lastModified.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// Search returns the newest posts, optionally restricted to an exact zip code.
// A zip code that is not four characters long matches nothing and is not sent
// to the store.
func (s *PostService) Search(ctx context.Context, p SearchParams) (*models.PostsPage, error) {
	page, limit := p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	// A page whose offset does not fit in an int64 is past the end of any store.
	zip := strings.TrimSpace(p.ZipCode)
	if (zip != "" && utf8.RuneCountInString(zip) != zipLength) || int64(page-1) > math.MaxInt64/int64(limit) {
		return &models.PostsPage{
			Posts:      []models.Post{},
			Pagination: models.Pagination{Current: page},
		}, nil
	}

	posts, err := s.posts.ListPosts(ctx, repositories.PostQuery{
		Zip:    zip,
		Offset: int64(page-1) * int64(limit),
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	s.stampAge(posts)

	countZip := zip
	if s.totalMode == TotalCollection {
		countZip = ""
	}
	total, err := s.posts.CountPosts(ctx, countZip)
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}

	return &models.PostsPage{
		Posts: posts,
		Pagination: models.Pagination{
			Total:   total,
			Pages:   int(math.Ceil(float64(total) / float64(limit))),
			Current: page,
		},
	}, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading post %s: %w", id, err)
	}
	post.TimeAgo = models.TimeAgo(post.CreatedAt, s.now())
	return post, nil
}

// ListByAuthor returns every post created by the given email, newest first.
// Emails are stored lowercased, so the match ignores case.
func (s *PostService) ListByAuthor(ctx context.Context, email string) ([]models.Post, error) {
	if email == "" {
		return nil, ErrUnauthorized
	}
	posts, err := s.posts.ListPostsByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("listing posts of %s: %w", email, err)
	}
	s.stampAge(posts)
	return posts, nil
}

// Create stores a new post authored by the given identity. createdAt,
// updatedAt and lastModified all come from one clock reading. The author's
// email is stored lowercased.
func (s *PostService) Create(ctx context.Context, author session.Identity, req models.CreatePostRequest) (*models.Post, error) {
	title := strings.TrimSpace(req.Title)
	location := strings.TrimSpace(req.Location)
	if title == "" || location == "" {
		return nil, ErrMissingFields
	}
	if author.Email == "" {
		return nil, ErrUnauthorized
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalidPost)
	}
	if req.Zip != "" && utf8.RuneCountInString(req.Zip) != zipLength {
		return nil, fmt.Errorf("%w: zip must be %d characters", ErrInvalidPost, zipLength)
	}

	created := s.now()
	now := created.UnixMilli()
	date := req.Date
	if date == "" {
		date = models.FormatMacedonianDate(created)
	}
	post := &models.Post{
		Title:        title,
		Desc:         req.Desc,
		Date:         date,
		Time:         req.Time,
		Location:     location,
		Zip:          req.Zip,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Image:        req.Image,
		UserImage:    author.AvatarURL,
		UserName:     author.Name,
		Email:        strings.ToLower(author.Email),
		Game:         req.Game,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastModified: now,
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return post, nil
}

// Update merges the inline-editable fields of req into the stored post.
// Only the owner may update; lastModified strictly increases.
func (s *PostService) Update(ctx context.Context, actor session.Identity, req models.UpdatePostRequest) error {
	if req.ID == "" {
		return ErrMissingID
	}
	existing, err := s.authorize(ctx, actor, req.ID)
	if err != nil {
		return err
	}

	fields := req.Fields()
	for _, required := range []string{"title", "location"} {
		if v, ok := fields[required].(string); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				return ErrMissingFields
			}
			fields[required] = v
		}
	}

	now := s.now().UnixMilli()
	if now <= existing.LastModified {
		now = existing.LastModified + 1
	}
	fields["updatedAt"] = now
	fields["lastModified"] = now

	if err := s.posts.UpdatePost(ctx, req.ID, fields); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("updating post %s: %w", req.ID, err)
	}
	return nil
}

// Delete permanently removes a post owned by actor.
func (s *PostService) Delete(ctx context.Context, actor session.Identity, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	return nil
}

func (s *PostService) authorize(ctx context.Context, actor session.Identity, id string) (*models.Post, error) {
	if actor.Email == "" {
		return nil, ErrUnauthorized
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(existing.Email) {
		return nil, ErrForbidden
	}
	return existing, nil
}

func (s *PostService) stampAge(posts []models.Post) {
	now := s.now()
	for i := range posts {
		posts[i].TimeAgo = models.TimeAgo(posts[i].CreatedAt, now)
	}
}
