// Package client is a Go client for the posts API. It keeps the last fetched
// page and applies the same guards as the web form before mutating: the
// caller must be signed in, must own the post, and may not fire more than a
// few edits or deletes per second.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/ratelimit"
	"github.com/anonto42/nastani/backend/internal/session"
)

var (
	ErrNotSignedIn   = errors.New("you must be signed in")
	ErrRateLimited   = errors.New("too many actions, please wait a moment")
	ErrNotOwner      = errors.New("only the author can change this post")
	ErrMissingFields = errors.New("missing required fields")
)

const (
	// DefaultActionLimit edits or deletes are allowed per DefaultActionWindow.
	DefaultActionLimit  = 3
	DefaultActionWindow = time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// SearchParams selects a page of posts.
type SearchParams struct {
	ZipCode string
	Page    int
	Limit   int
}

// Client talks to the posts API on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    session.Source
	limiter    *ratelimit.Window

	mu    sync.Mutex
	posts []models.Post
	page  models.Pagination
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithActionLimit changes how many edits and deletes are allowed per period.
func WithActionLimit(max int, period time.Duration) Option {
	return func(c *Client) { c.limiter = ratelimit.NewWindow(max, period) }
}

// New creates a Client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, src session.Source, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		session:    src,
		limiter:    ratelimit.NewWindow(DefaultActionLimit, DefaultActionWindow),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Posts returns the posts of the last successful FetchPosts, with later
// updates and deletes applied.
func (c *Client) Posts() ([]models.Post, models.Pagination) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Post(nil), c.posts...), c.page
}

// FetchPosts loads one page of posts. It does not require a session.
func (c *Client) FetchPosts(ctx context.Context, p SearchParams) (*models.PostsPage, error) {
	q := url.Values{}
	if p.ZipCode != "" {
		q.Set("zipCode", p.ZipCode)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	var page models.PostsPage
	if err := c.do(ctx, http.MethodGet, "/api/posts?"+q.Encode(), "", nil, &page); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.posts = append([]models.Post(nil), page.Posts...)
	c.page = page.Pagination
	c.mu.Unlock()
	return &page, nil
}

// CreatePost publishes a post as the signed-in user. A blank title or
// location fails with ErrMissingFields before anything is sent.
func (c *Client) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Location) == "" {
		return nil, ErrMissingFields
	}
	state, err := c.signedIn()
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", state.Token, req, &post); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.posts = append([]models.Post{post}, c.posts...)
	c.mu.Unlock()
	return &post, nil
}

// UpdatePost saves the changed fields of a post the signed-in user owns.
func (c *Client) UpdatePost(ctx context.Context, req models.UpdatePostRequest) error {
	state, err := c.authorizeAction(req.ID)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPut, "/api/posts", state.Token, req, nil); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.posts {
		if c.posts[i].ID == req.ID {
			applyUpdate(&c.posts[i], req)
		}
	}
	c.mu.Unlock()
	return nil
}

// DeletePost permanently removes a post the signed-in user owns.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	state, err := c.authorizeAction(id)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/api/posts?id="+url.QueryEscape(id), state.Token, nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	kept := c.posts[:0]
	for _, p := range c.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.posts = kept
	c.mu.Unlock()
	return nil
}

func (c *Client) signedIn() (session.State, error) {
	state := c.session.Current()
	if state.Status != session.StatusAuthenticated || state.Identity.Email == "" {
		return state, ErrNotSignedIn
	}
	return state, nil
}

// authorizeAction checks sign-in, ownership of a cached post and the action
// limit, in that order. Posts not in the cache are left to the server.
func (c *Client) authorizeAction(id string) (session.State, error) {
	state, err := c.signedIn()
	if err != nil {
		return state, err
	}

	c.mu.Lock()
	for _, p := range c.posts {
		if p.ID == id && !state.Identity.Owns(p.Email) {
			c.mu.Unlock()
			return state, ErrNotOwner
		}
	}
	c.mu.Unlock()

	if ok, _ := c.limiter.Allow(state.Identity.Email); !ok {
		return state, ErrRateLimited
	}
	return state, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: body.Error}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrNotSignedIn, apiErr)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrNotOwner, apiErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, apiErr)
	}
	return apiErr
}

func applyUpdate(p *models.Post, req models.UpdatePostRequest) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Date != nil {
		p.Date = *req.Date
	}
	if req.Time != nil {
		p.Time = *req.Time
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Desc != nil {
		p.Desc = *req.Desc
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
}
