package handlers

import (
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/anonto42/nastani/backend/internal/middleware"
	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/ratelimit"
	"github.com/anonto42/nastani/backend/internal/repositories"
	"github.com/anonto42/nastani/backend/internal/services"
	"github.com/labstack/echo/v4"
)

func newPostServer(t *testing.T) (*echo.Echo, *repositories.MemoryPostRepository) {
	t.Helper()
	e := newEcho()
	repo := repositories.NewMemoryPostRepository()
	svc := services.NewPostService(repo, services.TotalFiltered)

	auth := middleware.Authenticate(true, middleware.JWTVerifier{Secret: testSecret})
	throttle := middleware.ActionRateLimiter(ratelimit.NewWindow(3, time.Minute))
	NewPostHandler(svc).RegisterPostRoutes(e.Group("/api"), auth, throttle)
	return e, repo
}

func createPost(t *testing.T, e *echo.Echo, token, body string) models.Post {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/posts", token, body)
	expectStatus(t, rec, http.StatusCreated)
	var post models.Post
	decode(t, rec, &post)
	return post
}

func TestCreatePost(t *testing.T) {
	e, repo := newPostServer(t)
	ana := tokenFor(t, "Ана", "ana@example.mk")

	t.Run("requires sign in", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/posts", "", `{"title":"Концерт","location":"Скопје"}`)
		expectStatus(t, rec, http.StatusUnauthorized)
		if got := errorMessage(t, rec); got != "Unauthorized" {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/posts", ana, `{"location":"Скопје"}`)
		expectStatus(t, rec, http.StatusBadRequest)
		if got := errorMessage(t, rec); got != "Missing required fields" {
			t.Errorf("error = %q", got)
		}
		if n := repo.CallCount("CreatePost"); n != 0 {
			t.Errorf("CreatePost called %d times", n)
		}
	})

	t.Run("invalid zip", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/posts", ana, `{"title":"Концерт","location":"Скопје","zip":"10a0"}`)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/posts", ana, `{"title":"Концерт","location":"Скопје","game":"Шах"}`)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("author comes from the token", func(t *testing.T) {
		post := createPost(t, e, ana, `{"title":"Концерт","location":"Скопје","zip":"1000","email":"someone@else.mk","game":"Бизнис"}`)
		if post.ID == "" {
			t.Fatal("created post has no id")
		}
		if post.Email != "ana@example.mk" || post.UserName != "Ана" {
			t.Errorf("author = %q %q", post.Email, post.UserName)
		}
		if post.CreatedAt == 0 || post.LastModified != post.CreatedAt {
			t.Errorf("timestamps = %d/%d", post.CreatedAt, post.LastModified)
		}
	})
}

func TestGetPosts(t *testing.T) {
	e, repo := newPostServer(t)
	ana := tokenFor(t, "Ана", "ana@example.mk")
	for _, zip := range []string{"1000", "1000", "7000"} {
		createPost(t, e, ana, `{"title":"Настан","location":"Скопје","zip":"`+zip+`"}`)
	}

	var page models.PostsPage
	rec := doJSON(e, http.MethodGet, "/api/posts?zipCode=1000&limit=1&page=2", "", "")
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &page)
	if len(page.Posts) != 1 || page.Posts[0].Zip != "1000" {
		t.Fatalf("posts = %+v", page.Posts)
	}
	want := models.Pagination{Total: 2, Pages: 2, Current: 2}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}

	listed := repo.CallCount("ListPosts")
	rec = doJSON(e, http.MethodGet, "/api/posts?zipCode=100", "", "")
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &page)
	if len(page.Posts) != 0 || page.Pagination.Total != 0 {
		t.Errorf("short zip returned %+v", page)
	}
	if repo.CallCount("ListPosts") != listed {
		t.Error("short zip reached the store")
	}

	rec = doJSON(e, http.MethodGet, "/api/posts?page=9223372036854775807&limit=10", "", "")
	expectStatus(t, rec, http.StatusOK)
	page = models.PostsPage{}
	decode(t, rec, &page)
	if len(page.Posts) != 0 || page.Pagination.Current != math.MaxInt {
		t.Errorf("huge page returned %+v", page)
	}

	rec = doJSON(e, http.MethodGet, "/api/posts?limit=abc", "", "")
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &page)
	if len(page.Posts) != 3 || page.Pagination.Current != 1 {
		t.Errorf("defaults: %d posts, page %d", len(page.Posts), page.Pagination.Current)
	}
}

func TestGetPost(t *testing.T) {
	e, _ := newPostServer(t)
	post := createPost(t, e, tokenFor(t, "Ана", "ana@example.mk"), `{"title":"Настан","location":"Битола"}`)

	rec := doJSON(e, http.MethodGet, "/api/posts/"+post.ID, "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = doJSON(e, http.MethodGet, "/api/posts/missing", "", "")
	expectStatus(t, rec, http.StatusNotFound)
	if got := errorMessage(t, rec); got != "Post not found" {
		t.Errorf("error = %q", got)
	}
}

func TestUpdatePost(t *testing.T) {
	e, _ := newPostServer(t)
	ana := tokenFor(t, "Ана", "ana@example.mk")
	marko := tokenFor(t, "Марко", "marko@example.mk")
	post := createPost(t, e, ana, `{"title":"Настан","location":"Битола"}`)

	cases := []struct {
		name     string
		token    string
		body     string
		wantCode int
	}{
		{"not signed in", "", `{"id":"` + post.ID + `","title":"Ново"}`, http.StatusUnauthorized},
		{"missing id", marko, `{"title":"Ново"}`, http.StatusBadRequest},
		{"unknown post", marko, `{"id":"nope","title":"Ново"}`, http.StatusNotFound},
		{"not the owner", marko, `{"id":"` + post.ID + `","title":"Ново"}`, http.StatusForbidden},
		{"owner", ana, `{"id":"` + post.ID + `","title":"Ново","desc":"опис"}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPut, "/api/posts", tc.token, tc.body)
			expectStatus(t, rec, tc.wantCode)
		})
	}

	var got models.Post
	decode(t, doJSON(e, http.MethodGet, "/api/posts/"+post.ID, "", ""), &got)
	if got.Title != "Ново" || got.Desc != "опис" || got.Location != "Битола" {
		t.Errorf("after update: %+v", got)
	}
	if got.LastModified <= post.LastModified {
		t.Errorf("lastModified %d did not advance past %d", got.LastModified, post.LastModified)
	}
}

func TestDeletePost(t *testing.T) {
	e, _ := newPostServer(t)
	ana := tokenFor(t, "Ана", "ana@example.mk")
	post := createPost(t, e, ana, `{"title":"Настан","location":"Охрид"}`)

	rec := doJSON(e, http.MethodDelete, "/api/posts?id="+post.ID, tokenFor(t, "Марко", "marko@example.mk"), "")
	expectStatus(t, rec, http.StatusForbidden)

	rec = doJSON(e, http.MethodDelete, "/api/posts", ana, "")
	expectStatus(t, rec, http.StatusBadRequest)
	if got := errorMessage(t, rec); got != "Missing post ID" {
		t.Errorf("error = %q", got)
	}

	rec = doJSON(e, http.MethodDelete, "/api/posts?id="+post.ID, ana, "")
	expectStatus(t, rec, http.StatusOK)

	rec = doJSON(e, http.MethodGet, "/api/posts/"+post.ID, "", "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestEditsAreRateLimited(t *testing.T) {
	e, _ := newPostServer(t)
	ana := tokenFor(t, "Ана", "ana@example.mk")
	post := createPost(t, e, ana, `{"title":"Настан","location":"Охрид"}`)

	body := `{"id":"` + post.ID + `","desc":"x"}`
	for i := 0; i < 3; i++ {
		expectStatus(t, doJSON(e, http.MethodPut, "/api/posts", ana, body), http.StatusOK)
	}
	rec := doJSON(e, http.MethodPut, "/api/posts", ana, body)
	expectStatus(t, rec, http.StatusTooManyRequests)

	// reads are never throttled
	expectStatus(t, doJSON(e, http.MethodGet, "/api/posts/"+post.ID, "", ""), http.StatusOK)
}
