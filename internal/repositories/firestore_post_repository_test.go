package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nastani/backend/internal/models"
)

// newEmulatorRepository connects to the emulator named by FIRESTORE_EMULATOR_HOST
// and gives every test its own collection.
func newEmulatorRepository(t *testing.T) *FirestorePostRepository {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "nastani-test")
	if err != nil {
		t.Fatalf("connecting to emulator: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	name := fmt.Sprintf("posts-%s-%d", t.Name(), time.Now().UnixNano())
	return newFirestorePostRepository(client, name)
}

func seedFirestore(t *testing.T, repo *FirestorePostRepository) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		post := &models.Post{Title: "Настан", Location: "Скопје", Zip: "1000", Email: "ana@example.mk", CreatedAt: int64(1000 + i)}
		if err := repo.CreatePost(ctx, post); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		post := &models.Post{Title: "Настан", Location: "Битола", Zip: "2000", Email: "marko@example.mk", CreatedAt: int64(2000 + i)}
		if err := repo.CreatePost(ctx, post); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
}

func TestFirestoreListPosts(t *testing.T) {
	repo := newEmulatorRepository(t)
	seedFirestore(t, repo)
	ctx := context.Background()

	cases := []struct {
		name       string
		zip        string
		offset     int64
		wantFirst  int64
		wantLength int
	}{
		{"zip page 1", "1000", 0, 1014, 10},
		{"zip page 2 starts after the boundary", "1000", 10, 1004, 5},
		{"zip page 3 is empty", "1000", 20, 0, 0},
		{"all posts page 1", "", 0, 2004, 10},
		{"all posts page 2", "", 10, 1009, 10},
		{"all posts page 3", "", 20, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts, err := repo.ListPosts(ctx, PostQuery{Zip: tc.zip, Offset: tc.offset, Limit: 10})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(posts) != tc.wantLength {
				t.Fatalf("got %d posts, want %d", len(posts), tc.wantLength)
			}
			if tc.wantLength == 0 {
				return
			}
			if posts[0].CreatedAt != tc.wantFirst {
				t.Errorf("first createdAt = %d, want %d", posts[0].CreatedAt, tc.wantFirst)
			}
			for i, p := range posts {
				if tc.zip != "" && p.Zip != tc.zip {
					t.Errorf("post %d has zip %q", i, p.Zip)
				}
				if i > 0 && p.CreatedAt >= posts[i-1].CreatedAt {
					t.Errorf("posts not newest first at %d", i)
				}
			}
		})
	}
}

func TestFirestoreCountPosts(t *testing.T) {
	repo := newEmulatorRepository(t)
	seedFirestore(t, repo)
	ctx := context.Background()

	for zip, want := range map[string]int64{"1000": 15, "2000": 5, "": 20, "3000": 0} {
		got, err := repo.CountPosts(ctx, zip)
		if err != nil {
			t.Fatalf("CountPosts(%q): %v", zip, err)
		}
		if got != want {
			t.Errorf("CountPosts(%q) = %d, want %d", zip, got, want)
		}
	}
}

func TestFirestoreMutations(t *testing.T) {
	repo := newEmulatorRepository(t)
	ctx := context.Background()

	post := &models.Post{Title: "Настан", Location: "Охрид", Email: "ana@example.mk", CreatedAt: 1}
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := repo.UpdatePost(ctx, post.ID, map[string]any{"title": "Ново", "lastModified": int64(5)}); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	got, err := repo.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.Title != "Ново" || got.Location != "Охрид" || got.LastModified != 5 {
		t.Errorf("after update: %+v", got)
	}

	mine, err := repo.ListPostsByEmail(ctx, "ana@example.mk")
	if err != nil || len(mine) != 1 {
		t.Errorf("ListPostsByEmail = %d posts, %v", len(mine), err)
	}

	if err := repo.UpdatePost(ctx, "missing", map[string]any{"title": "x"}); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("update of missing post: %v, want ErrPostNotFound", err)
	}
	if err := repo.DeletePost(ctx, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("delete of missing post: %v, want ErrPostNotFound", err)
	}
	if _, err := repo.GetPostByID(ctx, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("get of missing post: %v, want ErrPostNotFound", err)
	}

	if err := repo.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := repo.GetPostByID(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("post still readable after delete: %v", err)
	}
}
