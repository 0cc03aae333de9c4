package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/nastani/backend/internal/middleware"
	"github.com/anonto42/nastani/backend/internal/uploads"
)

type nopWriter struct{ bytes.Buffer }

func (*nopWriter) Close() error { return nil }

type discardBucket struct{}

func (discardBucket) Name() string { return "nastani-test.appspot.com" }

func (discardBucket) NewWriter(context.Context, string, string, map[string]string) uploads.ObjectWriter {
	return &nopWriter{}
}

func multipartFile(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()
	return &body, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	e := newEcho()
	auth := middleware.Authenticate(true, middleware.JWTVerifier{Secret: testSecret})
	NewUploadHandler(uploads.NewUploader(discardBucket{}, 1<<20)).RegisterUploadRoutes(e.Group("/api"), auth)
	token := tokenFor(t, "Ана", "ana@example.mk")

	png := make([]byte, 600<<10)
	copy(png, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("streams progress then done", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "плакат.png", png)
		rec := do(e, http.MethodPost, "/api/uploads", token, body, ct)
		expectStatus(t, rec, http.StatusOK)
		if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
			t.Errorf("content type = %q", got)
		}
		stream := rec.Body.String()
		if !strings.HasPrefix(stream, "event: progress\n") {
			t.Errorf("stream does not start with progress: %q", stream[:min(len(stream), 60)])
		}
		if n := strings.Count(stream, "event: done\n"); n != 1 {
			t.Errorf("got %d done events", n)
		}
		if !strings.Contains(stream, `"url":"https://firebasestorage.googleapis.com/v0/b/nastani-test.appspot.com/o/posts%2F`) {
			t.Errorf("no download URL in %q", stream)
		}
	})

	t.Run("requires sign in", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "a.png", png)
		expectStatus(t, do(e, http.MethodPost, "/api/uploads", "", body, ct), http.StatusUnauthorized)
	})

	t.Run("rejects text", func(t *testing.T) {
		body, ct := multipartFile(t, "file", "a.png", []byte("hello, not an image"))
		expectStatus(t, do(e, http.MethodPost, "/api/uploads", token, body, ct), http.StatusBadRequest)
	})

	t.Run("rejects large files", func(t *testing.T) {
		big := make([]byte, 2<<20)
		copy(big, png)
		body, ct := multipartFile(t, "file", "big.png", big)
		expectStatus(t, do(e, http.MethodPost, "/api/uploads", token, body, ct), http.StatusRequestEntityTooLarge)
	})

	t.Run("missing file field", func(t *testing.T) {
		body, ct := multipartFile(t, "image", "a.png", png)
		expectStatus(t, do(e, http.MethodPost, "/api/uploads", token, body, ct), http.StatusBadRequest)
	})
}
