package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/nastani/backend/internal/uploads"
	"github.com/labstack/echo/v4"
)

// UploadHandler accepts post images and streams their upload progress
type UploadHandler struct {
	uploader *uploads.Uploader
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploader *uploads.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// RegisterUploadRoutes registers upload routes
func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/uploads", h.Upload, auth)
}

type uploadEvent struct {
	Transferred int64  `json:"transferred"`
	Total       int64  `json:"total"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Upload reads the multipart "file" field and streams server-sent events:
// "progress" while bytes are written, then exactly one "done" or "error".
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	upload, err := h.uploader.Start(ctx, fh.Filename, src, fh.Size)
	switch {
	case errors.Is(err, uploads.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File is too large")
	case errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrEmptyFile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		c.Logger().Errorf("starting upload of %s: %v", fh.Filename, err)
		return echo.NewHTTPError(http.StatusInternalServerError, unknownErrorMessage)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	for ev := range upload.Events() {
		name := "progress"
		payload := uploadEvent{Transferred: ev.Transferred, Total: ev.Total, URL: ev.URL}
		switch ev.Kind {
		case uploads.EventDone:
			name = "done"
		case uploads.EventFailed:
			name = "error"
			payload.Error = "Upload failed"
			c.Logger().Errorf("upload of %s failed: %v", upload.Object, ev.Err)
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, data); err != nil {
			return nil
		}
		res.Flush()
	}
	return nil
}
