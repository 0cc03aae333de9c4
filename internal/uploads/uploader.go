// Package uploads stores post images in a cloud storage bucket and reports
// progress as a finite event sequence.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"path"
	"strings"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxFileSize is the default upload limit.
const MaxFileSize = 5 << 20

const (
	chunkSize  = 256 << 10
	sniffBytes = 3072
	folder     = "posts"
)

// AllowedTypes are the image types a post may carry.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrConsumed        = errors.New("upload events already consumed")
)

// ObjectWriter receives the object bytes; Close commits the object.
type ObjectWriter interface {
	io.Writer
	Close() error
}

// Bucket opens writers for new objects.
type Bucket interface {
	Name() string
	NewWriter(ctx context.Context, object, contentType string, metadata map[string]string) ObjectWriter
}

// EventKind tells progress events from the terminal ones.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
	EventFailed   EventKind = "failed"
)

// Event is one step of an upload. The last event of a sequence is always
// EventDone or EventFailed.
type Event struct {
	Kind        EventKind `json:"kind"`
	Transferred int64     `json:"transferred"`
	Total       int64     `json:"total"`
	URL         string    `json:"url,omitempty"`
	Err         error     `json:"-"`
}

// Uploader validates images and writes them to a Bucket.
type Uploader struct {
	bucket   Bucket
	maxSize  int64
	newToken func() string
}

// NewUploader creates an Uploader. A maxSize of zero means MaxFileSize.
func NewUploader(bucket Bucket, maxSize int64) *Uploader {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Uploader{bucket: bucket, maxSize: maxSize, newToken: uuid.NewString}
}

// Upload is a validated, not yet started transfer. Ranging over Events drives
// it; stopping early cancels the write.
type Upload struct {
	Object      string
	ContentType string
	Size        int64

	consumed atomic.Bool
	run      func(ctx context.Context, yield func(Event) bool)
	ctx      context.Context
}

// Events returns the progress sequence. It can be ranged over once.
func (u *Upload) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !u.consumed.CompareAndSwap(false, true) {
			yield(Event{Kind: EventFailed, Total: u.Size, Err: ErrConsumed})
			return
		}
		u.run(u.ctx, yield)
	}
}

// Wait drains the sequence and returns the download URL or the failure.
func (u *Upload) Wait() (string, error) {
	var last Event
	for ev := range u.Events() {
		last = ev
	}
	if last.Kind == EventDone {
		return last.URL, nil
	}
	if last.Err != nil {
		return "", last.Err
	}
	return "", errors.New("upload did not complete")
}

// Start validates the file and prepares its upload. Validation failures are
// returned here, before anything is sent to the bucket.
func (u *Uploader) Start(ctx context.Context, filename string, r io.Reader, size int64) (*Upload, error) {
	if size > u.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, u.maxSize)
	}

	header := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	header = header[:n]

	mtype := mimetype.Detect(header)
	if !mimetype.EqualsAny(mtype.String(), AllowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	object := path.Join(folder, uuid.NewString()+"-"+cleanName(filename))
	body := io.MultiReader(bytes.NewReader(header), r)
	token := u.newToken()

	up := &Upload{Object: object, ContentType: mtype.String(), Size: size, ctx: ctx}
	up.run = func(ctx context.Context, yield func(Event) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		w := u.bucket.NewWriter(ctx, object, up.ContentType, map[string]string{
			"firebaseStorageDownloadTokens": token,
		})

		var sent int64
		buf := make([]byte, chunkSize)
		for {
			n, rerr := body.Read(buf)
			if n > 0 {
				sent += int64(n)
				if sent > u.maxSize {
					yield(Event{Kind: EventFailed, Transferred: sent, Total: size, Err: ErrFileTooLarge})
					return
				}
				if _, werr := w.Write(buf[:n]); werr != nil {
					yield(Event{Kind: EventFailed, Transferred: sent, Total: size, Err: fmt.Errorf("writing %s: %w", object, werr)})
					return
				}
				if !yield(Event{Kind: EventProgress, Transferred: sent, Total: size}) {
					return
				}
			}
			if errors.Is(rerr, io.EOF) {
				break
			}
			if rerr != nil {
				yield(Event{Kind: EventFailed, Transferred: sent, Total: size, Err: fmt.Errorf("reading upload: %w", rerr)})
				return
			}
		}

		if err := w.Close(); err != nil {
			yield(Event{Kind: EventFailed, Transferred: sent, Total: size, Err: fmt.Errorf("committing %s: %w", object, err)})
			return
		}
		yield(Event{Kind: EventDone, Transferred: sent, Total: size, URL: DownloadURL(u.bucket.Name(), object, token)})
	}
	return up, nil
}

// DownloadURL is the durable Firebase Storage URL of an object with a download token.
func DownloadURL(bucket, object, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(object), url.QueryEscape(token))
}

func cleanName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if cleaned == "" || cleaned == "." {
		return "image"
	}
	return cleaned
}
