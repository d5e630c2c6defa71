package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("image storage is not configured")

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader writes images to a Firebase Storage bucket and hands out
// token-protected download URLs.
type Uploader struct {
	client *gcs.Client
	bucket string
}

func NewUploader(ctx context.Context, bucket string, opts ...option.ClientOption) (*Uploader, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

func (u *Uploader) Upload(ctx context.Context, folder, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectPath := ObjectPath(folder, uuid.NewString(), contentType)
	token := uuid.NewString()
	w := u.client.Bucket(u.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := io.Copy(w, r); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	log.Printf("[storage] rid=%s object=%s stage=uploaded", reqctx.RID(ctx), objectPath)
	return PublicURL(u.bucket, objectPath, token), nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}

func ObjectPath(folder, name, contentType string) string {
	return path.Join(folder, name+extensions[contentType])
}

func PublicURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}

// Disabled rejects every upload; used when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}
