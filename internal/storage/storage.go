package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Bucket is a logical image store; each maps to an upload folder.
type Bucket string

const (
	BucketProductImages Bucket = "product-images"
	BucketChatImages    Bucket = "chat-images"
)

// Uploader stores a binary blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, originalName string, bucket Bucket) (string, error)
}

type cloudinaryUploader struct{ cld *cloudinary.Cloudinary }

func NewCloudinaryUploader(cloudinaryURL string) (Uploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &cloudinaryUploader{cld: cld}, nil
}

func (u *cloudinaryUploader) Upload(ctx context.Context, r io.Reader, originalName string, bucket Bucket) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   string(bucket),
		PublicID: generateFileName(originalName),
	})
	if err != nil {
		return "", fmt.Errorf("upload to %s: %w", bucket, err)
	}
	return res.SecureURL, nil
}

const fileNameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// generateFileName keys the blob by upload time plus a short random suffix;
// the original extension is dropped (the store derives format itself).
func generateFileName(originalName string) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = fileNameAlphabet[rand.Intn(len(fileNameAlphabet))]
	}
	base := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	if base == "" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), base, suffix)
}
