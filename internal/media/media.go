// Package media stores uploaded images and videos in the object store and
// serves them back under /api/media.
package media

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/storage"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

const (
	keyPrefix = "media/"
	// URLPrefix is where uploaded objects are served from.
	URLPrefix = "/api/media/"

	sniffLen = 3072
)

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

type Service struct {
	store    storage.ObjectStore
	maxBytes int64
}

func NewService(store storage.ObjectStore, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	return &Service{store: store, maxBytes: maxBytes}
}

// Uploaded is the stored object; URL can be used as a media item url.
type Uploaded struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload stores an image or video. The content type is taken from the
// declared header when it names a media type, otherwise from the bytes.
func (s *Service) Upload(ctx context.Context, caller access.Caller, filename, declared string, size int64, r io.Reader) (*Uploaded, error) {
	if err := access.Check(caller, access.UploadMedia); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: empty file", apperr.ErrValidation)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d MB", apperr.ErrValidation, s.maxBytes>>20)
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	sniffed := mimetype.Detect(head)
	ct := mediaType(declared)
	if ct == "" {
		ct = mediaType(sniffed.String())
	}
	if ct == "" {
		return nil, fmt.Errorf("%w: only image and video uploads are accepted", apperr.ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !safeExt.MatchString(ext) {
		ext = ""
		if sniffed.Is(ct) {
			ext = sniffed.Extension()
		}
	}
	key := keyPrefix + uuid.NewString() + ext
	if err := s.store.UploadFile(ctx, key, br, size, ct); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	logger.Infof("media: %s uploaded %s (%s, %d bytes)", caller.ID, key, ct, size)
	return &Uploaded{Key: key, URL: URLPrefix + key, ContentType: ct, Size: size}, nil
}

// mediaType returns the bare media type of v when it is an image or video.
func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	if strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/") {
		return mt
	}
	return ""
}

// Open streams a stored object. Keys outside the media prefix are not found.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, keyPrefix) || path.Clean(key) != key {
		return nil, storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return s.store.DownloadFile(ctx, key)
}
