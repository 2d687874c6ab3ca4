package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"assetmarket/internal/domain"
)

const (
	MaxFileSize     = 50 << 20 // 50MB per uploaded file
	MaxPreviewCount = 5        // Preview images per asset
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Local stores uploads on the local filesystem and serves them under URLPrefix
type Local struct {
	basePath  string
	urlPrefix string
	now       func() time.Time
}

// NewLocal creates a local storage rooted at basePath
func NewLocal(basePath, urlPrefix string) *Local {
	return &Local{basePath: basePath, urlPrefix: strings.TrimSuffix(urlPrefix, "/"), now: time.Now}
}

// BasePath is the directory files are written to
func (s *Local) BasePath() string {
	return s.basePath
}

// allowed reports whether the content type is an archive or an image
func allowed(contentType string) bool {
	switch {
	case contentType == "application/zip", contentType == "application/x-zip-compressed":
		return true
	case strings.HasPrefix(contentType, "image/"):
		return true
	}
	return false
}

// Save writes an uploaded file and returns its public location
func (s *Local) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", domain.Validation("File exceeds the 50MB limit")
	}
	if !allowed(fh.Header.Get("Content-Type")) {
		return "", domain.Validation("Only zip files and images are allowed")
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Ensure the directory exists
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d-%s", s.now().UnixNano(), unsafeName.ReplaceAllString(filepath.Base(fh.Filename), "_"))
	dst, err := os.Create(filepath.Join(s.basePath, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1)); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + name, nil
}
