// Package media uploads account images to remote object storage and
// removes them again by their public id.
package media

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrTooLarge  = errors.New("file exceeds the upload size limit")
	ErrNotImage  = errors.New("file is not an image")
)

// File is an upload as received from a client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Asset identifies a stored file. PublicID is what Delete takes.
type Asset struct {
	URL      string
	PublicID string
}

// Store is the remote media service.
type Store interface {
	Upload(ctx context.Context, f *File) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// Validate checks the declared metadata of f against the upload limits.
// maxBytes <= 0 disables the size check.
func (f *File) Validate(maxBytes int64) error {
	if f == nil || f.Body == nil || f.Size == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && f.Size > maxBytes {
		return ErrTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if !strings.HasPrefix(ct, "image/") {
		return ErrNotImage
	}
	return nil
}

// PublicIDFromURL derives a public id from the last path segment of a media
// URL with its extension removed, e.g. ".../abc123.jpg" -> "abc123".
func PublicIDFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
