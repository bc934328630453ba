package object

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrObjectExists is returned by Put when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore defines the contract for saving and removing uploaded blobs.
type ObjectStore interface {
	// Put writes r under key. It never overwrites an existing object.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// JoinURL appends a storage key to a base URL, escaping each key segment.
func JoinURL(base, key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
