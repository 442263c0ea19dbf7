package media

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"
)

// Item is one media file available for sending.
type Item struct {
	Name     string
	MIMEType string
	Size     int64

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open returns a reader for the item's content.
func (i Item) Open(ctx context.Context) (io.ReadCloser, error) {
	if i.open == nil {
		return nil, ErrNotReadable
	}
	return i.open(ctx)
}

// ReadAll reads the whole item into memory.
func (i Item) ReadAll(ctx context.Context) ([]byte, error) {
	rc, err := i.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// NewItem builds an item backed by open. Used by Source implementations and tests.
func NewItem(name string, size int64, open func(ctx context.Context) (io.ReadCloser, error)) Item {
	return Item{Name: name, MIMEType: detectMIME(name), Size: size, open: open}
}

// Source enumerates a media set. List is evaluated at call time so files added
// or removed between calls are reflected.
type Source interface {
	List(ctx context.Context) ([]Item, error)
}

func detectMIME(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
