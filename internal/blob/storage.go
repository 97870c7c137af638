// Package blob stores opaque media buffers and hands back retrievable URLs.
package blob

import (
	"context"
	"io"
)

// Storage accepts a byte stream and returns a URL the media server will
// resolve. A failed upload leaves nothing behind.
type Storage interface {
	Upload(ctx context.Context, filename, mimeType, uploaderID string, content io.Reader) (string, error)
}
