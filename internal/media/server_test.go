package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeFor("photo.JPG"))
	assert.Equal(t, "image/png", contentTypeFor("photo.png"))
	assert.Equal(t, "video/mp4", contentTypeFor("clip.mp4"))
	assert.Equal(t, "audio/mpeg", contentTypeFor("song.mp3"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("doc.pdf"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("noext"))
}
