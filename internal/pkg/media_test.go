package pkg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func TestMediaStore_SaveImage(t *testing.T) {
	root := t.TempDir()
	s := NewMediaStore(root, "/media/", 1<<20)

	name, err := s.SaveImage(bytes.NewReader(smallGIF))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "posts/"))
	assert.True(t, strings.HasSuffix(name, ".gif"))
	assert.Equal(t, "/media/"+name, s.URL(name))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, data)
}

func TestMediaStore_RejectsNonImage(t *testing.T) {
	s := NewMediaStore(t.TempDir(), "/media", 1<<20)
	_, err := s.SaveImage(strings.NewReader("plain text, definitely not a picture"))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestMediaStore_RejectsSVG(t *testing.T) {
	root := t.TempDir()
	s := NewMediaStore(root, "/media", 1<<20)
	svg := `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="1" height="1">` +
		`<script>alert(document.cookie)</script></svg>`

	_, err := s.SaveImage(strings.NewReader(svg))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, statErr := os.Stat(filepath.Join(root, "posts"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMediaStore_RejectsLarge(t *testing.T) {
	s := NewMediaStore(t.TempDir(), "/media", 10)
	_, err := s.SaveImage(bytes.NewReader(smallGIF))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestNewResetCode(t *testing.T) {
	code, err := NewResetCode()
	require.NoError(t, err)
	assert.Len(t, code, ResetCodeLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
