package classifier

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Classify Tests
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantExt   string
		wantKnown bool
	}{
		{"lower jpg", "photo.jpg", "JPG", true},
		{"upper jpg", "photo.JPG", "JPG", true},
		{"mixed jpg", "photo.Jpg", "JPG", true},
		{"jpeg", "scan.jpeg", "JPEG", true},
		{"python source", "main.py", "PY", true},
		{"double extension", "backup.tar.gz", "GZ", true},
		{"full path", filepath.Join("a", "b", "song.Mp3"), "MP3", true},
		{"unknown", "notes.xyz", "XYZ", false},
		{"no period", "Makefile", "", false},
		{"dotfile", ".bashrc", "", false},
		{"trailing period", "draft.", "", false},
		{"empty", "", "", false},
		{"leading dots", "..pdf", "PDF", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, known := Classify(tt.filename)
			assert.Equal(t, tt.wantExt, ext)
			assert.Equal(t, tt.wantKnown, known)
		})
	}
}

func TestClassifyEveryKnownExtension(t *testing.T) {
	exts := KnownExtensions()
	require.Len(t, exts, 22)

	for _, ext := range exts {
		for _, name := range []string{"f." + ext, "f." + toLower(ext)} {
			got, known := Classify(name)
			assert.True(t, known, name)
			assert.Equal(t, ext, got, name)
		}
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// =============================================================================
// Category Table Tests
// =============================================================================

func TestDestination(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"JPEG", filepath.Join("images", "JPEG")},
		{"AMR", filepath.Join("audio", "AMR")},
		{"MKV", filepath.Join("video", "MKV")},
		{"PPTX", filepath.Join("documents", "PPTX")},
		{"TAR", filepath.Join("archives", "TAR")},
		{"XYZ", "not_defined"},
		{"", "not_defined"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, Destination(tt.ext))
		})
	}
}

func TestCategoryOf(t *testing.T) {
	cat, ok := CategoryOf("WAV")
	assert.True(t, ok)
	assert.Equal(t, Audio, cat)

	cat, ok = CategoryOf("TAR")
	assert.True(t, ok)
	assert.Equal(t, Archives, cat)

	_, ok = CategoryOf("wav")
	assert.False(t, ok, "lookups are case-sensitive")
}

func TestReservedRoots(t *testing.T) {
	for _, name := range []string{"images", "audio", "video", "documents", "archives", "not_defined"} {
		assert.True(t, IsReservedRoot(name), name)
	}
	assert.False(t, IsReservedRoot("Images"))
	assert.False(t, IsReservedRoot("photos"))
	assert.Len(t, ReservedRoots, 6)
}

func TestExtensionsReturnsCopy(t *testing.T) {
	exts := Extensions(Images)
	exts[0] = "BMP"
	assert.Equal(t, "JPEG", Extensions(Images)[0])
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Add("JPG", "/root/a.jpg"))
	assert.True(t, r.Add("JPG", "/root/b.jpg"))
	assert.True(t, r.Add("ZIP", "/root/c.zip"))
	assert.False(t, r.Add("XYZ", "/root/d.xyz"))

	assert.Equal(t, []string{"/root/a.jpg", "/root/b.jpg"}, r.Files("JPG"))
	assert.Nil(t, r.Files("XYZ"))
	assert.Equal(t, 3, r.Len())
}

func TestRegistryNonEmpty(t *testing.T) {
	r := NewRegistry()
	r.Add("PNG", "/root/a.png")

	got := r.NonEmpty()
	assert.Equal(t, map[string][]string{"PNG": {"/root/a.png"}}, got)

	got["PNG"][0] = "changed"
	assert.Equal(t, "/root/a.png", r.Files("PNG")[0])
}

func TestNewRegistryIsEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.NonEmpty())
	assert.Zero(t, r.Len())
}
