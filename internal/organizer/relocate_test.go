package organizer

import (
	"path/filepath"
	"testing"

	"github.com/fenilsonani/sortdir/internal/naming"
	"github.com/fenilsonani/sortdir/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelocator(t *testing.T, policy naming.Policy, dryRun bool) *Relocator {
	t.Helper()
	r, err := NewRelocator(naming.NewCollisionResolver(policy), dryRun, nil)
	require.NoError(t, err)
	return r
}

// =============================================================================
// Relocate Tests
// =============================================================================

func TestRelocateMovesUnderNormalizedName(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateFile("in/Фото літо 2023.jpg", []byte("pixels"))
	dest := f.Path("images", "JPG")

	final, err := newRelocator(t, naming.PolicySuffix, false).Relocate(src, dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "Foto_lito_2023.jpg"), final)
	f.AssertFileContent(final, "pixels")
	f.AssertFileNotExists(src)
}

func TestRelocateCreatesDestinationOnce(t *testing.T) {
	f := testutil.NewFixture(t)
	files := f.CreateFiles("a.mp3", "b.mp3", "c/d.mp3")
	dest := f.Path("audio", "MP3")

	r := newRelocator(t, naming.PolicySuffix, false)
	for _, file := range files {
		_, err := r.Relocate(file, dest)
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{
		"audio/MP3/a.mp3",
		"audio/MP3/b.mp3",
		"audio/MP3/d.mp3",
	}, f.ListFiles())
}

func TestRelocateCollisionPolicies(t *testing.T) {
	tests := []struct {
		name      string
		policy    naming.Policy
		wantFinal string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:      "suffix keeps both",
			policy:    naming.PolicySuffix,
			wantFinal: "documents/TXT/notes_1.txt",
			wantFiles: []string{"documents/TXT/notes.txt", "documents/TXT/notes_1.txt"},
		},
		{
			name:      "error leaves source in place",
			policy:    naming.PolicyError,
			wantErr:   true,
			wantFiles: []string{"documents/TXT/notes.txt", "sub/notes.txt"},
		},
		{
			name:      "overwrite replaces",
			policy:    naming.PolicyOverwrite,
			wantFinal: "documents/TXT/notes.txt",
			wantFiles: []string{"documents/TXT/notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFixture(t)
			f.CreateFile("documents/TXT/notes.txt", []byte("old"))
			src := f.CreateFile("sub/notes.txt", []byte("new"))

			final, err := newRelocator(t, tt.policy, false).Relocate(src, f.Path("documents", "TXT"))
			if tt.wantErr {
				var opErr *OpError
				require.ErrorAs(t, err, &opErr)
				assert.Equal(t, ErrorExists, opErr.Reason)
				assert.ErrorIs(t, err, naming.ErrDestinationExists)
			} else {
				require.NoError(t, err)
				assert.Equal(t, f.Path(tt.wantFinal), final)
				f.AssertFileContent(final, "new")
			}
			assert.ElementsMatch(t, tt.wantFiles, f.ListFiles())
		})
	}
}

func TestRelocateSameNameWithinRun(t *testing.T) {
	f := testutil.NewFixture(t)
	first := f.CreateFile("x/photo.png", []byte("1"))
	second := f.CreateFile("y/photo.png", []byte("2"))
	dest := f.Path("images", "PNG")

	r := newRelocator(t, naming.PolicySuffix, false)
	a, err := r.Relocate(first, dest)
	require.NoError(t, err)
	b, err := r.Relocate(second, dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "photo.png"), a)
	assert.Equal(t, filepath.Join(dest, "photo_1.png"), b)
	f.AssertFileContent(a, "1")
	f.AssertFileContent(b, "2")
}

func TestRelocateDryRun(t *testing.T) {
	f := testutil.NewFixture(t)
	src := f.CreateFile("a b.pdf", []byte("doc"))
	before := f.ListFiles()

	final, err := newRelocator(t, naming.PolicySuffix, true).Relocate(src, f.Path("documents", "PDF"))
	require.NoError(t, err)

	assert.Equal(t, f.Path("documents", "PDF", "a_b.pdf"), final)
	assert.Equal(t, before, f.ListFiles())
	assert.False(t, f.FileExists(f.Path("documents")))
}

func TestRelocateMissingSource(t *testing.T) {
	f := testutil.NewFixture(t)

	_, err := newRelocator(t, naming.PolicySuffix, false).Relocate(f.Path("gone.jpg"), f.Path("images", "JPG"))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrorNotFound, opErr.Reason)
}
