package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanner(t *testing.T, patterns ...string) *Scanner {
	t.Helper()
	s, err := New(patterns)
	require.NoError(t, err)
	return s
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestScanClassifiesFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	jpg := f.CreateFile("a.JPG", []byte("img"))
	zip := f.CreateFile("sub/b.zip", []byte("zip"))
	xyz := f.CreateFile("notes.xyz", []byte("?"))
	noExt := f.CreateFile("deep/er/README", []byte("readme"))

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{jpg}, state.Registry.Files("JPG"))
	assert.Equal(t, []string{zip}, state.Registry.Files("ZIP"))
	assert.ElementsMatch(t, []string{xyz, noExt}, state.Unclassified)
	assert.Equal(t, []string{"XYZ"}, state.UnknownExtensions())
	assert.Equal(t, 4, state.FileCount())
	assert.Equal(t, int64(len("img")+len("zip")+1+len("readme")), state.TotalSize)
	assert.Equal(t, int64(3), state.Size(jpg))
}

func TestScanEveryFileAccountedOnce(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("1.png", "2.PNG", "x/3.mp3", "x/y/4.docx", "x/y/z/5.bin", "6", "x/7.tar")

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, files := range state.Registry.NonEmpty() {
		for _, p := range files {
			seen[p]++
		}
	}
	for _, p := range state.Unclassified {
		seen[p]++
	}

	assert.Len(t, seen, 7)
	for p, n := range seen {
		assert.Equal(t, 1, n, p)
	}
}

func TestScanUnknownExtensionsDeduplicated(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("a.xyz", "b.XYZ", "c.Xyz", "d.abc")

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"ABC", "XYZ"}, state.UnknownExtensions())
	assert.Len(t, state.Unclassified, 4)
}

func TestScanNoExtensionNotInUnknownSet(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("Makefile", ".env", "trailing.")

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Empty(t, state.UnknownExtensions())
	assert.Len(t, state.Unclassified, 3)
}

// =============================================================================
// Directory Tests
// =============================================================================

func TestScanDirectoriesPreOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDir("a/b/c")
	f.CreateDir("a/d")
	f.CreateDir("e")

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		f.Path("a"),
		f.Path("a", "b"),
		f.Path("a", "b", "c"),
		f.Path("a", "d"),
		f.Path("e"),
	}, state.Directories)
}

func TestScanSkipsReservedRoots(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles(
		"images/JPG/old.jpg",
		"audio/x.mp3",
		"video/y.mp4",
		"documents/TXT/z.txt",
		"archives/ZIP/a.zip",
		"not_defined/q.xyz",
		"nested/images/deep.png",
		"keep.png",
	)

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{f.Path("keep.png")}, state.Registry.Files("PNG"))
	assert.Equal(t, 1, state.FileCount())
	assert.Equal(t, []string{f.Path("nested")}, state.Directories)
}

func TestScanReservedNamesAreCaseSensitive(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("Images/a.png")

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{f.Path("Images")}, state.Directories)
	assert.Len(t, state.Registry.Files("PNG"), 1)
}

func TestScanRootNotRecorded(t *testing.T) {
	f := testutil.NewFixture(t)

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Empty(t, state.Directories)
	assert.Zero(t, state.FileCount())
	assert.Equal(t, f.RootDir, state.Root)
}

func TestScanSymlinkTreatedAsFile(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateDir("real")
	f.CreateFile("real/a.txt", []byte("a"))
	link := f.CreateSymlink(target, "link")

	state, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{f.Path("real")}, state.Directories)
	assert.Contains(t, state.Unclassified, link)
}

func TestScanRelativeRootIsMadeAbsolute(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("a.txt")

	t.Chdir(f.RootDir)

	state, err := newScanner(t).Scan(context.Background(), ".")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(state.Root))
	require.Len(t, state.Registry.Files("TXT"), 1)
	assert.True(t, filepath.IsAbs(state.Registry.Files("TXT")[0]))
}

func TestScanDoesNotMutate(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("a.jpg", "sub/b.zip", "sub/c.xyz")
	before := f.ListFiles()

	_, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, before, f.ListFiles())
}

// =============================================================================
// Exclude Pattern Tests
// =============================================================================

func TestScanExcludePatterns(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("keep.txt", "skip.tmp", ".git/config", "sub/also.tmp")

	state, err := newScanner(t, "*.tmp", ".git").Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{f.Path("keep.txt")}, state.Registry.Files("TXT"))
	assert.ElementsMatch(t, []string{f.Path("skip.tmp"), f.Path(".git"), f.Path("sub", "also.tmp")}, state.Excluded)
	assert.Equal(t, []string{f.Path("sub")}, state.Directories)
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New([]string{"../*"})
	assert.Error(t, err)
}

// =============================================================================
// Failure Tests
// =============================================================================

func TestScanNonExistentRoot(t *testing.T) {
	f := testutil.NewFixture(t)

	_, err := newScanner(t).Scan(context.Background(), f.Path("missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestScanPermissionDeniedAborts(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	f.CreateFiles("a.txt")
	f.CreateNoPermissionDir("locked")

	_, err := newScanner(t).Scan(context.Background(), f.RootDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestScanCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("a.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(t).Scan(ctx, f.RootDir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanPublishesProgress(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFiles("a.txt", "b/c.txt")

	s := newScanner(t)
	pr := progress.NewReporter()
	s.SetProgressReporter(pr)

	_, err := s.Scan(context.Background(), f.RootDir)
	require.NoError(t, err)

	last := pr.Last()
	require.NotNil(t, last)
	assert.Equal(t, progress.PhaseScanning, last.Phase)
	assert.Equal(t, 2, last.Done)
}
