package organizer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fenilsonani/sortdir/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Prune Tests
// =============================================================================

func TestPruneNestedEmptyDirectories(t *testing.T) {
	f := testutil.NewFixture(t)
	dirs := []string{
		f.CreateDir("a"),
		f.CreateDir("a/b"),
		f.CreateDir("a/b/c"),
		f.CreateDir("d"),
	}

	pruned, failures, err := Prune(context.Background(), dirs, nil)
	require.NoError(t, err)

	assert.Empty(t, failures)
	assert.Equal(t, []string{f.Path("d"), f.Path("a", "b", "c"), f.Path("a", "b"), f.Path("a")}, pruned)
	assert.False(t, f.FileExists(f.Path("a")))
}

func TestPruneReportsNonEmpty(t *testing.T) {
	f := testutil.NewFixture(t)
	dirs := []string{f.CreateDir("keep"), f.CreateDir("keep/inner"), f.CreateDir("empty")}
	f.CreateFile("keep/inner/left.txt", []byte("x"))

	pruned, failures, err := Prune(context.Background(), dirs, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{f.Path("empty")}, pruned)
	assert.Equal(t, []PruneFailure{
		{Path: f.Path("keep", "inner"), Reason: ErrorNotEmpty.String()},
		{Path: f.Path("keep"), Reason: ErrorNotEmpty.String()},
	}, failures)
	f.AssertFileExists(f.Path("keep", "inner", "left.txt"))
}

func TestPruneFailureLoggedAtWarn(t *testing.T) {
	f := testutil.NewFixture(t)
	dir := f.CreateDir("keep")
	f.CreateFile("keep/left.txt", []byte("x"))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	_, failures, err := Prune(context.Background(), []string{dir}, logger)
	require.NoError(t, err)
	require.Len(t, failures, 1)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "directory not pruned")
	assert.Contains(t, buf.String(), dir)
}

func TestPruneMissingDirectoryIsReported(t *testing.T) {
	f := testutil.NewFixture(t)

	pruned, failures, err := Prune(context.Background(), []string{f.Path("gone")}, nil)
	require.NoError(t, err)

	assert.Empty(t, pruned)
	require.Len(t, failures, 1)
	assert.Equal(t, ErrorNotFound.String(), failures[0].Reason)
}

func TestPruneCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	dir := f.CreateDir("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Prune(ctx, []string{dir}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	f.AssertFileExists(dir)
}
