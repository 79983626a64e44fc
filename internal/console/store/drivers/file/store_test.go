package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/file"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	s, err := file.NewStore(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	storetest.Run(t, s)
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := file.NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "auth", []byte("sealed")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "auth", entries[0].Name())
}

func TestInvalidKeys(t *testing.T) {
	t.Parallel()

	s, err := file.NewStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"", ".hidden", "../escape", "a/b", "sp ace"} {
		t.Run(key, func(t *testing.T) {
			_, err := s.Get(ctx, key)
			require.ErrorIs(t, err, file.ErrInvalidKey)
			require.ErrorIs(t, s.Put(ctx, key, []byte("x")), file.ErrInvalidKey)
			require.ErrorIs(t, s.Delete(ctx, key), file.ErrInvalidKey)
		})
	}
}

func TestNewStoreRequiresDirectory(t *testing.T) {
	t.Parallel()

	_, err := file.NewStore("")
	require.Error(t, err)
}

func TestPingFailsWhenDirectoryRemoved(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "state")
	s, err := file.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	require.Error(t, s.Ping(context.Background()))
}

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watcher, err := file.NewStore(dir)
	require.NoError(t, err)
	writer, err := file.NewStore(dir)
	require.NoError(t, err)

	storetest.RunWatch(t, watcher, writer)
}
