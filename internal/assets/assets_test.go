package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/semrel/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("expands globs and hashes files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "dist/b-linux.tar.gz", "bbb")
		writeFile(t, dir, "dist/a-darwin.tar.gz", "aaa")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist", "nested"), 0755))

		got, err := NewResolver(dir).Resolve(ctx, []string{"dist/*", "dist/a-*"})
		require.NoError(t, err)

		require.Len(t, got, 2)
		assert.Equal(t, "a-darwin.tar.gz", got[0].Name)
		assert.Equal(t, "b-linux.tar.gz", got[1].Name)
		assert.Equal(t, int64(3), got[0].Size)
		// sha256("aaa")
		assert.Equal(t, "9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0", got[0].SHA256)
	})

	t.Run("empty glob is not an error", func(t *testing.T) {
		got, err := NewResolver(t.TempDir()).Resolve(ctx, []string{"dist/*"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing literal path is an error", func(t *testing.T) {
		_, err := NewResolver(t.TempDir()).Resolve(ctx, []string{"dist/server.tar.gz"})
		assert.ErrorIs(t, err, errors.ErrAssetNotFound)
	})
}

func TestChecksums(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.bin", "aaa")

	got, err := NewResolver(dir).Resolve(context.Background(), []string{"x.bin"})
	require.NoError(t, err)

	assert.Equal(t, "9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0  x.bin\n", Checksums(got))
}
