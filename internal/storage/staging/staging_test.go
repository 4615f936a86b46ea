package staging_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/twlm/internal/storage/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CommitReplacesPrevious(t *testing.T) {
	s := staging.New(t.TempDir())

	first, err := s.Begin("warhammer_3")
	require.NoError(t, err)
	require.NoError(t, first.Store("old.pack", []byte("old")))
	require.NoError(t, first.Commit())

	second, err := s.Begin("warhammer_3")
	require.NoError(t, err)
	require.NoError(t, second.Store("used_mods.txt", []byte("mod \"a.pack\";\n")))
	assert.False(t, fileExists(filepath.Join(s.Path("warhammer_3"), "used_mods.txt")), "not visible before commit")
	require.NoError(t, second.Commit())

	files, err := s.ListFiles("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"used_mods.txt"}, files)
	assert.Equal(t, filepath.Join(s.Path("warhammer_3"), "x.pack"), second.FinalPath("x.pack"))

	entries, err := os.ReadDir(filepath.Dir(s.Path("warhammer_3")))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the previous directory is removed after the swap")
}

func TestRun_FailedCommitKeepsPrevious(t *testing.T) {
	s := staging.New(t.TempDir())

	first, err := s.Begin("warhammer_3")
	require.NoError(t, err)
	require.NoError(t, first.Store("old.pack", []byte("old")))
	require.NoError(t, first.Commit())

	second, err := s.Begin("warhammer_3")
	require.NoError(t, err)
	require.NoError(t, second.Store("new.pack", []byte("new")))

	staging.SetRename(s, func(oldpath, newpath string) error {
		if oldpath == second.Dir() {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	})
	require.ErrorContains(t, second.Commit(), "disk full")

	files, err := s.ListFiles("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"old.pack"}, files)
	require.NoError(t, second.Abort())
}

func TestRun_AbortLeavesNothing(t *testing.T) {
	base := t.TempDir()
	s := staging.New(base)

	run, err := s.Begin("troy")
	require.NoError(t, err)
	require.NoError(t, run.Store("a.pack", []byte("a")))
	require.NoError(t, run.Abort())
	require.NoError(t, run.Abort())

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, s.Exists("troy"))
}

func TestStaging_GamesAreIsolated(t *testing.T) {
	s := staging.New(t.TempDir())

	for _, key := range []string{"troy", "attila"} {
		run, err := s.Begin(key)
		require.NoError(t, err)
		require.NoError(t, run.Store(key+".pack", []byte(key)))
		require.NoError(t, run.Commit())
	}

	require.NoError(t, s.Clear("troy"))
	assert.False(t, s.Exists("troy"))
	assert.True(t, s.Exists("attila"))

	size, err := s.Size("attila")
	require.NoError(t, err)
	assert.Equal(t, int64(len("attila")), size)

	files, err := s.ListFiles("troy")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
