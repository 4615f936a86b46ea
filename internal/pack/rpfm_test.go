package pack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRun struct {
	name string
	args []string
}

func fakeRunner(out []byte, err error, calls *[]recordedRun) runFunc {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedRun{name: name, args: args})
		return out, err
	}
}

func TestRPFMCodec_Merge(t *testing.T) {
	var calls []recordedRun
	c := NewRPFMCodec("rpfm_cli", domain.FamilyWarhammer3, "", nil)
	c.run = fakeRunner(nil, nil, &calls)

	err := c.Merge(context.Background(), "/stage/merged.pack", []string{"/a.pack", "/b.pack"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "rpfm_cli", calls[0].name)
	assert.Equal(t, []string{
		"--game", "warhammer_3", "pack", "merge",
		"--save-pack-path", "/stage/merged.pack",
		"--source-pack-paths", "/a.pack", "/b.pack",
	}, calls[0].args)
}

func TestRPFMCodec_WriteCreatesThenAdds(t *testing.T) {
	var calls []recordedRun
	c := NewRPFMCodec("rpfm_cli", domain.FamilyTroy, "/schemas/schema_troy.ron", nil)
	c.tempDir = t.TempDir()

	var staged string
	c.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, recordedRun{name: name, args: args})
		for i, a := range args {
			if a == "--folder-path" && args[3] == "add" {
				staged = strings.TrimSuffix(args[i+1], ";/")
				content, err := os.ReadFile(filepath.Join(staged, "script", "enable_console_logging"))
				require.NoError(t, err)
				assert.Equal(t, "on", string(content))
			}
		}
		return nil, nil
	}

	p := New(domain.PackMod)
	p.Insert("script/enable_console_logging", []byte("on"))
	require.NoError(t, c.Write(context.Background(), "/stage/twlm.pack", p))

	require.Len(t, calls, 2)
	assert.Equal(t, []string{"--game", "troy", "pack", "create", "--pack-path", "/stage/twlm.pack"}, calls[0].args)
	assert.Equal(t, "add", calls[1].args[3])
	assert.Contains(t, calls[1].args, "--tsv-to-binary")
	assert.Contains(t, calls[1].args, "/schemas/schema_troy.ron")

	_, err := os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "temp folder removed after append")
}

func TestRPFMCodec_WriteEmptySkipsAdd(t *testing.T) {
	var calls []recordedRun
	c := NewRPFMCodec("rpfm_cli", domain.FamilyWarhammer3, "", nil)
	c.run = fakeRunner(nil, nil, &calls)

	require.NoError(t, c.Write(context.Background(), "/stage/empty.pack", New(domain.PackMod)))
	assert.Len(t, calls, 1)
	assert.False(t, c.HasSchema())
}

func TestRPFMCodec_FailureIsCodecError(t *testing.T) {
	var calls []recordedRun
	c := NewRPFMCodec("rpfm_cli", domain.FamilyWarhammer3, "", nil)
	c.run = fakeRunner([]byte("Error: pack is locked\n"), errors.New("exit status 1"), &calls)

	err := c.Merge(context.Background(), "/stage/merged.pack", []string{"/a.pack"})
	require.Error(t, err)

	var codecErr *domain.CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, "merge", codecErr.Op)
	assert.Equal(t, "/stage/merged.pack", codecErr.Path)
	assert.Contains(t, err.Error(), "pack is locked")
}

func TestRPFMCodec_ReadLoadsExtractedFiles(t *testing.T) {
	dir := t.TempDir()
	packPath := filepath.Join(dir, "mod.pack")
	require.NoError(t, os.WriteFile(packPath, EncodeHeader(domain.PackMod), 0644))

	c := NewRPFMCodec("rpfm_cli", domain.FamilyWarhammer3, "", nil)
	c.tempDir = t.TempDir()
	c.run = func(_ context.Context, _ string, args ...string) ([]byte, error) {
		target := strings.TrimPrefix(args[len(args)-1], "/;")
		file := filepath.Join(target, "db", "units_tables", "my_units")
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
		return nil, os.WriteFile(file, []byte("binary"), 0644)
	}

	p, err := c.Read(context.Background(), packPath)
	require.NoError(t, err)
	assert.Equal(t, domain.PackMod, p.Type)
	assert.Equal(t, []byte("binary"), p.Entries["db/units_tables/my_units"])
}

func TestRPFMCodec_ReadRejectsNonPack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.pack")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	c := NewRPFMCodec("rpfm_cli", domain.FamilyWarhammer3, "", nil)
	_, err := c.Read(context.Background(), path)

	var codecErr *domain.CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.ErrorIs(t, err, ErrNotAPack)
}
