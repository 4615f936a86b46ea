package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/linker"
	"github.com/DonovanMods/twlm/internal/pack/packtest"
	"github.com/DonovanMods/twlm/internal/storage/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assemblyFixture struct {
	game    *domain.Game
	cfg     *domain.GameConfig
	codec   *packtest.Codec
	staging *staging.Staging
	base    string
	asm     *Assembler
}

// newAssemblyFixture creates a game whose data folder holds one pack per id
func newAssemblyFixture(t *testing.T, family domain.Family, ids ...string) *assemblyFixture {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")

	f := &assemblyFixture{
		game:  &domain.Game{Key: family.String(), Family: family, InstallPath: root, DataPath: data},
		cfg:   domain.NewGameConfig(family.String()),
		codec: packtest.New(),
		base:  filepath.Join(root, "temp_packs"),
	}
	for i, id := range ids {
		path := filepath.Join(data, strings.ToLower(id)+".pack")
		writePack(t, path, domain.PackMod, id)
		f.cfg.Mods[id] = &domain.Mod{ID: id, FilePath: path, Enabled: true, Order: i}
	}
	f.staging = staging.New(f.base)
	f.asm = NewAssembler(f.codec, f.staging, linker.NewSymlink(), nil)
	return f
}

// leftovers lists everything under the staging base
func (f *assemblyFixture) leftovers(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.base)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAssemble_StagesPacksAndLoadOrder(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer3, "X", "Y")

	asm, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"Y", "X"}, Options{})
	require.NoError(t, err)

	final := f.staging.Path("warhammer_3")
	assert.Equal(t, final, asm.Dir)
	assert.Equal(t, filepath.Join(final, LoadOrderFileName), asm.LoadOrderFile)
	assert.Equal(t, []string{filepath.Join(final, "y.pack"), filepath.Join(final, "x.pack")}, asm.Packs)
	assert.Equal(t, []string{asm.LoadOrderFile + ";"}, asm.Args)

	content, err := os.ReadFile(asm.LoadOrderFile)
	require.NoError(t, err)
	assert.Equal(t, "add_working_directory \""+filepath.ToSlash(final)+"\";\nmod \"y.pack\";\nmod \"x.pack\";\n", string(content))

	files, err := f.staging.ListFiles("warhammer_3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"used_mods.txt", "x.pack", "y.pack"}, files)

	info, err := os.Lstat(filepath.Join(final, "x.pack"))
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)
	assert.Equal(t, []string{"warhammer_3"}, f.leftovers(t))
}

func TestAssemble_MissingBackingFile(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer3, "X", "Y")
	require.NoError(t, os.Remove(f.cfg.Mods["Y"].FilePath))

	_, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X", "Y"}, Options{ScriptLogging: true})
	require.Error(t, err)

	var asmErr *domain.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, StepValidate, asmErr.Step)

	var missing *domain.MissingModError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Y", missing.ID)
	assert.ErrorIs(t, err, domain.ErrModNotFound)

	files, err := f.staging.ListFiles("warhammer_3")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, f.leftovers(t))
	assert.Empty(t, f.codec.Calls)
}

func TestAssemble_UnknownID(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyTroy, "X")
	_, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"ghost"}, Options{})

	var missing *domain.MissingModError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ghost", missing.ID)
}

func TestAssemble_FailureKeepsPreviousStaging(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer3, "X")
	first, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X"}, Options{})
	require.NoError(t, err)

	f.codec.FailOn["write"] = errors.New("disk full")
	_, err = f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X"}, Options{SkipIntro: true})

	var asmErr *domain.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, StepTransform, asmErr.Step)
	var codecErr *domain.CodecError
	assert.ErrorAs(t, err, &codecErr)

	content, err := os.ReadFile(first.LoadOrderFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), reservedPackName)
	assert.Equal(t, []string{"warhammer_3"}, f.leftovers(t))
}

func TestAssemble_CancelledContext(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer2, "X")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.asm.Assemble(ctx, f.game, f.cfg, []string{"X"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.leftovers(t))
}

func TestAssemble_DuplicateFileNames(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer3)
	for _, id := range []string{"111", "222"} {
		path := filepath.Join(f.game.InstallPath, "workshop", id, "shared.pack")
		writePack(t, path, domain.PackMod, id)
		f.cfg.Mods[id] = &domain.Mod{ID: id, SteamID: id, FilePath: path, Enabled: true}
	}

	asm, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"222", "111"}, Options{})
	require.NoError(t, err)

	var names []string
	for _, p := range asm.Packs {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"222_shared.pack", "111_shared.pack"}, names)
}

func TestAssemble_Transforms(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer3, "X")

	asm, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X"}, Options{ScriptLogging: true, SkipIntro: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(asm.Dir, reservedPackName), asm.Packs[len(asm.Packs)-1])
	reserved, ok := f.codec.ByName(reservedPackName)
	require.True(t, ok)
	assert.Contains(t, reserved.Entries, scriptLoggingPath)
	assert.Contains(t, reserved.Entries, "movies/epilepsy_warning/epilepsy_warning_en.ca_vp8")
	assert.Len(t, reserved.Entries["movies/gam_int.ca_vp8"], 595)

	content, err := os.ReadFile(asm.LoadOrderFile)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(content), "mod \"x.pack\";\nmod \""+reservedPackName+"\";\n"))
	assert.FileExists(t, filepath.Join(asm.Dir, reservedPackName))
}

func TestAssemble_UnsupportedTransformsAreSkipped(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyAttila, "X")

	asm, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X"}, Options{ScriptLogging: true, SkipIntro: true, UnitMultiplier: 2})
	require.NoError(t, err)

	assert.Len(t, asm.Packs, 1)
	assert.Empty(t, f.codec.Calls)
}

func TestAssemble_MergeAllMods(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer2, "X", "Y")

	asm, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X", "Y"}, Options{MergeAllMods: true})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(asm.Dir, mergedPackName)}, asm.Packs)
	assert.Equal(t, []string{"merge " + mergedPackName}, f.codec.Calls)
	merged, ok := f.codec.ByName(mergedPackName)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"x.pack", "y.pack"}, merged.Entries.Paths())

	files, err := f.staging.ListFiles(f.game.Key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{LoadOrderFileName, mergedPackName}, files)
}

func TestAssemble_UnknownFamily(t *testing.T) {
	f := newAssemblyFixture(t, domain.FamilyWarhammer3, "X")
	f.game.Family = domain.FamilyUnknown

	_, err := f.asm.Assemble(context.Background(), f.game, f.cfg, []string{"X"}, Options{})
	var asmErr *domain.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, StepEncode, asmErr.Step)
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestEncodeLoadOrder(t *testing.T) {
	tests := []struct {
		name   string
		family domain.Family
		packs  []string
		want   string
	}{
		{
			name:   "working directory families",
			family: domain.FamilyThreeKingdoms,
			packs:  []string{"a.pack", "b.pack"},
			want:   "add_working_directory \"/stage\";\nmod \"a.pack\";\nmod \"b.pack\";\n",
		},
		{
			name:   "empire has no working directories",
			family: domain.FamilyEmpire,
			packs:  []string{"a.pack"},
			want:   "mod \"a.pack\";\n",
		},
		{
			name:   "names are written raw",
			family: domain.FamilyEmpire,
			packs:  []string{`back\slash.pack`, "ünïcode.pack"},
			want:   "mod \"back\\slash.pack\";\nmod \"ünïcode.pack\";\n",
		},
		{
			name:   "no packs",
			family: domain.FamilyWarhammer3,
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeLoadOrder(tt.family, "/stage", tt.packs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := EncodeLoadOrder(domain.FamilyWarhammer3, "/stage", []string{"bad\"name.pack"})
	assert.Error(t, err)
	_, err = EncodeLoadOrder(domain.FamilyWarhammer3, "/st\rage", []string{"a.pack"})
	assert.Error(t, err)
}
