package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/linker"
	"github.com/DonovanMods/twlm/internal/logger"
	"github.com/DonovanMods/twlm/internal/pack"
	"github.com/DonovanMods/twlm/internal/storage/staging"

	"go.uber.org/zap"
)

// Assembly steps, in the order they run
const (
	StepValidate  = "validate"
	StepEncode    = "encode"
	StepTransform = "transform"
	StepStage     = "stage"
)

const (
	// LoadOrderFileName is the mod list the game reads at startup
	LoadOrderFileName = "used_mods.txt"
	reservedPackName  = "twlm_reserved.pack"
	mergedPackName    = "twlm_merged.pack"
)

// Assembly is the staged result handed to the launcher
type Assembly struct {
	GameKey       string
	Dir           string   // Committed staging directory
	LoadOrderFile string   // Absolute path of used_mods.txt
	Packs         []string // Staged packs in load order
	Args          []string // Launch arguments
}

// Assembler prepares the pack set a game will load
type Assembler struct {
	codec   pack.Codec
	staging *staging.Staging
	linker  linker.Linker
	log     *zap.Logger
}

// NewAssembler creates an assembler. Codecs that implement
// HasSchema() bool gate the unit multiplier on a loaded schema.
func NewAssembler(codec pack.Codec, stg *staging.Staging, lnk linker.Linker, log *zap.Logger) *Assembler {
	log = logger.OrNop(log)
	if lnk == nil {
		lnk = linker.NewSymlink()
	}
	return &Assembler{codec: codec, staging: stg, linker: lnk, log: log}
}

// plannedPack is a pack that will be placed in staging under name
type plannedPack struct {
	name string
	src  string
}

// Assemble validates the mods in ids, encodes the load order, applies the
// pre-launch transforms and commits everything to the game's staging
// directory. On failure nothing is committed and the error is an
// *domain.AssemblyError naming the failing step.
func (a *Assembler) Assemble(ctx context.Context, game *domain.Game, cfg *domain.GameConfig, ids []string, opts Options) (*Assembly, error) {
	mods, err := validateMods(cfg, ids)
	if err != nil {
		return nil, &domain.AssemblyError{Step: StepValidate, Err: err}
	}

	tc := &transformContext{
		game:      game,
		caps:      game.Capabilities(),
		opts:      opts,
		hasSchema: codecHasSchema(a.codec),
		reserved:  pack.New(domain.PackMod),
	}
	merge := tc.caps.MergeAllMods && opts.MergeAllMods && len(mods) > 0

	planned := planPacks(mods)
	var names []string
	if merge {
		names = append(names, mergedPackName)
	} else {
		for _, p := range planned {
			names = append(names, p.name)
		}
	}
	if anyTransform(tc) {
		names = append(names, reservedPackName)
	}

	finalDir := a.staging.Path(game.Key)
	loadOrder, err := EncodeLoadOrder(game.Family, finalDir, names)
	if err != nil {
		return nil, &domain.AssemblyError{Step: StepEncode, Err: err}
	}

	run, err := a.staging.Begin(game.Key)
	if err != nil {
		return nil, &domain.AssemblyError{Step: StepStage, Err: err}
	}
	defer func() {
		if err := run.Abort(); err != nil {
			a.log.Warn("discarding staging run", zap.String("game", game.Key), zap.Error(err))
		}
	}()

	if err := applyTransforms(ctx, tc); err != nil {
		return nil, &domain.AssemblyError{Step: StepTransform, Err: err}
	}
	if len(tc.reserved.Entries) > 0 {
		if err := a.codec.Write(ctx, filepath.Join(run.Dir(), reservedPackName), tc.reserved); err != nil {
			return nil, &domain.AssemblyError{Step: StepTransform, Err: err}
		}
	}
	if merge {
		srcs := make([]string, len(mods))
		for i, m := range mods {
			srcs[i] = m.FilePath
		}
		if err := a.codec.Merge(ctx, filepath.Join(run.Dir(), mergedPackName), srcs); err != nil {
			return nil, &domain.AssemblyError{Step: StepTransform, Err: fmt.Errorf("merge all mods: %w", err)}
		}
	} else {
		for _, p := range planned {
			if err := a.linker.Place(p.src, filepath.Join(run.Dir(), p.name)); err != nil {
				return nil, &domain.AssemblyError{Step: StepStage, Err: err}
			}
		}
	}

	if err := run.Store(LoadOrderFileName, []byte(loadOrder)); err != nil {
		return nil, &domain.AssemblyError{Step: StepStage, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.AssemblyError{Step: StepStage, Err: err}
	}
	if err := run.Commit(); err != nil {
		return nil, &domain.AssemblyError{Step: StepStage, Err: err}
	}

	asm := &Assembly{
		GameKey:       game.Key,
		Dir:           finalDir,
		LoadOrderFile: filepath.Join(finalDir, LoadOrderFileName),
	}
	for _, name := range names {
		asm.Packs = append(asm.Packs, filepath.Join(finalDir, name))
	}
	asm.Args = BuildLaunchArgs(game, asm)

	a.log.Info("assembly staged",
		zap.String("game", game.Key),
		zap.Int("mods", len(mods)),
		zap.Bool("merged", merge),
		zap.Int("transformed_entries", len(tc.reserved.Entries)))
	return asm, nil
}

// validateMods resolves ids to mods whose backing file can be opened
func validateMods(cfg *domain.GameConfig, ids []string) ([]*domain.Mod, error) {
	mods := make([]*domain.Mod, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		m, ok := cfg.Mods[id]
		if !ok || m.FilePath == "" {
			return nil, &domain.MissingModError{ID: id}
		}
		f, err := os.Open(m.FilePath)
		if err != nil {
			return nil, &domain.MissingModError{ID: id, Path: m.FilePath}
		}
		f.Close()
		mods = append(mods, m)
	}
	return mods, nil
}

// planPacks picks a unique staging name for each mod, prefixing the id when
// two mods share a file name.
func planPacks(mods []*domain.Mod) []plannedPack {
	count := make(map[string]int)
	for _, m := range mods {
		count[strings.ToLower(m.FileName())]++
	}
	planned := make([]plannedPack, len(mods))
	for i, m := range mods {
		name := m.FileName()
		if count[strings.ToLower(name)] > 1 {
			name = m.ID + "_" + name
		}
		planned[i] = plannedPack{name: name, src: m.FilePath}
	}
	return planned
}

func codecHasSchema(c pack.Codec) bool {
	s, ok := c.(interface{ HasSchema() bool })
	return ok && s.HasSchema()
}

// EncodeLoadOrder renders the mod list file for a family. Families that
// accept extra working directories load the packs straight from dir.
func EncodeLoadOrder(family domain.Family, dir string, packs []string) (string, error) {
	if family == domain.FamilyUnknown {
		return "", fmt.Errorf("unknown game family: %w", domain.ErrUnsupported)
	}

	var b strings.Builder
	if family.Capabilities().WorkingDirs && len(packs) > 0 {
		dir = filepath.ToSlash(dir)
		if !encodable(dir) {
			return "", fmt.Errorf("staging path %q cannot be encoded", dir)
		}
		b.WriteString("add_working_directory \"" + dir + "\";\n")
	}
	for _, name := range packs {
		if !encodable(name) {
			return "", fmt.Errorf("pack name %q cannot be encoded", name)
		}
		b.WriteString("mod \"" + name + "\";\n")
	}
	return b.String(), nil
}

// encodable reports whether s fits between the quotes of a mod list line.
// The game reads the text raw, with no escapes.
func encodable(s string) bool {
	return !strings.ContainsAny(s, "\"\r\n")
}
