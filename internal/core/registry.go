package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"
	"github.com/DonovanMods/twlm/internal/pack"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const packExt = ".pack"

// Scanner discovers pack files on disk for a game
type Scanner struct {
	log     *zap.Logger
	workers int
}

// NewScanner creates a scanner that hashes files with up to GOMAXPROCS workers
func NewScanner(log *zap.Logger) *Scanner {
	log = logger.OrNop(log)
	return &Scanner{log: log, workers: runtime.GOMAXPROCS(0)}
}

// ScanLocal produces one Mod per pack found in the game's data directory and
// Workshop content directory. Missing directories are treated as empty.
func (s *Scanner) ScanLocal(ctx context.Context, game *domain.Game) (map[string]*domain.Mod, error) {
	var found []*domain.Mod

	dataPacks, err := listPacks(game.DataPath)
	if err != nil {
		return nil, err
	}
	for _, path := range dataPacks {
		if game.IsVanilla(filepath.Base(path)) {
			continue
		}
		found = append(found, &domain.Mod{ID: domain.DeriveLocalID(path), FilePath: path})
	}

	workshop, err := s.scanWorkshop(game.ContentPath)
	if err != nil {
		return nil, err
	}
	found = append(found, workshop...)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, mod := range found {
		mod := mod
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.inspect(mod)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mods := make(map[string]*domain.Mod, len(found))
	for _, mod := range found {
		if _, dup := mods[mod.ID]; dup {
			s.log.Warn("duplicate pack id, keeping first", zap.String("id", mod.ID), zap.String("path", mod.FilePath))
			continue
		}
		mods[mod.ID] = mod
	}

	s.log.Info("scan complete", zap.String("game", game.Key), zap.Int("mods", len(mods)))
	return mods, nil
}

// scanWorkshop walks <content>/<workshop id>/*.pack. The first pack of an
// item takes the Workshop id; any further packs get a local id but keep the
// Workshop id as SteamID.
func (s *Scanner) scanWorkshop(contentPath string) ([]*domain.Mod, error) {
	if contentPath == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(contentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.IOError{Op: "scan", Path: contentPath, Err: err}
	}

	var mods []*domain.Mod
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		steamID := e.Name()
		packs, err := listPacks(filepath.Join(contentPath, steamID))
		if err != nil {
			return nil, err
		}
		for i, path := range packs {
			id := steamID
			if i > 0 {
				id = domain.DeriveLocalID(path)
			}
			mods = append(mods, &domain.Mod{ID: id, FilePath: path, SteamID: steamID})
		}
	}
	return mods, nil
}

// inspect fills in the file fields of a scanned mod
func (s *Scanner) inspect(mod *domain.Mod) error {
	info, err := os.Stat(mod.FilePath)
	if err != nil {
		return &domain.IOError{Op: "stat", Path: mod.FilePath, Err: err}
	}
	mod.FileSize = info.Size()
	mod.ModTime = info.ModTime()

	hash, err := hashFile(mod.FilePath)
	if err != nil {
		return err
	}
	mod.Hash = hash

	t, err := pack.ReadType(mod.FilePath)
	if err != nil {
		s.log.Debug("unreadable pack header, treating as mod pack", zap.String("path", mod.FilePath), zap.Error(err))
	}
	mod.PackType = t
	return nil
}

// listPacks returns the .pack files directly inside dir in name order
func listPacks(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.IOError{Op: "scan", Path: dir, Err: err}
	}

	var packs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), packExt) {
			continue
		}
		packs = append(packs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(packs)
	return packs, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &domain.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &domain.IOError{Op: "hash", Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MergeResult reports what MergeOnline did
type MergeResult struct {
	Applied int // Mods that received a record
	Stale   int // Matching records skipped as older than the last update
}

// MergeOnline copies online metadata onto the mods whose Workshop id matches
// a record. Records updated before lastUpdate were already applied and are
// skipped. records must be a complete source response: mods no record refers
// to are flagged local-only. No mod is ever removed.
func MergeOnline(mods map[string]*domain.Mod, records []domain.OnlineRecord, lastUpdate time.Time) MergeResult {
	return mergeRecords(mods, records, lastUpdate, true)
}

// mergeRecords applies records to mods. Without a complete response a missing
// record says nothing about the Workshop, so only mods with no Workshop id are
// flagged local-only.
func mergeRecords(mods map[string]*domain.Mod, records []domain.OnlineRecord, lastUpdate time.Time, complete bool) MergeResult {
	bySteamID := make(map[string][]*domain.Mod)
	for _, m := range mods {
		if m.SteamID != "" {
			bySteamID[m.SteamID] = append(bySteamID[m.SteamID], m)
		}
	}

	var result MergeResult
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[rec.ID] = true
		targets := bySteamID[rec.ID]
		if len(targets) == 0 {
			continue
		}
		if !lastUpdate.IsZero() && rec.TimeUpdated.Before(lastUpdate) {
			result.Stale++
			continue
		}
		for _, m := range targets {
			applyRecord(m, rec)
			result.Applied++
		}
	}

	for _, m := range mods {
		switch {
		case m.SteamID == "":
			m.LocalOnly = true
		case complete && !seen[m.SteamID]:
			m.LocalOnly = true
		}
	}
	return result
}

func applyRecord(m *domain.Mod, rec domain.OnlineRecord) {
	m.Name = rec.Title
	m.Creator = rec.Creator
	if rec.FileSize > 0 {
		m.FileSize = rec.FileSize
	}
	m.Online = &domain.OnlineMetadata{
		Description:   rec.Description,
		FileURL:       rec.FileURL,
		PreviewURL:    rec.PreviewURL,
		TimeCreated:   rec.TimeCreated,
		TimeUpdated:   rec.TimeUpdated,
		Subscriptions: rec.Subscriptions,
		Votes:         rec.Votes,
	}
	m.LocalOnly = false
	m.Outdated = !m.ModTime.IsZero() && m.ModTime.Before(rec.TimeUpdated)
}

// Reconcile combines a fresh scan with the persisted config and returns a new
// config. The scan wins for file data; the persisted entry wins for enabled,
// category, order and online metadata. Mods whose file vanished are dropped.
// A mod whose category no longer exists falls back to Unassigned, after the
// mods already there, and new mods join the end of Unassigned disabled.
// The inputs are not modified.
func Reconcile(persisted *domain.GameConfig, scanned map[string]*domain.Mod) *domain.GameConfig {
	out := domain.NewGameConfig(persisted.GameKey)
	out.Categories = append([]string(nil), persisted.Categories...)

	// Walk persisted mods category by category so relative order survives
	var orphaned []*domain.Mod
	for _, cat := range persisted.AllCategories() {
		for _, old := range persisted.ModsIn(cat) {
			fresh, ok := scanned[old.ID]
			if !ok {
				continue
			}
			out.Mods[old.ID] = rescanned(old, fresh)
		}
	}
	// Mods whose category is not listed at all
	for _, id := range persisted.SortedIDs() {
		old := persisted.Mods[id]
		if _, done := out.Mods[id]; done || persisted.HasCategory(old.CategoryName()) {
			continue
		}
		if fresh, ok := scanned[id]; ok {
			out.Mods[id] = rescanned(old, fresh)
		}
	}

	renumberAll(out)
	for _, id := range out.SortedIDs() {
		if m := out.Mods[id]; !out.HasCategory(m.CategoryName()) {
			orphaned = append(orphaned, m)
		}
	}
	sort.SliceStable(orphaned, func(i, j int) bool { return orphaned[i].Order < orphaned[j].Order })
	next := len(out.ModsIn(domain.UnassignedCategory))
	for _, m := range orphaned {
		m.SetCategory(domain.UnassignedCategory)
		m.SetOrder(next)
		next++
	}

	ids := make([]string, 0, len(scanned))
	for id := range scanned {
		if _, ok := out.Mods[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		m := scanned[id].Clone()
		m.Enabled = false
		m.Category = ""
		m.Order = next
		next++
		out.Mods[id] = m
	}

	out.LoadOrder = filterLoadOrder(out, persisted.LoadOrder)
	return out
}

// rescanned copies the file fields of a fresh scan onto a clone of old
func rescanned(old, fresh *domain.Mod) *domain.Mod {
	m := old.Clone()
	m.FilePath = fresh.FilePath
	m.FileSize = fresh.FileSize
	m.Hash = fresh.Hash
	m.PackType = fresh.PackType
	m.ModTime = fresh.ModTime
	m.SteamID = fresh.SteamID
	if m.Online != nil {
		m.Outdated = m.ModTime.Before(m.Online.TimeUpdated)
	}
	return m
}

// filterLoadOrder keeps the ids of order that still exist and are enabled
func filterLoadOrder(cfg *domain.GameConfig, order []string) []string {
	var out []string
	used := make(map[string]bool)
	for _, id := range order {
		m, ok := cfg.Mods[id]
		if !ok || !m.Enabled || used[id] {
			continue
		}
		used[id] = true
		out = append(out, id)
	}
	return out
}

// renumberAll makes the order indices of every category dense from zero
func renumberAll(cfg *domain.GameConfig) {
	for _, cat := range cfg.AllCategories() {
		for i, m := range cfg.ModsIn(cat) {
			m.SetOrder(i)
		}
	}
}

// OnlineSource is the subset of a metadata source used to refresh mods
type OnlineSource interface {
	FetchRecords(ctx context.Context, ids []string) ([]domain.OnlineRecord, error)
}

// MetadataCache stores online records between runs
type MetadataCache interface {
	SaveOnlineRecords(gameKey string, records []domain.OnlineRecord) error
	GetOnlineRecords(gameKey string, ids []string) ([]domain.OnlineRecord, error)
	LastUpdate(gameKey string) (time.Time, error)
	SetLastUpdate(gameKey string, ts time.Time) error
}

// workshopIDs returns the distinct Workshop ids of cfg's mods, sorted
func workshopIDs(cfg *domain.GameConfig) []string {
	set := make(map[string]bool)
	for _, m := range cfg.Mods {
		if m.SteamID != "" {
			set[m.SteamID] = true
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RefreshOnline fetches records for every Workshop mod in cfg, caches them and
// merges them into cfg. Mods that have never received metadata ignore the
// last-update cutoff so a new subscription is filled in on its first refresh.
// With a nil src only cached records are applied.
func RefreshOnline(ctx context.Context, src OnlineSource, cache MetadataCache, cfg *domain.GameConfig, now time.Time) (MergeResult, error) {
	ids := workshopIDs(cfg)
	if len(ids) == 0 {
		return MergeResult{}, nil
	}

	lastUpdate, err := cache.LastUpdate(cfg.GameKey)
	if err != nil {
		return MergeResult{}, fmt.Errorf("reading last update: %w", err)
	}

	var records []domain.OnlineRecord
	if src != nil {
		records, err = src.FetchRecords(ctx, ids)
		if err != nil {
			return MergeResult{}, fmt.Errorf("fetching online metadata: %w", err)
		}
		if err := cache.SaveOnlineRecords(cfg.GameKey, records); err != nil {
			return MergeResult{}, fmt.Errorf("caching online metadata: %w", err)
		}
	} else {
		records, err = cache.GetOnlineRecords(cfg.GameKey, ids)
		if err != nil {
			return MergeResult{}, fmt.Errorf("reading cached metadata: %w", err)
		}
		lastUpdate = time.Time{}
	}

	fresh := make(map[string]*domain.Mod)
	known := make(map[string]*domain.Mod)
	for id, m := range cfg.Mods {
		if m.Online == nil {
			fresh[id] = m
		} else {
			known[id] = m
		}
	}

	complete := src != nil
	first := mergeRecords(fresh, records, time.Time{}, complete)
	rest := mergeRecords(known, records, lastUpdate, complete)
	total := MergeResult{Applied: first.Applied + rest.Applied, Stale: rest.Stale}

	if src != nil {
		if err := cache.SetLastUpdate(cfg.GameKey, now); err != nil {
			return total, fmt.Errorf("recording last update: %w", err)
		}
	}
	return total, nil
}
