package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// UnassignedCategory is the implicit bucket every uncategorized mod lives in.
// It always exists and cannot be created or deleted.
const UnassignedCategory = "Unassigned"

// LocalIDPrefix marks ids derived from a file name rather than a Workshop id.
const LocalIDPrefix = "local-"

// PackType classifies a pack file by the header the codec reports.
type PackType int

const (
	PackMod PackType = iota // Default: regular mod pack
	PackMovie               // Movie packs load regardless of load order
	PackBoot
	PackRelease
	PackPatch
)

func (t PackType) String() string {
	switch t {
	case PackMovie:
		return "movie"
	case PackBoot:
		return "boot"
	case PackRelease:
		return "release"
	case PackPatch:
		return "patch"
	default:
		return "mod"
	}
}

// ParsePackType converts a string to PackType
func ParsePackType(s string) PackType {
	switch s {
	case "movie":
		return PackMovie
	case "boot":
		return PackBoot
	case "release":
		return PackRelease
	case "patch":
		return PackPatch
	default:
		return PackMod
	}
}

// OnlineMetadata is what the Workshop knows about a mod.
type OnlineMetadata struct {
	Description   string    `yaml:"description,omitempty"`
	FileURL       string    `yaml:"file_url,omitempty"`
	PreviewURL    string    `yaml:"preview_url,omitempty"`
	TimeCreated   time.Time `yaml:"time_created,omitempty"`
	TimeUpdated   time.Time `yaml:"time_updated,omitempty"`
	Subscriptions int64     `yaml:"subscriptions,omitempty"`
	Votes         int64     `yaml:"votes,omitempty"`
}

// Mod is a single pack known to a game's registry.
type Mod struct {
	ID        string
	Name      string // From online metadata; empty for local-only packs
	Creator   string
	FilePath  string
	FileSize  int64
	Hash      string // SHA256 of the pack file
	PackType  PackType
	ModTime   time.Time
	SteamID   string // Workshop id, empty for local packs
	Enabled   bool
	Category  string // Empty means Unassigned
	Order     int    // Position within Category
	Online    *OnlineMetadata
	LocalOnly bool // Not present on the Workshop
	Outdated  bool // Local file older than the Workshop version
}

// FileName returns the pack's file name, e.g. "my_mod.pack".
func (m *Mod) FileName() string {
	return filepath.Base(m.FilePath)
}

// DisplayName is the Workshop title when known, otherwise the file stem.
func (m *Mod) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	name := m.FileName()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// CategoryName resolves the empty category to Unassigned.
func (m *Mod) CategoryName() string {
	if m.Category == "" {
		return UnassignedCategory
	}
	return m.Category
}

// IsWorkshop reports whether the mod came from the Steam Workshop.
func (m *Mod) IsWorkshop() bool {
	return m.SteamID != ""
}

func (m *Mod) SetEnabled(enabled bool) { m.Enabled = enabled }

// SetCategory assigns a category; Unassigned is stored as empty.
func (m *Mod) SetCategory(category string) {
	if category == UnassignedCategory {
		category = ""
	}
	m.Category = category
}

func (m *Mod) SetOrder(order int) { m.Order = order }

// Equal compares mods by identity.
func (m *Mod) Equal(other *Mod) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.ID == other.ID
}

// Clone returns a deep copy of the mod.
func (m *Mod) Clone() *Mod {
	c := *m
	if m.Online != nil {
		online := *m.Online
		c.Online = &online
	}
	return &c
}

// DeriveLocalID builds the stable id of a pack that is not on the Workshop.
func DeriveLocalID(path string) string {
	return LocalIDPrefix + filepath.Base(path)
}

// IsLocalID reports whether id was produced by DeriveLocalID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// OnlineRecord is a single entry returned by an online metadata source.
type OnlineRecord struct {
	ID            string
	Title         string
	Creator       string
	FileSize      int64
	FileURL       string
	PreviewURL    string
	Description   string
	TimeCreated   time.Time
	TimeUpdated   time.Time
	Subscriptions int64
	Votes         int64
}
