package core

import (
	"fmt"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/config"
)

// ToShareable encodes ids as a portable list. Mods whose id is their
// Workshop id are tagged steam; everything else is tagged local by file
// name. Unknown ids are skipped.
func ToShareable(ids []string, cfg *domain.GameConfig) domain.ShareableModList {
	list := make(domain.ShareableModList, 0, len(ids))
	for _, id := range ids {
		m, ok := cfg.Mods[id]
		if !ok {
			continue
		}
		entry := domain.ShareableMod{Source: domain.SourceLocal, Identifier: m.FileName(), Enabled: m.Enabled}
		if m.SteamID != "" && m.ID == m.SteamID {
			entry.Source = domain.SourceSteam
			entry.Identifier = m.SteamID
		}
		list = append(list, entry)
	}
	return list
}

// ExportLoadOrder renders the current enabled load order as shareable text
func ExportLoadOrder(cfg *domain.GameConfig) string {
	return config.MarshalShareable(ToShareable(ResolveEnabledOrder(cfg), cfg))
}

// resolveShareable finds the installed mod an entry refers to
func resolveShareable(cfg *domain.GameConfig, entry domain.ShareableMod) (*domain.Mod, bool) {
	switch entry.Source {
	case domain.SourceSteam:
		m, ok := cfg.Mods[entry.Identifier]
		return m, ok && m.SteamID == entry.Identifier
	case domain.SourceLocal:
		if m, ok := cfg.Mods[domain.DeriveLocalID(entry.Identifier)]; ok {
			return m, true
		}
		for _, id := range cfg.SortedIDs() {
			if m := cfg.Mods[id]; m.FileName() == entry.Identifier {
				return m, true
			}
		}
	}
	return nil, false
}

// ApplyShareable makes cfg match list: listed mods take the listed enabled
// flag, every other mod is disabled, and within each category listed mods
// move to the front in list order. Categories keep their members, so the
// resulting load order is the resolved one and may differ from the list's.
// Entries that match no installed mod are returned and otherwise ignored.
func ApplyShareable(cfg *domain.GameConfig, list domain.ShareableModList) []domain.ShareableMod {
	var missing []domain.ShareableMod
	position := make(map[string]int)
	enabled := make(map[string]bool)
	for i, entry := range list {
		m, ok := resolveShareable(cfg, entry)
		if !ok {
			missing = append(missing, entry)
			continue
		}
		if _, dup := position[m.ID]; dup {
			continue
		}
		position[m.ID] = i
		enabled[m.ID] = entry.Enabled
	}

	for _, cat := range cfg.AllCategories() {
		var listed, rest []*domain.Mod
		for _, m := range cfg.ModsIn(cat) {
			if _, ok := position[m.ID]; ok {
				listed = append(listed, m)
			} else {
				rest = append(rest, m)
			}
		}
		sortByPosition(listed, position)
		for i, m := range append(listed, rest...) {
			m.SetOrder(i)
		}
	}
	for id, m := range cfg.Mods {
		m.SetEnabled(enabled[id])
	}
	cfg.LoadOrder = ResolveEnabledOrder(cfg)
	return missing
}

func sortByPosition(mods []*domain.Mod, position map[string]int) {
	for i := 1; i < len(mods); i++ {
		for j := i; j > 0 && position[mods[j].ID] < position[mods[j-1].ID]; j-- {
			mods[j], mods[j-1] = mods[j-1], mods[j]
		}
	}
}

// ImportLoadOrder parses shareable text and applies it to cfg. A parse error
// leaves cfg untouched.
func ImportLoadOrder(cfg *domain.GameConfig, text string) ([]domain.ShareableMod, error) {
	list, err := config.UnmarshalShareable(text)
	if err != nil {
		return nil, err
	}
	return ApplyShareable(cfg, list), nil
}

// ProfileManager handles named load order profiles of a game
type ProfileManager struct {
	configDir string
}

// NewProfileManager creates a new profile manager
func NewProfileManager(configDir string) *ProfileManager {
	return &ProfileManager{configDir: configDir}
}

// Save stores the current enabled load order of cfg under name, replacing
// any profile of that name.
func (pm *ProfileManager) Save(cfg *domain.GameConfig, name string) (*domain.Profile, error) {
	if err := config.ValidateProfileName(name); err != nil {
		return nil, err
	}
	profile := &domain.Profile{
		Name:    name,
		GameKey: cfg.GameKey,
		Mods:    ToShareable(ResolveEnabledOrder(cfg), cfg),
	}
	if err := config.SaveProfile(pm.configDir, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return profile, nil
}

// Get retrieves a specific profile
func (pm *ProfileManager) Get(gameKey, name string) (*domain.Profile, error) {
	return config.LoadProfile(pm.configDir, gameKey, name)
}

// Load applies a saved profile to cfg and returns the entries it could not match
func (pm *ProfileManager) Load(cfg *domain.GameConfig, name string) ([]domain.ShareableMod, error) {
	profile, err := config.LoadProfile(pm.configDir, cfg.GameKey, name)
	if err != nil {
		return nil, err
	}
	return ApplyShareable(cfg, profile.Mods), nil
}

// List returns the profile names of a game
func (pm *ProfileManager) List(gameKey string) ([]string, error) {
	names, err := config.ListProfiles(pm.configDir, gameKey)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return names, nil
}

// Delete removes a profile
func (pm *ProfileManager) Delete(gameKey, name string) error {
	return config.DeleteProfile(pm.configDir, gameKey, name)
}
