package domain

// LinkMethod determines how packs are placed into the staging directory
type LinkMethod int

const (
	LinkSymlink  LinkMethod = iota // Default: symlink (space efficient)
	LinkHardlink                   // Hardlink (transparent to games)
	LinkCopy                       // Copy (maximum compatibility)
)

func (m LinkMethod) String() string {
	switch m {
	case LinkSymlink:
		return "symlink"
	case LinkHardlink:
		return "hardlink"
	case LinkCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// ParseLinkMethod converts a string to LinkMethod
func ParseLinkMethod(s string) LinkMethod {
	switch s {
	case "hardlink":
		return LinkHardlink
	case "copy":
		return LinkCopy
	default:
		return LinkSymlink
	}
}

// Family is the game family; it decides load order encoding and which
// pre-launch transforms are available.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyWarhammer3
	FamilyWarhammer2
	FamilyWarhammer
	FamilyTroy
	FamilyThreeKingdoms
	FamilyThronesOfBritannia
	FamilyAttila
	FamilyRome2
	FamilyShogun2
	FamilyNapoleon
	FamilyEmpire
)

var familyKeys = map[Family]string{
	FamilyWarhammer3:         "warhammer_3",
	FamilyWarhammer2:         "warhammer_2",
	FamilyWarhammer:          "warhammer",
	FamilyTroy:               "troy",
	FamilyThreeKingdoms:      "three_kingdoms",
	FamilyThronesOfBritannia: "thrones_of_britannia",
	FamilyAttila:             "attila",
	FamilyRome2:              "rome_2",
	FamilyShogun2:            "shogun_2",
	FamilyNapoleon:           "napoleon",
	FamilyEmpire:             "empire",
}

func (f Family) String() string {
	if k, ok := familyKeys[f]; ok {
		return k
	}
	return "unknown"
}

// ParseFamily converts a game key such as "warhammer_3" to a Family.
func ParseFamily(s string) Family {
	for f, k := range familyKeys {
		if k == s {
			return f
		}
	}
	return FamilyUnknown
}

// Capabilities lists the pre-launch transforms a family supports.
type Capabilities struct {
	ScriptLogging  bool
	SkipIntro      bool
	UnitMultiplier bool
	MergeAllMods   bool
	// WorkingDirs is true when the game accepts add_working_directory lines,
	// so Workshop packs can load from outside the data folder.
	WorkingDirs bool
}

var capabilityTable = map[Family]Capabilities{
	FamilyWarhammer3:         {ScriptLogging: true, SkipIntro: true, UnitMultiplier: true, MergeAllMods: true, WorkingDirs: true},
	FamilyWarhammer2:         {MergeAllMods: true, WorkingDirs: true},
	FamilyWarhammer:          {MergeAllMods: true, WorkingDirs: true},
	FamilyTroy:               {MergeAllMods: true, WorkingDirs: true},
	FamilyThreeKingdoms:      {MergeAllMods: true, WorkingDirs: true},
	FamilyThronesOfBritannia: {MergeAllMods: true, WorkingDirs: true},
	FamilyAttila:             {MergeAllMods: true, WorkingDirs: true},
	FamilyRome2:              {MergeAllMods: true, WorkingDirs: true},
	FamilyShogun2:            {MergeAllMods: true, WorkingDirs: true},
	FamilyNapoleon:           {MergeAllMods: true},
	FamilyEmpire:             {MergeAllMods: true},
}

// Capabilities returns the transform table entry for the family.
func (f Family) Capabilities() Capabilities {
	return capabilityTable[f]
}

// Game is the game-info collaborator: where a game lives and how to namespace its state.
type Game struct {
	Key                string // Unique key, e.g. "warhammer_3"; namespaces all persisted state
	Name               string
	Family             Family
	InstallPath        string // Game root
	DataPath           string // Where vanilla and local packs live
	ContentPath        string // Workshop content folder for the game's app id
	Executable         string // Relative to InstallPath
	SteamAppID         string
	VanillaPacks       []string // Pack names shipped with the game, skipped on scan
	LinkMethod         LinkMethod
	LinkMethodExplicit bool
	Hooks              GameHooks
}

// Capabilities is shorthand for g.Family.Capabilities().
func (g *Game) Capabilities() Capabilities {
	return g.Family.Capabilities()
}

// IsVanilla reports whether name is one of the game's own packs.
func (g *Game) IsVanilla(name string) bool {
	for _, p := range g.VanillaPacks {
		if p == name {
			return true
		}
	}
	return false
}
