package domain

// SourceTag says where a shared mod entry comes from.
type SourceTag string

const (
	SourceSteam SourceTag = "steam" // Identifier is a Workshop id
	SourceLocal SourceTag = "local" // Identifier is a pack file name
)

// ParseSourceTag returns the tag for s and whether it is known.
func ParseSourceTag(s string) (SourceTag, bool) {
	switch SourceTag(s) {
	case SourceSteam, SourceLocal:
		return SourceTag(s), true
	default:
		return "", false
	}
}

// ShareableMod is one entry of a portable load order, free of local paths.
type ShareableMod struct {
	Source     SourceTag
	Identifier string
	Enabled    bool
}

// ShareableModList is an ordered, portable load order.
type ShareableModList []ShareableMod

// Profile is a named ShareableModList saved for a game.
type Profile struct {
	Name    string
	GameKey string
	Mods    ShareableModList
}
