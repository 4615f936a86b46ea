package domain

// Hook points, as exposed to scripts in TWLM_HOOK
const (
	HookAfterAssemble = "launch.after_assemble"
	HookBeforeLaunch  = "launch.before_launch"
)

// LaunchHooks are scripts run around a launch. after_assemble sees the
// finished staging directory; before_launch runs just before the game starts
// and can veto it by failing.
type LaunchHooks struct {
	AfterAssemble string `yaml:"after_assemble,omitempty"`
	BeforeLaunch  string `yaml:"before_launch,omitempty"`
}

// GameHooks contains all hooks for a game
type GameHooks struct {
	Launch LaunchHooks `yaml:"launch,omitempty"`
}

// Script returns the script configured for a hook point, or ""
func (h GameHooks) Script(hook string) string {
	switch hook {
	case HookAfterAssemble:
		return h.Launch.AfterAssemble
	case HookBeforeLaunch:
		return h.Launch.BeforeLaunch
	}
	return ""
}

// IsEmpty returns true if no hooks are configured
func (h GameHooks) IsEmpty() bool {
	return h.Launch == LaunchHooks{}
}
