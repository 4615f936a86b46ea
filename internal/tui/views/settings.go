package views

import (
	"fmt"
	"strconv"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// unitMultipliers are the choices offered for unit size scaling
var unitMultipliers = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0, 3.0, 4.0}

// SettingsData holds the current settings values
type SettingsData struct {
	LinkMethod  domain.LinkMethod
	Keybindings string
	Launch      config.LaunchOptions // for the selected game
	Caps        domain.Capabilities  // of the selected game
	HasGame     bool
}

// SettingsChangedMsg is sent when settings are modified
type SettingsChangedMsg struct {
	Settings SettingsData
}

type settingItem struct {
	name        string
	description string
	options     []string
	current     int
	supported   bool
}

// Settings is the settings view
type Settings struct {
	settings SettingsData
	items    []settingItem
	selected int
	width    int
	height   int
}

const (
	itemLinkMethod = iota
	itemKeybindings
	itemLogging
	itemSkipIntro
	itemMerge
	itemUnitMultiplier
)

// NewSettings creates a new settings view
func NewSettings(settings SettingsData) Settings {
	keybindingsIdx := 0
	if settings.Keybindings == "standard" {
		keybindingsIdx = 1
	}

	multipliers := make([]string, len(unitMultipliers))
	multiplierIdx := 2
	for i, v := range unitMultipliers {
		multipliers[i] = strconv.FormatFloat(v, 'f', -1, 64)
		if v == settings.Launch.UnitMultiplier {
			multiplierIdx = i
		}
	}

	onOff := []string{"off", "on"}
	items := []settingItem{
		{
			name:        "Link Method",
			description: "How packs are placed into the staging folder",
			options:     []string{"symlink", "hardlink", "copy"},
			current:     int(settings.LinkMethod),
			supported:   true,
		},
		{
			name:        "Keybindings",
			description: "Keyboard navigation style",
			options:     []string{"vim", "standard"},
			current:     keybindingsIdx,
			supported:   true,
		},
		{
			name:        "Script Logging",
			description: "Write the game's script log on launch",
			options:     onOff,
			current:     boolIndex(settings.Launch.EnableLogging),
			supported:   settings.HasGame && settings.Caps.ScriptLogging,
		},
		{
			name:        "Skip Intro",
			description: "Replace the intro movies with empty ones",
			options:     onOff,
			current:     boolIndex(settings.Launch.SkipIntro),
			supported:   settings.HasGame && settings.Caps.SkipIntro,
		},
		{
			name:        "Merge All Mods",
			description: "Combine the enabled mods into a single pack",
			options:     onOff,
			current:     boolIndex(settings.Launch.MergeAllMods),
			supported:   settings.HasGame && settings.Caps.MergeAllMods,
		},
		{
			name:        "Unit Multiplier",
			description: "Scale the number of soldiers per unit",
			options:     multipliers,
			current:     multiplierIdx,
			supported:   settings.HasGame && settings.Caps.UnitMultiplier,
		},
	}

	return Settings{
		settings: settings,
		items:    items,
		width:    80,
		height:   24,
	}
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Selected returns the currently selected setting index
func (s Settings) Selected() int {
	return s.selected
}

// CurrentSettings returns the current settings values
func (s Settings) CurrentSettings() SettingsData {
	return s.settings
}

// Init implements tea.Model
func (s Settings) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s Settings) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil
	}

	return s, nil
}

func (s Settings) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		s.selected = wrap(s.selected-1, len(s.items))
		return s, nil

	case "down":
		s.selected = wrap(s.selected+1, len(s.items))
		return s, nil

	case "enter", " ", "right":
		return s.cycle(1)

	case "left":
		return s.cycle(-1)
	}

	return s, nil
}

func (s Settings) cycle(dir int) (tea.Model, tea.Cmd) {
	items := make([]settingItem, len(s.items))
	copy(items, s.items)
	s.items = items

	item := &s.items[s.selected]
	if !item.supported {
		return s, nil
	}
	item.current = wrap(item.current+dir, len(item.options))
	s.applySettings()
	return s, emit(SettingsChangedMsg{Settings: s.settings})
}

func (s *Settings) applySettings() {
	s.settings.LinkMethod = domain.LinkMethod(s.items[itemLinkMethod].current)
	s.settings.Keybindings = s.items[itemKeybindings].options[s.items[itemKeybindings].current]
	s.settings.Launch.EnableLogging = s.items[itemLogging].current == 1
	s.settings.Launch.SkipIntro = s.items[itemSkipIntro].current == 1
	s.settings.Launch.MergeAllMods = s.items[itemMerge].current == 1
	s.settings.Launch.UnitMultiplier = unitMultipliers[s.items[itemUnitMultiplier].current]
}

// View implements tea.Model
func (s Settings) View() string {
	optionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedOptionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	output := titleStyle.Render("Settings") + "\n\n"

	for i, item := range s.items {
		cursor := "  "
		style := itemStyle
		if i == s.selected {
			cursor = "▸ "
			style = selectedStyle
		} else if !item.supported {
			style = disabledStyle
		}

		value := valueStyle.Render(item.options[item.current])
		if !item.supported {
			value = warnStyle.Render("unsupported")
		}
		output += style.Render(fmt.Sprintf("%s%s: %s", cursor, item.name, value)) + "\n"
		output += detailStyle.Render(item.description) + "\n"

		if i == s.selected && item.supported {
			line := "    Options: "
			for j, opt := range item.options {
				if j == item.current {
					line += selectedOptionStyle.Render("[" + opt + "]")
				} else {
					line += optionStyle.Render(" " + opt + " ")
				}
			}
			output += line + "\n"
		}
		output += "\n"
	}

	output += helpStyle.Render("↑/↓: navigate  ←/→ or enter: change value")
	return output
}
