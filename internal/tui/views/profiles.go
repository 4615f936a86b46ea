package views

import (
	"fmt"

	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// LoadProfileMsg is sent to apply a profile to the game
type LoadProfileMsg struct {
	Name string
}

// DeleteProfileMsg is sent to delete a profile
type DeleteProfileMsg struct {
	Name string
}

// SaveProfileMsg is sent to save the current load order under Name
type SaveProfileMsg struct {
	Name string
}

// Profiles is the profile management view
type Profiles struct {
	game      *domain.Game
	profiles  []*domain.Profile
	selected  int
	creating  bool
	nameInput textinput.Model
	width     int
	height    int
}

// NewProfiles creates a new profiles view
func NewProfiles(game *domain.Game, profiles []*domain.Profile) Profiles {
	ti := textinput.New()
	ti.Placeholder = "Profile name..."
	ti.CharLimit = 64
	ti.Width = 30

	return Profiles{
		game:      game,
		profiles:  profiles,
		nameInput: ti,
		width:     80,
		height:    24,
	}
}

// SetProfiles replaces the listed profiles
func (p Profiles) SetProfiles(profiles []*domain.Profile) Profiles {
	p.profiles = profiles
	if p.selected >= len(profiles) {
		p.selected = max(len(profiles)-1, 0)
	}
	return p
}

// Selected returns the currently selected index
func (p Profiles) Selected() int {
	return p.selected
}

// ProfileCount returns the number of profiles
func (p Profiles) ProfileCount() int {
	return len(p.profiles)
}

// IsCreating returns whether the name prompt is open
func (p Profiles) IsCreating() bool {
	return p.creating
}

// SelectedProfile returns the currently selected profile
func (p Profiles) SelectedProfile() *domain.Profile {
	if len(p.profiles) == 0 || p.selected >= len(p.profiles) {
		return nil
	}
	return p.profiles[p.selected]
}

// Init implements tea.Model
func (p Profiles) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (p Profiles) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.creating {
			return p.handleCreateMode(msg)
		}
		return p.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil
	}

	return p, nil
}

func (p Profiles) handleCreateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		p.creating = false
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, nil

	case tea.KeyEnter:
		name := p.nameInput.Value()
		if name == "" {
			return p, nil
		}
		p.creating = false
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, emit(SaveProfileMsg{Name: name})

	default:
		var cmd tea.Cmd
		p.nameInput, cmd = p.nameInput.Update(msg)
		return p, cmd
	}
}

func (p Profiles) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		p.selected = wrap(p.selected-1, len(p.profiles))
		return p, nil

	case "down":
		p.selected = wrap(p.selected+1, len(p.profiles))
		return p, nil

	case "n":
		p.creating = true
		p.nameInput.Focus()
		return p, textinput.Blink

	case "home":
		p.selected = 0
		return p, nil

	case "end":
		p.selected = max(len(p.profiles)-1, 0)
		return p, nil
	}

	profile := p.SelectedProfile()
	if profile == nil {
		return p, nil
	}

	switch msg.String() {
	case "enter", " ":
		return p, emit(LoadProfileMsg{Name: profile.Name})
	case "s":
		return p, emit(SaveProfileMsg{Name: profile.Name})
	case "delete":
		return p, emit(DeleteProfileMsg{Name: profile.Name})
	}

	return p, nil
}

// View implements tea.Model
func (p Profiles) View() string {
	output := titleStyle.Render("Profiles") + "\n"

	gameName := "No game selected"
	if p.game != nil {
		gameName = p.game.Name
	}
	output += infoStyle.Render(fmt.Sprintf("Game: %s", gameName)) + "\n\n"

	if p.creating {
		output += "New profile name: " + p.nameInput.View() + "\n\n"
		output += infoStyle.Render("enter: save current load order  esc: cancel")
		return output
	}

	if len(p.profiles) == 0 {
		output += itemStyle.Render("No profiles saved.") + "\n\n"
		output += infoStyle.Render("Press 'n' to save the current load order as a profile.") + "\n"
		return output
	}

	for i, profile := range p.profiles {
		cursor := "  "
		style := itemStyle
		if i == p.selected {
			cursor = "▸ "
			style = selectedStyle
		}
		output += style.Render(cursor+profile.Name) + "\n"

		if i == p.selected {
			output += detailStyle.Render(fmt.Sprintf("Mods: %d", len(profile.Mods))) + "\n"
			for j, m := range profile.Mods {
				if j == 5 {
					output += detailStyle.Render(fmt.Sprintf("... and %d more", len(profile.Mods)-j)) + "\n"
					break
				}
				output += detailStyle.Render(fmt.Sprintf("%s:%s", m.Source, m.Identifier)) + "\n"
			}
			output += "\n"
		}
	}

	output += helpStyle.Render("enter: load  n: new  s: overwrite  d: delete")
	return output
}
