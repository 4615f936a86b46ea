package views

import (
	"fmt"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// GameSelectedMsg is sent when a game is selected
type GameSelectedMsg struct {
	Game *domain.Game
}

// GameSelect lists the configured games. The cursor starts on the default
// game when there is one.
type GameSelect struct {
	games       []*domain.Game
	defaultGame string
	selected    int
	width       int
	height      int
}

// NewGameSelect creates a game selection view. defaultGame may be empty.
func NewGameSelect(games []*domain.Game, defaultGame string) GameSelect {
	g := GameSelect{
		games:       games,
		defaultGame: defaultGame,
		width:       80,
		height:      24,
	}
	for i, game := range games {
		if game.Key == defaultGame {
			g.selected = i
		}
	}
	return g
}

// Selected returns the currently selected index
func (g GameSelect) Selected() int {
	return g.selected
}

// SelectedGame returns the currently selected game
func (g GameSelect) SelectedGame() *domain.Game {
	if len(g.games) == 0 || g.selected >= len(g.games) {
		return nil
	}
	return g.games[g.selected]
}

// Init implements tea.Model
func (g GameSelect) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (g GameSelect) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return g.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		g.width, g.height = msg.Width, msg.Height
	}
	return g, nil
}

func (g GameSelect) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(g.games) == 0 {
		return g, nil
	}

	switch msg.String() {
	case "up":
		g.selected = wrap(g.selected-1, len(g.games))
	case "down":
		g.selected = wrap(g.selected+1, len(g.games))
	case "home":
		g.selected = 0
	case "end":
		g.selected = len(g.games) - 1
	case "enter", " ":
		game := g.SelectedGame()
		return g, func() tea.Msg { return GameSelectedMsg{Game: game} }
	}
	return g, nil
}

// View implements tea.Model
func (g GameSelect) View() string {
	if len(g.games) == 0 {
		return g.renderEmpty()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Select a Game") + "\n\n")

	for i, game := range g.games {
		cursor, style := "  ", itemStyle
		if i == g.selected {
			cursor, style = "▸ ", selectedStyle
		}
		line := style.Render(cursor + game.Name)
		if game.Key == g.defaultGame {
			line = lipgloss.JoinHorizontal(lipgloss.Top, line, valueStyle.Render(" (default)"))
		}
		b.WriteString(line + "\n")

		if i == g.selected {
			b.WriteString(g.renderDetails(game))
		}
	}

	b.WriteString(helpStyle.Render("↑/↓: navigate  enter: select"))
	return b.String()
}

func (g GameSelect) renderDetails(game *domain.Game) string {
	lines := []string{fmt.Sprintf("Key: %s  Family: %s", game.Key, game.Family)}
	if game.InstallPath != "" {
		lines = append(lines, "Path: "+game.InstallPath)
	}
	if game.ContentPath != "" {
		lines = append(lines, "Workshop: "+game.ContentPath)
	}
	if opts := launchFeatures(game.Capabilities()); opts != "" {
		lines = append(lines, "Launch options: "+opts)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(detailStyle.Render(l) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// launchFeatures names the pre-launch options a family supports
func launchFeatures(caps domain.Capabilities) string {
	var names []string
	if caps.ScriptLogging {
		names = append(names, "logging")
	}
	if caps.SkipIntro {
		names = append(names, "skip intro")
	}
	if caps.UnitMultiplier {
		names = append(names, "unit multiplier")
	}
	if caps.MergeAllMods {
		names = append(names, "merge")
	}
	return strings.Join(names, ", ")
}

func (g GameSelect) renderEmpty() string {
	return infoStyle.Render(`No games configured.

Detect installed Total War games with:
  twlm game detect

Or add one by hand:
  twlm game add warhammer_3 --path ~/.steam/steam/steamapps/common/"Total War WARHAMMER III"
`)
}
