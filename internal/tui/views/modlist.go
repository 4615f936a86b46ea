package views

import (
	"fmt"

	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// ToggleModMsg is sent to enable or disable a mod
type ToggleModMsg struct {
	ID      string
	Enabled bool
}

// MoveModMsg is sent to put a mod at Index within Category
type MoveModMsg struct {
	ID       string
	Category string
	Index    int
}


type modRow struct {
	category string
	mod      *domain.Mod // nil for a category header
}

// ModList is the categorized mod list of a game
type ModList struct {
	game     *domain.Game
	cfg      *domain.GameConfig
	rows     []modRow
	selected int // index into rows, always a mod row when any exist
	busy     string
	spinner  spinner.Model
	width    int
	height   int
}

// NewModList creates a mod list for a config snapshot
func NewModList(game *domain.Game, cfg *domain.GameConfig) ModList {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := ModList{
		game:    game,
		spinner: sp,
		width:   80,
		height:  24,
	}
	return m.SetConfig(cfg)
}

// SetConfig replaces the snapshot, keeping the cursor on the same mod
func (m ModList) SetConfig(cfg *domain.GameConfig) ModList {
	current := ""
	if mod := m.SelectedMod(); mod != nil {
		current = mod.ID
	}

	m.cfg = cfg
	m.rows = nil
	if cfg != nil {
		for _, cat := range cfg.AllCategories() {
			m.rows = append(m.rows, modRow{category: cat})
			for _, mod := range cfg.ModsIn(cat) {
				m.rows = append(m.rows, modRow{category: cat, mod: mod})
			}
		}
	}

	m.selected = m.firstMod()
	for i, r := range m.rows {
		if r.mod != nil && r.mod.ID == current {
			m.selected = i
			break
		}
	}
	return m
}

// SetBusy shows the name of a running job; empty clears it
func (m ModList) SetBusy(job string) (ModList, tea.Cmd) {
	m.busy = job
	if job == "" {
		return m, nil
	}
	return m, m.spinner.Tick
}

// Busy returns the running job, if any
func (m ModList) Busy() string {
	return m.busy
}

// ModCount returns the number of mods in the list
func (m ModList) ModCount() int {
	n := 0
	for _, r := range m.rows {
		if r.mod != nil {
			n++
		}
	}
	return n
}

// Selected returns the position of the cursor among the mods
func (m ModList) Selected() int {
	n := 0
	for i, r := range m.rows {
		if i == m.selected {
			return n
		}
		if r.mod != nil {
			n++
		}
	}
	return 0
}

// SelectedMod returns the mod under the cursor
func (m ModList) SelectedMod() *domain.Mod {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return nil
	}
	return m.rows[m.selected].mod
}

func (m ModList) firstMod() int {
	for i, r := range m.rows {
		if r.mod != nil {
			return i
		}
	}
	return -1
}

// step moves the cursor to the next mod row in direction dir, wrapping
func (m ModList) step(dir int) int {
	n := len(m.rows)
	for i, j := 1, m.selected; i <= n; i++ {
		j = wrap(j+dir, n)
		if m.rows[j].mod != nil {
			return j
		}
	}
	return m.selected
}

// Init implements tea.Model
func (m ModList) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ModList) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m ModList) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mod := m.SelectedMod()
	if mod == nil {
		return m, nil
	}

	switch msg.String() {
	case "up":
		m.selected = m.step(-1)
		return m, nil

	case "down":
		m.selected = m.step(1)
		return m, nil

	case "home":
		m.selected = m.firstMod()
		return m, nil

	case "end":
		for i := len(m.rows) - 1; i >= 0; i-- {
			if m.rows[i].mod != nil {
				m.selected = i
				break
			}
		}
		return m, nil

	case " ":
		return m, emit(ToggleModMsg{ID: mod.ID, Enabled: !mod.Enabled})

	case "shift+up":
		if mod.Order > 0 {
			return m, emit(MoveModMsg{ID: mod.ID, Category: mod.CategoryName(), Index: mod.Order - 1})
		}
		return m, nil

	case "shift+down":
		if mod.Order < len(m.cfg.ModsIn(mod.CategoryName()))-1 {
			return m, emit(MoveModMsg{ID: mod.ID, Category: mod.CategoryName(), Index: mod.Order + 1})
		}
		return m, nil

	case "<", ">":
		cats := m.cfg.AllCategories()
		i := 0
		for j, c := range cats {
			if c == mod.CategoryName() {
				i = j
			}
		}
		if msg.String() == "<" {
			i--
		} else {
			i++
		}
		if i < 0 || i >= len(cats) {
			return m, nil
		}
		return m, emit(MoveModMsg{ID: mod.ID, Category: cats[i], Index: len(m.cfg.ModsIn(cats[i]))})
	}

	return m, nil
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View implements tea.Model
func (m ModList) View() string {
	output := titleStyle.Render("Mods") + "\n"

	gameName := "No game"
	if m.game != nil {
		gameName = m.game.Name
	}
	status := gameName
	if m.busy != "" {
		status += "  " + m.spinner.View() + " " + m.busy + "..."
	}
	output += infoStyle.Render(status) + "\n\n"

	if m.ModCount() == 0 {
		output += itemStyle.Render("No mods found.") + "\n\n"
		output += infoStyle.Render("Press r to scan the data and Workshop folders.") + "\n"
		return output
	}

	for i, r := range m.rows {
		if r.mod == nil {
			output += categoryStyle.Render(r.category) + "\n"
			continue
		}
		mod := r.mod

		cursor := "  "
		style := itemStyle
		if i == m.selected {
			cursor = "▸ "
			style = selectedStyle
		} else if !mod.Enabled {
			style = disabledStyle
		}

		check := "[✓]"
		if !mod.Enabled {
			check = "[ ]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, check, mod.DisplayName())
		if mod.Outdated {
			line += warnStyle.Render(" (outdated)")
		}
		output += style.Render(line) + "\n"

		if i == m.selected {
			output += m.renderDetails(mod)
		}
	}

	output += helpStyle.Render("space: toggle  K/J: reorder  </>: category  r: rescan  u: refresh  x: launch")
	return output
}

func (m ModList) renderDetails(mod *domain.Mod) string {
	out := ""
	if mod.Creator != "" {
		out += detailStyle.Render("by "+mod.Creator) + "\n"
	}
	out += detailStyle.Render(fmt.Sprintf("ID: %s  File: %s  Size: %s", mod.ID, mod.FileName(), humanize.Bytes(uint64(mod.FileSize)))) + "\n"
	if !mod.ModTime.IsZero() {
		out += detailStyle.Render("Modified: "+humanize.Time(mod.ModTime)) + "\n"
	}
	if mod.LocalOnly {
		out += detailStyle.Render("Not on the Workshop") + "\n"
	}
	return out + "\n"
}
