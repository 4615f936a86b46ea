package tui

import (
	"context"
	"fmt"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewGameSelect ViewType = iota
	ViewMods
	ViewProfiles
	ViewSettings
)

// NavigateMsg is sent to change views
type NavigateMsg struct {
	View ViewType
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

// jobDoneMsg carries the result of a background job
type jobDoneMsg struct {
	gameKey string
	job     string
	value   any
	err     error
}

// App is the main TUI application model
type App struct {
	service     *core.Service
	keys        *KeyMap
	currentView ViewType
	width       int
	height      int
	err         error
	status      string
	showHelp    bool

	game       *domain.Game
	gameSelect views.GameSelect
	modList    views.ModList
	profiles   views.Profiles
	settings   views.Settings
}

// NewApp creates a new TUI application
func NewApp(service *core.Service) App {
	var games []*domain.Game
	mode, defaultGame := "", ""
	if service != nil {
		games = service.ListGames()
		mode = service.Config().Keybindings
		defaultGame = service.Config().DefaultGame
	}

	a := App{
		service:     service,
		keys:        NewKeyMap(mode),
		currentView: ViewGameSelect,
		width:       80,
		height:      24,
		gameSelect:  views.NewGameSelect(games, defaultGame),
		modList:     views.NewModList(nil, nil),
		profiles:    views.NewProfiles(nil, nil),
	}
	a.settings = views.NewSettings(a.settingsData())
	return a
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// Game returns the selected game, if any
func (a App) Game() *domain.Game {
	return a.game
}

// Err returns the error being displayed, if any
func (a App) Err() error {
	return a.err
}

// Status returns the last status line
func (a App) Status() string {
	return a.status
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.broadcast(msg)

	case NavigateMsg:
		a.currentView = msg.View
		return a, nil

	case ErrorMsg:
		a.err = msg.Err
		return a, nil

	case views.GameSelectedMsg:
		return a.openGame(msg.Game)

	case views.ToggleModMsg:
		return a.edit(func(cfg *domain.GameConfig) error {
			return core.SetEnabled(cfg, msg.ID, msg.Enabled)
		})

	case views.MoveModMsg:
		return a.edit(func(cfg *domain.GameConfig) error {
			return core.MoveMod(cfg, msg.ID, msg.Category, msg.Index)
		})

	case jobDoneMsg:
		return a.finishJob(msg)

	case views.LoadProfileMsg:
		return a.loadProfile(msg.Name)

	case views.SaveProfileMsg:
		return a.saveProfile(msg.Name)

	case views.DeleteProfileMsg:
		return a.deleteProfile(msg.Name)

	case views.SettingsChangedMsg:
		return a.applySettings(msg.Settings)

	case spinner.TickMsg:
		var model tea.Model
		var cmd tea.Cmd
		model, cmd = a.modList.Update(msg)
		a.modList = model.(views.ModList)
		return a, cmd
	}

	return a.updateCurrentView(msg)
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Typing a profile name must not trigger global keys
	if a.currentView == ViewProfiles && a.profiles.IsCreating() {
		return a.updateCurrentView(msg)
	}

	if a.keys.IsQuit(msg) {
		return a, tea.Quit
	}

	if a.keys.IsHelp(msg) {
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.keys.IsCancel(msg) && (a.err != nil || a.showHelp) {
		a.err = nil
		a.showHelp = false
		return a, nil
	}

	switch {
	case a.keys.IsRescan(msg):
		return a.startJob(core.JobRescan)
	case a.keys.IsRefresh(msg):
		return a.startJob(core.JobRefreshOnline)
	case a.keys.IsLaunch(msg):
		return a.startJob(core.JobLaunch)
	}

	switch msg.String() {
	case "1":
		a.currentView = ViewGameSelect
		return a, nil
	case "2":
		a.currentView = ViewMods
		return a, nil
	case "3":
		a.currentView = ViewProfiles
		return a, nil
	case "4":
		a.currentView = ViewSettings
		return a, nil
	}

	a.err = nil
	return a.updateCurrentView(a.keys.Normalize(msg))
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var model tea.Model
	var cmd tea.Cmd

	switch a.currentView {
	case ViewGameSelect:
		model, cmd = a.gameSelect.Update(msg)
		a.gameSelect = model.(views.GameSelect)
	case ViewMods:
		model, cmd = a.modList.Update(msg)
		a.modList = model.(views.ModList)
	case ViewProfiles:
		model, cmd = a.profiles.Update(msg)
		a.profiles = model.(views.Profiles)
	case ViewSettings:
		model, cmd = a.settings.Update(msg)
		a.settings = model.(views.Settings)
	}

	return a, cmd
}

// broadcast sends msg to every view
func (a App) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var model tea.Model
	model, _ = a.gameSelect.Update(msg)
	a.gameSelect = model.(views.GameSelect)
	model, _ = a.modList.Update(msg)
	a.modList = model.(views.ModList)
	model, _ = a.profiles.Update(msg)
	a.profiles = model.(views.Profiles)
	model, _ = a.settings.Update(msg)
	a.settings = model.(views.Settings)
	return a, nil
}

func (a App) openGame(game *domain.Game) (tea.Model, tea.Cmd) {
	a.game = game
	a.err = nil
	a.status = ""

	cfg := domain.NewGameConfig(game.Key)
	var profiles []*domain.Profile
	if a.service != nil {
		snapshot, err := a.service.GameConfig(game.Key)
		if err != nil {
			a.err = err
			return a, nil
		}
		cfg = snapshot
		profiles, a.err = a.loadProfiles()
	}

	a.modList = views.NewModList(game, cfg)
	a.profiles = views.NewProfiles(game, profiles)
	a.settings = views.NewSettings(a.settingsData())
	a.currentView = ViewMods

	if len(cfg.Mods) == 0 && a.service != nil {
		return a.startJob(core.JobRescan)
	}
	return a, nil
}

// refresh reloads the mod list from the controller
func (a App) refresh() App {
	if a.service == nil || a.game == nil {
		return a
	}
	cfg, err := a.service.GameConfig(a.game.Key)
	if err != nil {
		a.err = err
		return a
	}
	a.modList = a.modList.SetConfig(cfg)
	return a
}

// edit applies a foreground change and persists it
func (a App) edit(fn func(cfg *domain.GameConfig) error) (tea.Model, tea.Cmd) {
	if a.service == nil || a.game == nil {
		return a, nil
	}
	if err := a.service.Edit(a.game.Key, fn); err != nil {
		a.err = err
		return a, nil
	}
	if err := a.service.Save(a.game.Key); err != nil {
		a.err = err
	}
	return a.refresh(), nil
}

func (a App) startJob(job string) (tea.Model, tea.Cmd) {
	if a.service == nil || a.game == nil {
		return a, nil
	}

	var start func(ctx context.Context, gameKey string) (<-chan core.Result, error)
	switch job {
	case core.JobRescan:
		start = a.service.Rescan
	case core.JobRefreshOnline:
		start = a.service.RefreshOnline
	case core.JobLaunch:
		start = a.service.Launch
	default:
		return a, nil
	}

	key := a.game.Key
	ch, err := start(context.Background(), key)
	if err != nil {
		a.err = err
		return a, nil
	}

	var tick tea.Cmd
	a.modList, tick = a.modList.SetBusy(job)
	a.status = ""
	wait := func() tea.Msg {
		value, err := core.Wait(ch)
		return jobDoneMsg{gameKey: key, job: job, value: value, err: err}
	}
	return a, tea.Batch(tick, wait)
}

func (a App) finishJob(msg jobDoneMsg) (tea.Model, tea.Cmd) {
	if a.game == nil || a.game.Key != msg.gameKey {
		if msg.err == nil && a.service != nil {
			a.err = a.service.Save(msg.gameKey)
		}
		return a, nil
	}

	a.modList, _ = a.modList.SetBusy("")
	if msg.err != nil {
		a.err = fmt.Errorf("%s: %w", msg.job, msg.err)
		return a.refresh(), nil
	}
	if err := a.service.Save(msg.gameKey); err != nil {
		a.err = err
	}

	switch v := msg.value.(type) {
	case *domain.GameConfig:
		a.status = fmt.Sprintf("Scanned %d mods", len(v.Mods))
	case core.MergeResult:
		a.status = fmt.Sprintf("Updated metadata for %d mods", v.Applied)
	case *core.Assembly:
		a.status = fmt.Sprintf("Launched with %d packs", len(v.Packs))
	}
	return a.refresh(), nil
}

func (a App) loadProfiles() ([]*domain.Profile, error) {
	names, err := a.service.Profiles().List(a.game.Key)
	if err != nil {
		return nil, err
	}
	profiles := make([]*domain.Profile, 0, len(names))
	for _, name := range names {
		p, err := a.service.Profiles().Get(a.game.Key, name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (a App) reloadProfiles() App {
	profiles, err := a.loadProfiles()
	if err != nil {
		a.err = err
		return a
	}
	a.profiles = a.profiles.SetProfiles(profiles)
	return a
}

func (a App) loadProfile(name string) (tea.Model, tea.Cmd) {
	if a.service == nil || a.game == nil {
		return a, nil
	}
	missing, err := a.service.LoadProfile(a.game.Key, name)
	if err != nil {
		a.err = err
		return a, nil
	}
	if err := a.service.Save(a.game.Key); err != nil {
		a.err = err
	}
	a.status = fmt.Sprintf("Loaded profile %s", name)
	if len(missing) > 0 {
		a.status += fmt.Sprintf(" (%d mods not installed)", len(missing))
	}
	return a.refresh(), nil
}

func (a App) saveProfile(name string) (tea.Model, tea.Cmd) {
	if a.service == nil || a.game == nil {
		return a, nil
	}
	if _, err := a.service.SaveProfile(a.game.Key, name); err != nil {
		a.err = err
		return a, nil
	}
	a.status = fmt.Sprintf("Saved profile %s", name)
	return a.reloadProfiles(), nil
}

func (a App) deleteProfile(name string) (tea.Model, tea.Cmd) {
	if a.service == nil || a.game == nil {
		return a, nil
	}
	if err := a.service.Profiles().Delete(a.game.Key, name); err != nil {
		a.err = err
		return a, nil
	}
	a.status = fmt.Sprintf("Deleted profile %s", name)
	return a.reloadProfiles(), nil
}

func (a App) settingsData() views.SettingsData {
	data := views.SettingsData{Keybindings: a.keys.Mode()}
	if a.service == nil {
		return data
	}
	cfg := a.service.Config()
	data.LinkMethod = cfg.DefaultLinkMethod
	if a.game != nil {
		data.HasGame = true
		data.Caps = a.game.Capabilities()
		data.Launch = cfg.LaunchOptionsFor(a.game.Key)
	}
	return data
}

func (a App) applySettings(s views.SettingsData) (tea.Model, tea.Cmd) {
	a.keys = NewKeyMap(s.Keybindings)
	if a.service == nil {
		return a, nil
	}

	cfg := a.service.Config()
	cfg.DefaultLinkMethod = s.LinkMethod
	cfg.Keybindings = s.Keybindings
	if a.game != nil && s.HasGame {
		cfg.SetLaunchOptions(a.game.Key, s.Launch)
	}
	if err := a.service.SaveConfig(); err != nil {
		a.err = err
	}
	return a, nil
}

// View implements tea.Model
func (a App) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	header := titleStyle.Render("twlm - Total War Launcher & Mod manager")

	tabs := []string{"[1]Games", "[2]Mods", "[3]Profiles", "[4]Settings"}
	tabBar := ""
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar += activeTabStyle.Render(tab) + "  "
		} else {
			tabBar += tabStyle.Render(tab) + "  "
		}
	}

	content := a.renderCurrentView()
	if a.showHelp {
		content = a.keys.FullHelp()
	}

	if a.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		content = errStyle.Render(fmt.Sprintf("Error: %v", a.err)) + "\n\n" + content
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := "q: quit  ?: help  " + a.keys.NavigationHelp()
	if a.status != "" {
		footer = a.status + "  |  " + footer
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", header, tabBar, content, footerStyle.Render(footer))
}

func (a App) renderCurrentView() string {
	switch a.currentView {
	case ViewGameSelect:
		return a.gameSelect.View()
	case ViewMods:
		if a.game == nil {
			return "Mods\n\nSelect a game first."
		}
		return a.modList.View()
	case ViewProfiles:
		if a.game == nil {
			return "Profiles\n\nSelect a game first."
		}
		return a.profiles.View()
	case ViewSettings:
		return a.settings.View()
	default:
		return "Unknown view"
	}
}

// Run starts the TUI application
func Run(service *core.Service) error {
	app := NewApp(service)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
