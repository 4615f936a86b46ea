package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines keybindings for the TUI
type KeyMap struct {
	mode string
}

// NewKeyMap creates a new keymap for the given mode
func NewKeyMap(mode string) *KeyMap {
	if mode == "" {
		mode = "vim"
	}
	return &KeyMap{mode: mode}
}

// Mode returns the current keybinding mode
func (k *KeyMap) Mode() string {
	return k.mode
}

// IsUp returns true if the key is an "up" navigation key
func (k *KeyMap) IsUp(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyUp {
		return true
	}
	if k.mode == "vim" && msg.String() == "k" {
		return true
	}
	return false
}

// IsDown returns true if the key is a "down" navigation key
func (k *KeyMap) IsDown(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyDown {
		return true
	}
	if k.mode == "vim" && msg.String() == "j" {
		return true
	}
	return false
}

// IsLeft returns true if the key is a "left" navigation key
func (k *KeyMap) IsLeft(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyLeft {
		return true
	}
	if k.mode == "vim" && msg.String() == "h" {
		return true
	}
	return false
}

// IsRight returns true if the key is a "right" navigation key
func (k *KeyMap) IsRight(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyRight {
		return true
	}
	if k.mode == "vim" && msg.String() == "l" {
		return true
	}
	return false
}

// IsConfirm returns true if the key is a confirm/select key
func (k *KeyMap) IsConfirm(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnter || msg.String() == " "
}

// IsCancel returns true if the key is a cancel/back key
func (k *KeyMap) IsCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc
}

// IsQuit returns true if the key is a quit key
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsRescan returns true if the key should rescan the game's packs
func (k *KeyMap) IsRescan(msg tea.KeyMsg) bool {
	return msg.String() == "r" || msg.Type == tea.KeyF5
}

// IsRefresh returns true if the key should fetch Workshop metadata
func (k *KeyMap) IsRefresh(msg tea.KeyMsg) bool {
	return msg.String() == "u"
}

// IsLaunch returns true if the key should assemble and start the game
func (k *KeyMap) IsLaunch(msg tea.KeyMsg) bool {
	return msg.String() == "x" || msg.Type == tea.KeyCtrlX
}

// IsHelp returns true if the key should show help
func (k *KeyMap) IsHelp(msg tea.KeyMsg) bool {
	return msg.String() == "?"
}

// IsDelete returns true if the key is a delete key
func (k *KeyMap) IsDelete(msg tea.KeyMsg) bool {
	return msg.String() == "d" || msg.Type == tea.KeyDelete
}

// IsHome returns true if the key should go to first item
func (k *KeyMap) IsHome(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyHome {
		return true
	}
	if k.mode == "vim" && msg.String() == "g" {
		return true
	}
	return false
}

// IsEnd returns true if the key should go to last item
func (k *KeyMap) IsEnd(msg tea.KeyMsg) bool {
	if msg.Type == tea.KeyEnd {
		return true
	}
	if k.mode == "vim" && msg.String() == "G" {
		return true
	}
	return false
}

// IsMoveUp returns true if the key should move item up in order
func (k *KeyMap) IsMoveUp(msg tea.KeyMsg) bool {
	return msg.String() == "K" || msg.Type == tea.KeyShiftUp
}

// IsMoveDown returns true if the key should move item down in order
func (k *KeyMap) IsMoveDown(msg tea.KeyMsg) bool {
	return msg.String() == "J" || msg.Type == tea.KeyShiftDown
}

// Normalize maps the mode's navigation keys onto the canonical keys the
// views understand, so views never see vim letters in standard mode.
func (k *KeyMap) Normalize(msg tea.KeyMsg) tea.KeyMsg {
	switch {
	case k.IsMoveUp(msg):
		return tea.KeyMsg{Type: tea.KeyShiftUp}
	case k.IsMoveDown(msg):
		return tea.KeyMsg{Type: tea.KeyShiftDown}
	case k.IsUp(msg):
		return tea.KeyMsg{Type: tea.KeyUp}
	case k.IsDown(msg):
		return tea.KeyMsg{Type: tea.KeyDown}
	case k.IsLeft(msg):
		return tea.KeyMsg{Type: tea.KeyLeft}
	case k.IsRight(msg):
		return tea.KeyMsg{Type: tea.KeyRight}
	case k.IsHome(msg):
		return tea.KeyMsg{Type: tea.KeyHome}
	case k.IsEnd(msg):
		return tea.KeyMsg{Type: tea.KeyEnd}
	case k.IsDelete(msg):
		return tea.KeyMsg{Type: tea.KeyDelete}
	}
	return msg
}

// NavigationHelp returns help text for navigation keys
func (k *KeyMap) NavigationHelp() string {
	if k.mode == "vim" {
		return "j/k: navigate  h/l: change"
	}
	return "↑/↓: navigate  ←/→: change"
}

// FullHelp returns complete help text
func (k *KeyMap) FullHelp() string {
	if k.mode == "vim" {
		return `Navigation:
  j/k     Move down/up
  h/l     Move left/right (in settings)
  g/G     Go to first/last item

Actions:
  enter   Select/Confirm
  space   Enable/disable mod
  d       Delete profile
  ?       Help
  q       Quit

Game:
  r       Rescan packs
  u       Refresh Workshop metadata
  x       Launch

Reorder:
  J/K     Move mod down/up
  </>     Move mod to previous/next category`
	}

	return `Navigation:
  ↑/↓     Move up/down
  ←/→     Move left/right (in settings)
  Home    Go to first item
  End     Go to last item

Actions:
  Enter   Select/Confirm
  Space   Enable/disable mod
  Delete  Delete profile
  ?       Help
  q       Quit

Game:
  F5      Rescan packs
  u       Refresh Workshop metadata
  Ctrl+X  Launch

Reorder:
  Shift+↓ Move mod down
  Shift+↑ Move mod up
  </>     Move mod to previous/next category`
}
