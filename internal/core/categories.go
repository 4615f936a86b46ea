package core

import (
	"fmt"

	"github.com/DonovanMods/twlm/internal/domain"
)

// The functions in this file edit a GameConfig's categories and ordering.
// Each one validates before it mutates, so a failed call leaves cfg unchanged.

// AddCategory appends a new, empty category to the display order.
func AddCategory(cfg *domain.GameConfig, name string) error {
	if name == "" {
		return fmt.Errorf("%w: category name is empty", domain.ErrInvalidConfig)
	}
	if name == domain.UnassignedCategory {
		return fmt.Errorf("%q: %w", name, domain.ErrReservedName)
	}
	if cfg.HasCategory(name) {
		return fmt.Errorf("category %q: %w", name, domain.ErrDuplicateName)
	}
	cfg.Categories = append(cfg.Categories, name)
	return nil
}

// DeleteCategory moves the category's mods to the end of Unassigned, keeping
// their relative order, then removes the category.
func DeleteCategory(cfg *domain.GameConfig, name string) error {
	idx := categoryIndex(cfg, name)
	if idx < 0 {
		return fmt.Errorf("%q: %w", name, domain.ErrCategoryNotFound)
	}

	unassigned := append(cfg.ModsIn(domain.UnassignedCategory), cfg.ModsIn(name)...)
	for i, m := range unassigned {
		m.SetCategory(domain.UnassignedCategory)
		m.SetOrder(i)
	}
	cfg.Categories = append(cfg.Categories[:idx:idx], cfg.Categories[idx+1:]...)
	return nil
}

// RenameCategory renames a user category in place; its mods follow it.
func RenameCategory(cfg *domain.GameConfig, oldName, newName string) error {
	idx := categoryIndex(cfg, oldName)
	if idx < 0 {
		return fmt.Errorf("%q: %w", oldName, domain.ErrCategoryNotFound)
	}
	if oldName == newName {
		return nil
	}
	if newName == "" {
		return fmt.Errorf("%w: category name is empty", domain.ErrInvalidConfig)
	}
	if newName == domain.UnassignedCategory {
		return fmt.Errorf("%q: %w", newName, domain.ErrReservedName)
	}
	if cfg.HasCategory(newName) {
		return fmt.Errorf("category %q: %w", newName, domain.ErrDuplicateName)
	}

	for _, m := range cfg.ModsIn(oldName) {
		m.SetCategory(newName)
	}
	cfg.Categories[idx] = newName
	return nil
}

// MoveCategory changes a category's display position. The index is clamped.
func MoveCategory(cfg *domain.GameConfig, name string, index int) error {
	idx := categoryIndex(cfg, name)
	if idx < 0 {
		return fmt.Errorf("%q: %w", name, domain.ErrCategoryNotFound)
	}
	rest := append(cfg.Categories[:idx:idx], cfg.Categories[idx+1:]...)
	index = clamp(index, 0, len(rest))
	cfg.Categories = append(rest[:index:index], append([]string{name}, rest[index:]...)...)
	return nil
}

// MoveMod puts a mod into category at index, shifting the mods after it.
// The index is clamped to the category's bounds. Both the source and the
// target category are renumbered densely.
func MoveMod(cfg *domain.GameConfig, id, category string, index int) error {
	mod, ok := cfg.Mods[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, domain.ErrModNotFound)
	}
	if !cfg.HasCategory(category) {
		return fmt.Errorf("%q: %w", category, domain.ErrCategoryNotFound)
	}

	source := mod.CategoryName()
	var target []*domain.Mod
	for _, m := range cfg.ModsIn(category) {
		if m.ID != id {
			target = append(target, m)
		}
	}
	index = clamp(index, 0, len(target))
	target = append(target[:index:index], append([]*domain.Mod{mod}, target[index:]...)...)

	mod.SetCategory(category)
	for i, m := range target {
		m.SetOrder(i)
	}
	if source != category {
		for i, m := range cfg.ModsIn(source) {
			m.SetOrder(i)
		}
	}
	return nil
}

// SetEnabled toggles a mod. Disabling also drops it from the saved load order.
func SetEnabled(cfg *domain.GameConfig, id string, enabled bool) error {
	mod, ok := cfg.Mods[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, domain.ErrModNotFound)
	}
	mod.SetEnabled(enabled)
	if !enabled {
		cfg.LoadOrder = filterLoadOrder(cfg, cfg.LoadOrder)
	}
	return nil
}

// ResolveEnabledOrder returns the ids of the enabled mods in application
// order: Unassigned first, then the user categories in display order, and
// within a category by order index then id.
func ResolveEnabledOrder(cfg *domain.GameConfig) []string {
	var ids []string
	for _, cat := range cfg.AllCategories() {
		for _, m := range cfg.ModsIn(cat) {
			if m.Enabled {
				ids = append(ids, m.ID)
			}
		}
	}
	return ids
}

// categoryIndex returns the position of a user category, or -1. Unassigned
// is never found.
func categoryIndex(cfg *domain.GameConfig, name string) int {
	for i, c := range cfg.Categories {
		if c == name {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
