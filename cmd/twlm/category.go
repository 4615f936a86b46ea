package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage mod categories",
	Long: `Categories group mods and decide load order: Unassigned loads first,
then each category in display order.`,
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in load order",
	Args:  cobra.NoArgs,
	RunE:  runCategoryList,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category at the end",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a category, moving its mods to Unassigned",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryDelete,
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoryRename,
}

var categoryMoveCmd = &cobra.Command{
	Use:   "move <name> <index>",
	Short: "Move a category to a position",
	Long: `Move a category among the user categories. Index 0 is the first category
after Unassigned; indices past the end are clamped.`,
	Args: cobra.ExactArgs(2),
	RunE: runCategoryMove,
}

func init() {
	categoryCmd.AddCommand(categoryListCmd, categoryAddCmd, categoryDeleteCmd, categoryRenameCmd, categoryMoveCmd)
	rootCmd.AddCommand(categoryCmd)
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		cfg, err := svc.GameConfig(gameKey)
		if err != nil {
			return err
		}

		type categoryJSON struct {
			Name    string `json:"name"`
			Mods    int    `json:"mods"`
			Enabled int    `json:"enabled"`
		}
		var out []categoryJSON
		for _, name := range cfg.AllCategories() {
			c := categoryJSON{Name: name}
			for _, m := range cfg.ModsIn(name) {
				c.Mods++
				if m.Enabled {
					c.Enabled++
				}
			}
			out = append(out, c)
		}

		if jsonOutput {
			return printJSON(out)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCATEGORY\tMODS\tENABLED")
		fmt.Fprintln(w, "-\t--------\t----\t-------")
		for i, c := range out {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", i, c.Name, c.Mods, c.Enabled)
		}
		return w.Flush()
	})
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		if err := editAndSave(svc, func(cfg *domain.GameConfig) error {
			return core.AddCategory(cfg, args[0])
		}); err != nil {
			return err
		}
		cmd.Printf("%s Added category: %s\n", colorGreen("✓"), args[0])
		return nil
	})
}

func runCategoryDelete(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		if err := editAndSave(svc, func(cfg *domain.GameConfig) error {
			return core.DeleteCategory(cfg, args[0])
		}); err != nil {
			return err
		}
		cmd.Printf("%s Deleted category: %s\n", colorGreen("✓"), args[0])
		return nil
	})
}

func runCategoryRename(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		if err := editAndSave(svc, func(cfg *domain.GameConfig) error {
			return core.RenameCategory(cfg, args[0], args[1])
		}); err != nil {
			return err
		}
		cmd.Printf("%s Renamed category: %s -> %s\n", colorGreen("✓"), args[0], args[1])
		return nil
	})
}

func runCategoryMove(cmd *cobra.Command, args []string) error {
	var index int
	if _, err := fmt.Sscanf(args[1], "%d", &index); err != nil {
		return fmt.Errorf("invalid index %q", args[1])
	}
	return withGame(func(svc *core.Service) error {
		if err := editAndSave(svc, func(cfg *domain.GameConfig) error {
			return core.MoveCategory(cfg, args[0], index)
		}); err != nil {
			return err
		}
		cmd.Printf("%s Moved category %s to position %d\n", colorGreen("✓"), args[0], index)
		return nil
	})
}
