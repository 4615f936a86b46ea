package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	modMoveCategory string
	modMoveIndex    int
	modListEnabled  bool
)

var modCmd = &cobra.Command{
	Use:   "mod",
	Short: "Manage the mods of a game",
	Long:  `Commands for scanning, listing, enabling and ordering mods.`,
}

var modListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mods grouped by category",
	Long: `List every known mod of a game in category order.

Examples:
  twlm mod list --game warhammer_3
  twlm mod list --enabled --json`,
	Args: cobra.NoArgs,
	RunE: runModList,
}

var modScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the data and Workshop folders",
	Long: `Scan the game's data folder and Workshop content folder for packs.

New packs are added disabled to Unassigned. Packs that disappeared are
removed. Category, order and enabled state of known mods are kept.`,
	Args: cobra.NoArgs,
	RunE: runModScan,
}

var modRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch Workshop metadata for subscribed mods",
	Long: `Query the Steam Workshop for the game's mods and update names,
authors and outdated flags. Requires a Steam Web API key ('twlm auth set-key').`,
	Args: cobra.NoArgs,
	RunE: runModRefresh,
}

var modEnableCmd = &cobra.Command{
	Use:   "enable <mod-id>...",
	Short: "Enable one or more mods",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModSetEnabled(cmd, args, true)
	},
}

var modDisableCmd = &cobra.Command{
	Use:   "disable <mod-id>...",
	Short: "Disable one or more mods",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModSetEnabled(cmd, args, false)
	},
}

var modMoveCmd = &cobra.Command{
	Use:   "move <mod-id>",
	Short: "Move a mod to a category and position",
	Long: `Move a mod within its category, or into another one.

The index is clamped to the category's bounds; -1 appends.

Examples:
  twlm mod move 2789900000 --index 0
  twlm mod move local-my_mod.pack --category Graphics --index -1`,
	Args: cobra.ExactArgs(1),
	RunE: runModMove,
}

func init() {
	modListCmd.Flags().BoolVar(&modListEnabled, "enabled", false, "only list enabled mods")
	modMoveCmd.Flags().StringVarP(&modMoveCategory, "category", "c", "", "target category (default: current)")
	modMoveCmd.Flags().IntVarP(&modMoveIndex, "index", "i", -1, "position in the category, -1 appends")

	modCmd.AddCommand(modListCmd, modScanCmd, modRefreshCmd, modEnableCmd, modDisableCmd, modMoveCmd)
	rootCmd.AddCommand(modCmd)
}

type modJSON struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Order    int       `json:"order"`
	Enabled  bool      `json:"enabled"`
	File     string    `json:"file"`
	Size     int64     `json:"size"`
	SteamID  string    `json:"steam_id,omitempty"`
	Creator  string    `json:"creator,omitempty"`
	Modified time.Time `json:"modified"`
	Outdated bool      `json:"outdated,omitempty"`
	Local    bool      `json:"local_only,omitempty"`
}

func runModList(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		cfg, err := svc.GameConfig(gameKey)
		if err != nil {
			return err
		}

		if jsonOutput {
			out := []modJSON{}
			for _, cat := range cfg.AllCategories() {
				for _, m := range cfg.ModsIn(cat) {
					if modListEnabled && !m.Enabled {
						continue
					}
					out = append(out, modJSON{
						ID: m.ID, Name: m.DisplayName(), Category: cat, Order: m.Order,
						Enabled: m.Enabled, File: m.FileName(), Size: m.FileSize, SteamID: m.SteamID,
						Creator: m.Creator, Modified: m.ModTime, Outdated: m.Outdated, Local: m.LocalOnly,
					})
				}
			}
			return printJSON(out)
		}

		if len(cfg.Mods) == 0 {
			fmt.Println("No mods known. Run 'twlm mod scan'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, cat := range cfg.AllCategories() {
			mods := cfg.ModsIn(cat)
			fmt.Fprintf(w, "[%s]\t\t\t\t\n", cat)
			for _, m := range mods {
				if modListEnabled && !m.Enabled {
					continue
				}
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
					enabledMark(m), m.ID, m.DisplayName(), humanize.Bytes(uint64(m.FileSize)), modStatus(m))
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}

		enabled := len(core.ResolveEnabledOrder(cfg))
		fmt.Printf("\n%d mods, %d enabled\n", len(cfg.Mods), enabled)
		return nil
	})
}

func enabledMark(m *domain.Mod) string {
	if m.Enabled {
		return colorGreen("[x]")
	}
	return "[ ]"
}

func modStatus(m *domain.Mod) string {
	switch {
	case m.Outdated:
		return colorYellow("outdated")
	case m.LocalOnly:
		return "local"
	case m.ModTime.IsZero():
		return ""
	default:
		return humanize.Time(m.ModTime)
	}
}

func runModScan(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		before, err := svc.GameConfig(gameKey)
		if err != nil {
			return err
		}

		value, err := runJob(svc, svc.Rescan)
		if err != nil {
			return fmt.Errorf("scanning: %w", err)
		}
		after := value.(*domain.GameConfig)

		added, removed := 0, 0
		for id := range after.Mods {
			if _, ok := before.Mods[id]; !ok {
				added++
			}
		}
		for id := range before.Mods {
			if _, ok := after.Mods[id]; !ok {
				removed++
			}
		}

		cmd.Printf("%s Scanned: %d mods (%d new, %d removed)\n", colorGreen("✓"), len(after.Mods), added, removed)
		return nil
	})
}

func runModRefresh(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		if !svc.HasAPIKey() {
			cmd.Println(colorYellow("No Steam API key set; only cached metadata is applied."))
		}

		value, err := runJob(svc, svc.RefreshOnline)
		if err != nil {
			return fmt.Errorf("refreshing: %w", err)
		}
		res := value.(core.MergeResult)

		if jsonOutput {
			return printJSON(map[string]int{"applied": res.Applied, "stale": res.Stale})
		}
		cmd.Printf("%s Updated metadata for %d mods (%d unchanged)\n", colorGreen("✓"), res.Applied, res.Stale)
		return nil
	})
}

func runModSetEnabled(cmd *cobra.Command, ids []string, enabled bool) error {
	return withGame(func(svc *core.Service) error {
		err := editAndSave(svc, func(cfg *domain.GameConfig) error {
			for _, id := range ids {
				if err := core.SetEnabled(cfg, id, enabled); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		verb := "Enabled"
		if !enabled {
			verb = "Disabled"
		}
		for _, id := range ids {
			cmd.Printf("%s %s: %s\n", colorGreen("✓"), verb, id)
		}
		return nil
	})
}

func runModMove(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withGame(func(svc *core.Service) error {
		var target string
		err := editAndSave(svc, func(cfg *domain.GameConfig) error {
			mod, ok := cfg.Mods[id]
			if !ok {
				return fmt.Errorf("%s: %w", id, domain.ErrModNotFound)
			}
			target = modMoveCategory
			if target == "" {
				target = mod.CategoryName()
			}
			index := modMoveIndex
			if index < 0 {
				index = len(cfg.Mods)
			}
			return core.MoveMod(cfg, id, target, index)
		})
		if err != nil {
			return err
		}
		cmd.Printf("%s Moved %s to %s\n", colorGreen("✓"), id, target)
		return nil
	})
}
