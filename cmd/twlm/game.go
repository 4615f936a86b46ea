package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/source/steam"

	"github.com/spf13/cobra"
)

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Game management commands",
	Long:  `Commands for managing the configured Total War games.`,
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured games",
	Args:  cobra.NoArgs,
	RunE:  runGameList,
}

var gameDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect installed Total War games in Steam libraries",
	Long: `Scan Steam libraries for installed Total War games and add them to games.yaml.

Prompts for which games to add (e.g. 1,2 or all or none).`,
	Args: cobra.NoArgs,
	RunE: runGameDetect,
}

var (
	gameAddName       string
	gameAddFamily     string
	gameAddPath       string
	gameAddData       string
	gameAddContent    string
	gameAddExecutable string
	gameAddAppID      string
	gameAddLink       string
)

var gameAddCmd = &cobra.Command{
	Use:   "add <key>",
	Short: "Add or replace a game by hand",
	Long: `Add a game that was not detected automatically.

The key selects the game family unless --family is given.

Example:
  twlm game add warhammer_3 --path ~/Games/WH3 --executable Warhammer3.exe`,
	Args: cobra.ExactArgs(1),
	RunE: runGameAdd,
}

var gameRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a game from games.yaml",
	Long:  `Remove a game. Its mod configuration and profiles stay on disk.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGameRemove,
}

var gameSetDefaultCmd = &cobra.Command{
	Use:   "set-default <key>",
	Short: "Set the default game",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameSetDefault,
}

var gameShowDefaultCmd = &cobra.Command{
	Use:   "show-default",
	Short: "Show the current default game",
	Args:  cobra.NoArgs,
	RunE:  runGameShowDefault,
}

var gameClearDefaultCmd = &cobra.Command{
	Use:   "clear-default",
	Short: "Clear the default game setting",
	Long:  `Remove the default game setting, requiring --game for game commands.`,
	Args:  cobra.NoArgs,
	RunE:  runGameClearDefault,
}

func init() {
	gameAddCmd.Flags().StringVar(&gameAddName, "name", "", "display name")
	gameAddCmd.Flags().StringVar(&gameAddFamily, "family", "", "game family (default: the key)")
	gameAddCmd.Flags().StringVar(&gameAddPath, "path", "", "install directory (required)")
	gameAddCmd.Flags().StringVar(&gameAddData, "data-path", "", "data directory (default: <path>/data)")
	gameAddCmd.Flags().StringVar(&gameAddContent, "content-path", "", "Workshop content directory")
	gameAddCmd.Flags().StringVar(&gameAddExecutable, "executable", "", "game executable, relative to --path")
	gameAddCmd.Flags().StringVar(&gameAddAppID, "app-id", "", "Steam app id")
	gameAddCmd.Flags().StringVar(&gameAddLink, "link-method", "", "symlink, hardlink or copy (default: config)")
	_ = gameAddCmd.MarkFlagRequired("path")

	gameCmd.AddCommand(gameListCmd, gameDetectCmd, gameAddCmd, gameRemoveCmd, gameSetDefaultCmd, gameShowDefaultCmd, gameClearDefaultCmd)
	rootCmd.AddCommand(gameCmd)
}

type gameJSON struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Family      string `json:"family"`
	InstallPath string `json:"install_path"`
	DataPath    string `json:"data_path"`
	ContentPath string `json:"content_path,omitempty"`
	SteamAppID  string `json:"steam_app_id,omitempty"`
	Default     bool   `json:"default"`
}

func runGameList(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	games := svc.ListGames()
	def := svc.Config().DefaultGame

	if jsonOutput {
		out := make([]gameJSON, 0, len(games))
		for _, g := range games {
			out = append(out, gameJSON{
				Key: g.Key, Name: g.Name, Family: g.Family.String(),
				InstallPath: g.InstallPath, DataPath: g.DataPath, ContentPath: g.ContentPath,
				SteamAppID: g.SteamAppID, Default: g.Key == def,
			})
		}
		return printJSON(out)
	}

	if len(games) == 0 {
		fmt.Println("No games configured. Run 'twlm game detect'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tFAMILY\tPATH\tDEFAULT")
	fmt.Fprintln(w, "---\t----\t------\t----\t-------")
	for _, g := range games {
		mark := ""
		if g.Key == def {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.Key, g.Name, g.Family, g.InstallPath, mark)
	}
	return w.Flush()
}

func runGameDetect(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	cmd.Println("Scanning Steam libraries...")
	detected, err := steam.DetectGames(svc.ConfigDir())
	if err != nil {
		return fmt.Errorf("detecting games: %w", err)
	}

	var fresh []steam.DetectedGame
	for _, d := range detected {
		if _, err := svc.GetGame(d.Key); err == nil {
			cmd.Printf("  already configured: %s\n", d.Name)
			continue
		}
		fresh = append(fresh, d)
	}
	if len(fresh) == 0 {
		cmd.Println("No new Total War games found.")
		return nil
	}

	cmd.Printf("Found %d new game(s):\n", len(fresh))
	for i, g := range fresh {
		cmd.Printf("  %d. %s (%s)\n", i+1, g.Name, g.Key)
		cmd.Printf("      Path: %s\n", g.InstallPath)
		if g.WorkshopItems > 0 {
			cmd.Printf("      Workshop: %d subscribed items\n", g.WorkshopItems)
		}
	}
	cmd.Print("Add games to config? [1,2/all/none]: ")

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	indices, err := parseSelection(line, len(fresh))
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		cmd.Println("No games added.")
		return ErrCancelled
	}

	for _, n := range indices {
		game := core.GameFromDetected(fresh[n-1])
		if err := svc.AddGame(game); err != nil {
			return fmt.Errorf("saving game %s: %w", game.Key, err)
		}
		cmd.Printf("%s Added: %s (%s)\n", colorGreen("✓"), game.Name, game.Key)
	}
	return nil
}

// parseSelection turns "1,3", "all" or "none" into 1-based indices
func parseSelection(line string, n int) ([]int, error) {
	line = strings.TrimSpace(strings.ToLower(line))
	switch line {
	case "", "n", "none":
		return nil, nil
	case "a", "all":
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i + 1
		}
		return indices, nil
	}

	var indices []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		i, err := strconv.Atoi(part)
		if err != nil || i < 1 || i > n {
			return nil, fmt.Errorf("invalid selection: %q (use numbers 1-%d, all, or none)", part, n)
		}
		if !seen[i] {
			seen[i] = true
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func runGameAdd(cmd *cobra.Command, args []string) error {
	key := args[0]
	familyKey := gameAddFamily
	if familyKey == "" {
		familyKey = key
	}
	family := domain.ParseFamily(familyKey)
	if family == domain.FamilyUnknown {
		return fmt.Errorf("unknown game family %q: %w", familyKey, domain.ErrUnsupported)
	}

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	game := &domain.Game{
		Key:         key,
		Name:        gameAddName,
		Family:      family,
		InstallPath: gameAddPath,
		DataPath:    gameAddData,
		ContentPath: gameAddContent,
		Executable:  gameAddExecutable,
		SteamAppID:  gameAddAppID,
	}
	if game.Name == "" {
		game.Name = key
	}
	if game.DataPath == "" {
		game.DataPath = gameAddPath + "/data"
	}
	if gameAddLink != "" {
		game.LinkMethod = domain.ParseLinkMethod(gameAddLink)
		game.LinkMethodExplicit = true
	}

	if err := svc.AddGame(game); err != nil {
		return err
	}
	cmd.Printf("%s Added: %s (%s)\n", colorGreen("✓"), game.Name, game.Key)
	return nil
}

func runGameRemove(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.RemoveGame(args[0]); err != nil {
		return err
	}
	cmd.Printf("%s Removed: %s\n", colorGreen("✓"), args[0])
	return nil
}

func runGameSetDefault(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	game, err := svc.GetGame(args[0])
	if err != nil {
		return err
	}
	svc.Config().DefaultGame = game.Key
	if err := svc.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cmd.Printf("Default game set to: %s (%s)\n", game.Name, game.Key)
	return nil
}

func runGameShowDefault(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	def := svc.Config().DefaultGame
	if def == "" {
		cmd.Println("No default game set")
		cmd.Println("Use 'twlm game set-default <key>' to set one")
		return nil
	}
	if game, err := svc.GetGame(def); err == nil {
		cmd.Printf("Default game: %s (%s)\n", game.Name, def)
		return nil
	}
	cmd.Printf("Default game: %s %s\n", def, colorYellow("(not configured)"))
	return nil
}

func runGameClearDefault(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Config().DefaultGame == "" {
		cmd.Println("No default game was set")
		return nil
	}
	svc.Config().DefaultGame = ""
	if err := svc.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cmd.Println("Default game cleared")
	return nil
}
