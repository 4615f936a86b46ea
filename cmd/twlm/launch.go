package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var launchDryRun bool

var (
	optLogging        bool
	optSkipIntro      bool
	optMerge          bool
	optUnitMultiplier float64
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Assemble the enabled mods and start the game",
	Long: `Stage the enabled mods in load order, apply the launch options, write
used_mods.txt and start the game.

With --dry-run the mods are staged and the load order file is printed, but
the game is not started.

Examples:
  twlm launch --game warhammer_3
  twlm launch --dry-run`,
	Args: cobra.NoArgs,
	RunE: runLaunch,
}

var launchOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show or change the pre-launch options of a game",
	Long: `Show the pre-launch options of a game, or change them with flags.

Options a game does not support are ignored at launch.

Examples:
  twlm launch options
  twlm launch options --skip-intro --unit-multiplier 1.5
  twlm launch options --logging=false`,
	Args: cobra.NoArgs,
	RunE: runLaunchOptions,
}

var launchCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the staged packs of a game",
	Long: `Delete the staging directory that 'twlm launch' fills. It is rebuilt on
the next launch.`,
	Args: cobra.NoArgs,
	RunE: runLaunchClean,
}

func init() {
	launchCmd.Flags().BoolVarP(&launchDryRun, "dry-run", "n", false, "assemble only, do not start the game")

	launchOptionsCmd.Flags().BoolVar(&optLogging, "logging", false, "enable script logging")
	launchOptionsCmd.Flags().BoolVar(&optSkipIntro, "skip-intro", false, "skip intro movies")
	launchOptionsCmd.Flags().BoolVar(&optMerge, "merge", false, "merge all mods into one pack")
	launchOptionsCmd.Flags().Float64Var(&optUnitMultiplier, "unit-multiplier", 1.0, "scale unit sizes")

	launchCmd.AddCommand(launchOptionsCmd, launchCleanCmd)
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		start := svc.Launch
		if launchDryRun {
			start = svc.Assemble
		}

		value, err := runJob(svc, start)
		if err != nil {
			return err
		}
		asm := value.(*core.Assembly)

		if launchDryRun {
			data, err := os.ReadFile(asm.LoadOrderFile)
			if err != nil {
				return fmt.Errorf("reading load order: %w", err)
			}
			size, err := svc.Staging().Size(gameKey)
			if err != nil {
				return err
			}
			cmd.Printf("Staged %d packs in %s (%s)\n", len(asm.Packs), asm.Dir, humanize.Bytes(uint64(size)))
			cmd.Printf("Launch args: %s\n\n", strings.Join(asm.Args, " "))
			cmd.Print(string(data))
			return nil
		}

		cmd.Printf("%s Launched %s with %d packs\n", colorGreen("✓"), gameKey, len(asm.Packs))
		return nil
	})
}

func runLaunchOptions(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		game, err := svc.GetGame(gameKey)
		if err != nil {
			return err
		}
		opts := svc.Config().LaunchOptionsFor(gameKey)

		flags := cmd.Flags()
		changed := false
		if flags.Changed("logging") {
			opts.EnableLogging, changed = optLogging, true
		}
		if flags.Changed("skip-intro") {
			opts.SkipIntro, changed = optSkipIntro, true
		}
		if flags.Changed("merge") {
			opts.MergeAllMods, changed = optMerge, true
		}
		if flags.Changed("unit-multiplier") {
			if optUnitMultiplier <= 0 {
				return fmt.Errorf("unit multiplier must be positive")
			}
			opts.UnitMultiplier, changed = optUnitMultiplier, true
		}

		if changed {
			svc.Config().SetLaunchOptions(gameKey, opts)
			if err := svc.SaveConfig(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			cmd.Printf("%s Launch options updated for %s\n", colorGreen("✓"), game.Name)
		}

		if jsonOutput {
			return printJSON(opts)
		}
		printLaunchOptions(cmd, game.Capabilities(), opts)
		return nil
	})
}

func runLaunchClean(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		stg := svc.Staging()
		if !stg.Exists(gameKey) {
			cmd.Println("Nothing staged.")
			return nil
		}
		size, err := stg.Size(gameKey)
		if err != nil {
			return err
		}
		if err := stg.Clear(gameKey); err != nil {
			return err
		}
		cmd.Printf("%s Removed staged packs (%s)\n", colorGreen("✓"), humanize.Bytes(uint64(size)))
		return nil
	})
}

func printLaunchOptions(cmd *cobra.Command, caps domain.Capabilities, opts config.LaunchOptions) {
	line := func(name string, supported bool, value string) {
		if !supported {
			value = colorYellow("unsupported")
		}
		cmd.Printf("  %-16s %s\n", name, value)
	}
	line("script logging", caps.ScriptLogging, onOff(opts.EnableLogging))
	line("skip intro", caps.SkipIntro, onOff(opts.SkipIntro))
	line("merge all mods", caps.MergeAllMods, onOff(opts.MergeAllMods))
	line("unit multiplier", caps.UnitMultiplier, fmt.Sprintf("%.2f", opts.UnitMultiplier))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
