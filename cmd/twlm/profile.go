package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/DonovanMods/twlm/internal/core"
	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/config"

	"github.com/spf13/cobra"
)

var profileExportOutput string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage load order profiles",
	Long: `Profiles are named, shareable snapshots of a game's enabled load order.

They only record Workshop ids and local pack names, so they can be shared
with other players.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current load order as a profile",
	Long: `Save the enabled mods of the game, in load order, under a name.
An existing profile of that name is replaced.

Examples:
  twlm profile save campaign --game warhammer_3`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileSave,
}

var profileLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Apply a saved profile",
	Long: `Enable exactly the mods of a profile, in its order. Mods that are not
installed are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileLoad,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current load order as shareable text",
	Long: `Write the enabled load order, one "<steam|local>:<id>:<0|1>" line per mod.

Examples:
  twlm profile export > my_order.txt
  twlm profile export --output my_order.txt`,
	Args: cobra.NoArgs,
	RunE: runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a shared load order",
	Long: `Apply a load order exported by 'twlm profile export'. Use "-" to read stdin.

Examples:
  twlm profile import my_order.txt --game warhammer_3`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileImport,
}

func init() {
	profileExportCmd.Flags().StringVarP(&profileExportOutput, "output", "o", "", "write to file instead of stdout")

	profileCmd.AddCommand(profileListCmd, profileSaveCmd, profileLoadCmd, profileDeleteCmd, profileExportCmd, profileImportCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		names, err := svc.Profiles().List(gameKey)
		if err != nil {
			return err
		}

		if jsonOutput {
			if names == nil {
				names = []string{}
			}
			return printJSON(names)
		}

		if len(names) == 0 {
			fmt.Println("No profiles found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODS")
		fmt.Fprintln(w, "----\t----")
		for _, name := range names {
			count := "?"
			if p, err := svc.Profiles().Get(gameKey, name); err == nil {
				count = fmt.Sprint(len(p.Mods))
			}
			fmt.Fprintf(w, "%s\t%s\n", name, count)
		}
		return w.Flush()
	})
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		profile, err := svc.SaveProfile(gameKey, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%s Saved profile: %s (%d mods)\n", colorGreen("✓"), profile.Name, len(profile.Mods))
		return nil
	})
}

func runProfileLoad(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		missing, err := svc.LoadProfile(gameKey, args[0])
		if err != nil {
			return err
		}
		if err := svc.Save(gameKey); err != nil {
			return err
		}
		cmd.Printf("%s Loaded profile: %s\n", colorGreen("✓"), args[0])
		printMissing(cmd, missing)
		return nil
	})
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		if err := svc.Profiles().Delete(gameKey, args[0]); err != nil {
			return err
		}
		cmd.Printf("%s Deleted profile: %s\n", colorGreen("✓"), args[0])
		return nil
	})
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	return withGame(func(svc *core.Service) error {
		text, err := svc.ExportLoadOrder(gameKey)
		if err != nil {
			return err
		}
		if profileExportOutput == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		}
		if err := os.WriteFile(profileExportOutput, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", profileExportOutput, err)
		}
		cmd.PrintErrf("%s Exported load order to %s\n", colorGreen("✓"), profileExportOutput)
		return nil
	})
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	text, err := readLoadOrder(cmd, args[0])
	if err != nil {
		return err
	}
	return withGame(func(svc *core.Service) error {
		missing, err := svc.ImportLoadOrder(gameKey, text)
		if err != nil {
			return fmt.Errorf("importing load order: %w", err)
		}
		if err := svc.Save(gameKey); err != nil {
			return err
		}
		cmd.Printf("%s Imported load order from %s\n", colorGreen("✓"), args[0])
		printMissing(cmd, missing)
		return nil
	})
}

func readLoadOrder(cmd *cobra.Command, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	path, err := config.ParseLoadOrderPath(arg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func printMissing(cmd *cobra.Command, missing []domain.ShareableMod) {
	if len(missing) == 0 {
		return
	}
	cmd.Printf("%s %d mods are not installed:\n", colorYellow("!"), len(missing))
	for _, m := range missing {
		cmd.Printf("  %s:%s\n", m.Source, m.Identifier)
	}
}
