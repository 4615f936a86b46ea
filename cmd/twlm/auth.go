package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Steam Web API key",
	Long: `Manage the Steam Web API key used to fetch Workshop metadata.

Use 'twlm auth set-key' to store a key.
Use 'twlm auth remove' to delete it.
Use 'twlm auth status' to check which key is in use.

TWLM_STEAM_API_KEY overrides the stored key.`,
}

var authSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store a Steam Web API key",
	Long: `Store a Steam Web API key. Without an argument the key is read from the terminal.

To get a key:
  1. Visit https://steamcommunity.com/dev/apikey
  2. Register a domain name (any value works)
  3. Copy the key`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthSetKey,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the stored Steam Web API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthRemove,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Steam Web API key is configured",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authSetKeyCmd, authRemoveCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSetKey(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) > 0 {
		key = strings.TrimSpace(args[0])
	} else {
		var err error
		key, err = readAPIKey(cmd)
		if err != nil {
			return fmt.Errorf("reading API key: %w", err)
		}
	}
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	svc, err := initService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
		}
	}()

	if err := svc.SetAPIKey(key); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}
	cmd.Printf("%s Stored Steam API key (%s)\n", colorGreen("✓"), maskAPIKey(key))
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.DeleteAPIKey(); err != nil {
		return fmt.Errorf("removing key: %w", err)
	}
	cmd.Println("Removed Steam API key.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	if key := os.Getenv("TWLM_STEAM_API_KEY"); key != "" {
		cmd.Printf("Steam: authenticated via TWLM_STEAM_API_KEY (key: %s)\n", maskAPIKey(key))
		return nil
	}

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.HasAPIKey() {
		cmd.Println("Steam: authenticated")
		return nil
	}
	cmd.Println("Steam: not authenticated (cached metadata only)")
	return nil
}

// maskAPIKey keeps the first and last four characters of a key
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// readAPIKey prompts for a key, hiding input when stdin is a terminal
func readAPIKey(cmd *cobra.Command) (string, error) {
	cmd.Print("Enter Steam Web API key: ")

	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(os.Stdin.Fd()) {
		keyBytes, err := term.ReadPassword(os.Stdin.Fd())
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimSpace(string(keyBytes)), nil
	}

	key, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && key == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(key), nil
}
