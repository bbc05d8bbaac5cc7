// internal/cli/keys.go
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medialoom/loom/internal/auth"
	"github.com/medialoom/loom/internal/ui"
)

// keyCmd groups resolver API key management subcommands
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the resolver API key",
	Long: `Stores the external resolver API key in the system keyring, falling back to
an encrypted file in your home directory on headless systems.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the resolver API key",
	Example: `  # Provide the key as an argument
  loom key set lm_live_abc123

  # Or enter it interactively
  loom key set`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Print("API key: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			key = strings.TrimSpace(line)
		}
		if key == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		if err := auth.SaveAPIKey(key); err != nil {
			return fmt.Errorf("saving API key: %w", err)
		}
		fmt.Println(ui.Success("API key saved"))
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether a resolver API key is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := auth.LoadAPIKey()
		if key == "" {
			fmt.Println(ui.Info("No API key configured"))
			return nil
		}
		// Only reveal a short prefix
		masked := key
		if len(masked) > 8 {
			masked = masked[:8] + strings.Repeat("*", 4)
		}
		fmt.Println(ui.Success("API key configured: ") + masked)
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored resolver API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.DeleteAPIKey(); err != nil {
			return fmt.Errorf("deleting API key: %w", err)
		}
		fmt.Println(ui.Success("API key removed"))
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	rootCmd.AddCommand(keyCmd)
}
