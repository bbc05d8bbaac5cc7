package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().String("endpoint", "", "External resolver API endpoint URL")
	cmd.PersistentFlags().String("listen", "", "HTTP listen address for serve mode (e.g., :8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Set hard timeout for outbound requests")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("fallback-script", "", "Path to the local extraction script")
}
