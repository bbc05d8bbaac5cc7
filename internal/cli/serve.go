// internal/cli/serve.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medialoom/loom/internal/server"
	"github.com/medialoom/loom/internal/ui"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP API that backs the web front end.

Endpoints:
  - POST /api/resolve    resolve a media page URL
  - GET  /api/queue      list download queue items
  - GET  /api/settings   read and update UI settings
  - GET  /api/health     liveness probe`,
	Example: `  # Listen on the default address
  loom serve

  # Listen on a custom port
  loom serve --listen=:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	appCtx := GetApp()
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	srv := server.New(appCtx.Config.ListenAddr, appCtx.Pipeline, appCtx.Queue, appCtx.Settings)

	if !quiet {
		fmt.Println(ui.Info("Listening on " + appCtx.Config.ListenAddr))
	}
	return srv.Start(cmd.Context())
}
