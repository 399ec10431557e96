package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import flow over HTTP",
	Long: `Start an HTTP server that lets a web front end upload a trip spreadsheet,
page through and correct the preview, and start the import.

Routes:
  POST   /api/import/sessions              upload a file (multipart field "file")
  GET    /api/import/sessions/:id          session state and a page of rows
  PATCH  /api/import/sessions/:id/rows/:n  correct a field or expense of row n
  POST   /api/import/sessions/:id/import   submit the valid rows
  DELETE /api/import/sessions/:id          discard the session
  GET    /health

The import uses the caller's bearer token and X-Organization-Id header,
falling back to api.token and api.organization_id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := server.NewServer(server.Options{
			Config:    appConfig,
			Submitter: bulkapi.NewClient(appConfig.API.BaseURL, appConfig.API.Timeout, logger),
			Logger:    logger,
			Version:   Version,
		})

		logger.Info("Import server configured",
			zap.String("backend", appConfig.API.BaseURL),
			zap.Strings("allowed_origins", appConfig.Server.AllowedOrigins),
			zap.Duration("session_ttl", appConfig.Server.SessionTTL))

		return srv.Start(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
