package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogdeck/admin/internal/config"
	"github.com/blogdeck/admin/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "blogdeck",
	Short:         "Admin service for a static blog",
	Long:          `Serves the blog admin API and manages posts and pages in the site's source directory.`,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// LOG_LEVEL: debug|info|warn|error|fatal
		logger.Init(os.Getenv("LOG_LEVEL"))
		if siteDir != "" {
			_ = os.Setenv("SITE_DIR", siteDir)
		}
	},
}

var siteDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&siteDir, "site", "", "site directory containing _config.yml (overrides SITE_DIR)")
}

// openApp loads configuration and builds the app. Replaced in tests.
var openApp = func(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}
