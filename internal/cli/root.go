// Package cli implements the docctl command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/feichai0017/document-client/config"
	"github.com/feichai0017/document-client/internal/service/document"
	"github.com/feichai0017/document-client/internal/service/identity"
	"github.com/feichai0017/document-client/pkg/logger"
)

var (
	configPath string
	apiURL     string
	verbose    bool
)

// Set by PersistentPreRunE unless already injected.
var (
	documentService document.DocumentStore
	userProvider    identity.UserProvider
	closers         []func() error
)

var rootCmd = &cobra.Command{
	Use:               "docctl",
	Short:             "Inspect documents from the document processing service",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { teardown() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Document API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

// Execute runs the root command.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

func setup(*cobra.Command, []string) error {
	if documentService != nil && userProvider != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(
		logger.WithLevel(level),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		return err
	}
	closers = append(closers, func() error {
		_ = log.Sync()
		return nil
	})

	users, err := identity.GetStore(cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, users.Close)

	svc, err := document.GetService(cfg, users, log)
	if err != nil {
		return err
	}
	closers = append(closers, func() error {
		svc.CleanupWebSockets()
		return nil
	})

	documentService, userProvider = svc, users
	return nil
}

// teardown releases what setup opened, in reverse order. Safe to call twice.
func teardown() {
	if len(closers) == 0 {
		return
	}
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i]()
	}
	closers = nil
	documentService, userProvider = nil, nil
}
