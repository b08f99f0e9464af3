// Command tocctl validates, inspects and publishes the table of contents.
//
// Usage:
//
//	tocctl validate --dir ./corpus
//	tocctl resolve office --slug morning-prayer --version RiteII
//	tocctl migrate --dsn postgres://...
//	tocctl import --dir ./corpus --dsn postgres://...
//	tocctl token --subject ops --role admin
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/commonprayer-backend/internal/app"
	"github.com/heartmarshall/commonprayer-backend/internal/config"
)

var (
	corpusDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "tocctl",
	Short:         "Manage the Common Prayer table of contents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusDir, "dir", envOr("TOC_DIR", "./corpus"), "corpus directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(validateCmd, resolveCmd, migrateCmd, importCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tocctl: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return app.NewLogger(config.LogConfig{Level: logLevel, Format: "text"})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
