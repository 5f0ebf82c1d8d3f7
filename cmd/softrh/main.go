package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/softrh/softrh/internal/config"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "softrh",
	Short:         "Local HR records: employees, vacancies, vacations, documents",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}

	rootCmd.AddCommand(
		employeesCmd,
		vacanciesCmd,
		vacationsCmd,
		documentsCmd,
		reviewsCmd,
		trainingsCmd,
		statsCmd,
		alertsCmd,
		reportCmd,
		dataCmd,
		configCmd,
		serveCmd,
		stopCmd,
		statusCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from log.level and log.format. Logs
// always go to w (stderr in practice) because stdout carries MCP traffic
// while serving.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func versionString() string {
	return fmt.Sprintf("softrh version %s", version)
}
