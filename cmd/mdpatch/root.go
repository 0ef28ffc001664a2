package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/markpatch/cmd/mdpatch/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	logLevel   string
	logFile    string
	rawMode    string
	imageMode  string

	// cfg is the effective configuration after flags are applied.
	cfg = DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "mdpatch",
	Short: "Render markdown to HTML incrementally",
	Long: `mdpatch renders markdown documents to HTML. Re-rendering an edited
document patches the previous output instead of rebuilding it, so unchanged
elements keep their identity.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return loadSettings() },
	PersistentPostRun: func(cmd *cobra.Command, args []string) { _ = logger.Close() },
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&rawMode, "raw", "", "Raw HTML handling (escape, sanitize)")
	rootCmd.PersistentFlags().StringVar(&imageMode, "images", "", "Image rendering (inline, placeholder)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings reads the config file, applies flag overrides and
// initializes the logger.
func loadSettings() error {
	c := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		c = loaded
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFile != "" {
		c.LogFile = logFile
	}
	if rawMode != "" {
		c.Raw = rawMode
	}
	if imageMode != "" {
		c.Images = imageMode
	}

	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if quiet && level < slog.LevelError {
		level = slog.LevelError
	}
	if err := logger.Init(logger.Options{Level: level, File: c.LogFile}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cfg = c
	return nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
