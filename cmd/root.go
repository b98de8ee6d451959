// Package cmd provides the command-line interface for wsrelay.
//
// Configuration is resolved from three sources with clear precedence:
//  1. Command-line flags (--config, --log-level, etc.) - highest priority
//  2. WSRELAY_* environment variables (WSRELAY_LISTEN_ADDR, etc.)
//  3. Configuration file (wsrelay.yaml) - lowest priority
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relaykit/wsrelay/internal/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wsrelay",
	Short: "A WebSocket and TCP broadcast relay",
	Long: `wsrelay accepts WebSocket and framed TCP connections and relays every
frame it receives to every connected peer, the sender included.

Quick Start:
  wsrelay serve                          Start a relay on :8080
  wsrelay tail ws://localhost:8080/ws    Print everything the relay broadcasts
  wsrelay send ws://localhost:8080/ws hi Relay one message and exit
  wsrelay chat ws://localhost:8080/ws    Interactive chat over the relay
  wsrelay bench ws://localhost:8080/ws   Load-test a relay`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is wsrelay.yaml; WSRELAY_* env vars also apply)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (text, json)")
}

// defaultLogConfig is for commands that run without a config file.
func defaultLogConfig() config.LogConfig {
	return config.Default().Log
}

// newLogger builds the process logger from config, with the persistent
// flags taking precedence.
func newLogger(cfg config.LogConfig) *slog.Logger {
	if logLevel != "" {
		cfg.Level = logLevel
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
