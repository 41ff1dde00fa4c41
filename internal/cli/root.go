// Package cli implements the terminal client for the game server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "wordarena",
		Short: "CLI client for the word arena game server",
		Long: `wordarena is a terminal client for the word arena game server.

It covers the full game protocol: account management, guessing rounds
against the current secret word, statistics, the live ranking, and
real-time ranking notifications.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load the saved session if credentials were not provided
			// via flag or env
			if err := cfg.LoadSession(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerAddr, cfg.Username, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Server address (env: WORDARENA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Username, "user", cfg.Username, "Username (env: WORDARENA_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: WORDARENA_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "Session file path (env: WORDARENA_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRankingCmd())
	rootCmd.AddCommand(newTimerCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
