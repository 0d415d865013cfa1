package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/AlexanderMakarov/tgjournals/internal/config"
	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"github.com/spf13/cobra"
)

// Set through -ldflags at build time.
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tgjournals",
	Short: "Telegram bot collecting before/after session journals",
	Long: `tgjournals runs a Telegram bot that asks players a catalog of questions
before and after each training session and lets admins review the answers.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tgjournals %s\n", Version)
		fmt.Printf("build time: %s\n", BuildTime)
		fmt.Printf("git commit: %s\n", GitCommit)
		fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file (default ./config/config.yaml or ./config.yaml)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig initializes config and the process logger from the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if err := config.Init(path); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
