package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"

	"grape/internal/app"
	"grape/internal/config"
	"grape/internal/infrastructure/logging"
)

var (
	envName string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "grape",
	Short: "Grape desktop client",
	Long:  "Desktop shell around the Grape web chat with tray, badges and notifications.",
	// Notification clicks relaunch the binary with an activation URL, and
	// macOS may add its own flags; both are forwarded to the running instance.
	Args:               cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	SilenceUsage:       true,
	RunE:               run,
}

func init() {
	rootCmd.Flags().StringVar(&envName, "env", config.Production,
		fmt.Sprintf("Environment: %s", strings.Join(config.Names(), ", ")))
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for preferences and cached icons")
}

func run(cmd *cobra.Command, args []string) error {
	env, err := config.Load(envName)
	if err != nil {
		return err
	}

	logger := logging.NewDefaultLogger()
	if !env.IsProduction() {
		logger = logging.NewDevelopmentLogger()
	}

	if dataDir == "" {
		dataDir, err = defaultDataDir(env)
		if err != nil {
			return err
		}
	}

	application, err := app.NewApp(env, dataDir, logger)
	if err != nil {
		logging.LogError(logger, err, "main.run", nil)
		return err
	}

	if err := wails.Run(application.Options()); err != nil {
		logging.LogError(logger, err, "main.run", map[string]interface{}{"step": "wails"})
		return err
	}
	return nil
}

// defaultDataDir keeps each environment's preferences apart
func defaultDataDir(env *config.Environment) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	name := "Grape"
	if !env.IsProduction() {
		name += "-" + env.Name
	}
	return filepath.Join(base, name), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
