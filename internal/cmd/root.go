// Package cmd implements the gantry command-line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gantrylabs/gantry/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Safety-gated task execution for AI coding agents",
	Long: `Gantry takes a structured requirements document, schedules its tasks
so file-conflicting work runs sequentially while independent work runs
concurrently, dispatches each task to a coding agent in an isolated
worktree, and gates the result through rebase, build, typecheck, and
boundary checks before opening a pull request.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/gantry/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Defaults first so they apply even without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GANTRY")
	// GANTRY_BUDGET_SESSION_CAP maps to budget.session_cap.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
