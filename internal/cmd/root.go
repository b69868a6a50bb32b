// Package cmd wires the focusd subcommands.
package cmd

import (
	"context"

	"github.com/sandeepkv93/focusd/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "focusd",
	Short: "Local focus tracker with a Pomodoro dashboard",
	Long: `focusd records which window you are focused on, warns when it does not
belong to the task you picked, and runs a Pomodoro timer in the terminal.

Run "focusd serve" for the local API and "focusd dash" for the dashboard.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/focusd/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	config.Prepare(viper.GetViper(), viper.GetString("config"))
	// A missing file is fine; a broken one surfaces when a command loads it.
	_ = config.Read(viper.GetViper())
}

func loadConfig() (*config.Config, error) {
	if err := config.Read(viper.GetViper()); err != nil {
		return nil, err
	}
	return config.Load(viper.GetViper())
}

// configPath is the file the dashboard watches for edits.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.File()
}
