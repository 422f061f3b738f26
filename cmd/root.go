/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/go-serialwatch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialwatch",
	Short: "Discover serial devices and watch them come and go",
	Long: `serialwatch lists the serial devices attached to this machine, shows
their current line settings and reports devices as they are attached and
detached.

Notification sources:
  netlink  kernel uevents (default)
  udev     udev uevents, sent once device permissions are applied
  devfs    inotify on the device directory
  poll     periodic re-enumeration

Settings are read from flags, SERIALWATCH_* environment variables and
$HOME/.serialwatch.yaml, in that order of precedence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialwatch.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("source", string(serialwatch.SourceNetlink), "notification source: netlink, udev, devfs, poll")
	rootCmd.PersistentFlags().String("sysfs-root", "/sys", "sysfs mount point")
	rootCmd.PersistentFlags().String("dev-dir", "/dev", "device node directory")
	rootCmd.PersistentFlags().Duration("poll-interval", serialwatch.DefaultPollInterval, "re-enumeration interval for the poll source")

	for _, name := range []string{"log-level", "source", "sysfs-root", "dev-dir", "poll-interval"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".serialwatch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serialwatch")
	}

	viper.SetEnvPrefix("serialwatch")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds a console logger on stderr at the configured level
func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableStacktrace = true
	config.OutputPaths = []string{"stderr"}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config.Build()
}

// newRegistry returns the registry selected by the source setting
func newRegistry(logger *zap.Logger) (serialwatch.Registry, error) {
	source, err := serialwatch.ParseSource(viper.GetString("source"))
	if err != nil {
		return nil, err
	}

	if source == serialwatch.SourcePoll {
		return serialwatch.NewPortListRegistry(viper.GetDuration("poll-interval"), logger), nil
	}
	return serialwatch.NewSysfsRegistry(
		serialwatch.WithSysfsRoot(viper.GetString("sysfs-root")),
		serialwatch.WithDevDir(viper.GetString("dev-dir")),
		serialwatch.WithSource(source),
		serialwatch.WithRegistryLogger(logger),
	), nil
}

// setup builds the logger and registry shared by every command
func setup() (*zap.Logger, serialwatch.Registry, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	registry, err := newRegistry(logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return logger, registry, nil
}
