package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lendnet/orchestrator/configs"
	"github.com/lendnet/orchestrator/internal/cli"
	"github.com/lendnet/orchestrator/internal/deployment"
	"github.com/lendnet/orchestrator/internal/interaction"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/lendnet/orchestrator/internal/topology"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "lendnet"

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Deploy and exercise the CW20 lending protocol on Terra networks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(viper.GetViper()); err != nil {
			return err
		}

		logger.Initialize(logger.ParseLevel(configs.Values.Log.Level), configs.Values.Log.Format)
		slog.With("config_file", viper.ConfigFileUsed()).Debug("configuration loaded")

		return nil
	},
}

var persistentStringFlags = []cli.FlagDef[string]{
	{Name: "topology-dir", ViperKey: "topology.dir", Default: ".lendnet", Description: "Directory holding topology_<network>.yaml files"},
	{Name: "log-level", ViperKey: "log.level", Default: "info", Description: "Log level (debug, info, warn, error)"},
	{Name: "log-format", ViperKey: "log.format", Default: logger.FormatJSON, Description: "Log format (json or text)"},
	{Name: "metrics-textfile", ViperKey: "metrics.textfile", Default: "", Description: "Write run metrics to this file in Prometheus text format"},
}

// loadConfig layers the embedded defaults, an optional config.yaml and bound
// flags, then decodes the result into configs.Values.
func loadConfig(v *viper.Viper) error {
	if err := configs.LoadDefaults(v); err != nil {
		return err
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if execPath, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(execPath))
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// A missing config file is fine: defaults and flags cover every key.
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			const errMsg = "error reading config file"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}
	}

	if err := v.Unmarshal(&configs.Values); err != nil {
		const errMsg = "unable to decode application config"
		slog.With("err", err.Error()).Error(errMsg)
		return errors.Join(err, errors.New(errMsg))
	}

	return nil
}

func main() {
	cli.MustDeclareFlags(rootCmd.PersistentFlags(), viper.GetViper(), persistentStringFlags)

	rootCmd.AddCommand(deployment.CMD)
	rootCmd.AddCommand(interaction.CMD)
	rootCmd.AddCommand(topology.CMD)

	if err := rootCmd.Execute(); err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
