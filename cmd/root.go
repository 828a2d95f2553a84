// Package cmd contains the commands of the symad binary.
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/katalvlaran/symad/function"
)

// Configuration keys. Flags use dashes, keys and SYMAD_* variables
// underscores.
const (
	configFlag = "config"

	sortingFlag       = "sorting"
	sortingConf       = "sorting"
	maxDirectionsFlag = "max-directions"
	maxDirectionsConf = "max_directions"
	adWeightFlag      = "ad-weight"
	adWeightConf      = "ad_weight"
	liveVariablesFlag = "live-variables"
	liveVariablesConf = "live_variables"
	parallelFlag      = "parallel"
	parallelConf      = "parallel"
	logFormatFlag     = "log-format"
	logFormatConf     = "log.format"
	logLevelFlag      = "log-level"
	logLevelConf      = "log.level"
	pluginPathFlag    = "plugin-path"
	pluginPathConf    = "plugin_path"
)

// NewRootCommand returns the symad command. Every setting is read from CLI
// flags, environment variables prefixed with SYMAD, or the YAML config file
// (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SYMAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	for _, path := range []string{"$HOME/.symad", "."} {
		viper.AddConfigPath(path)
	}

	viper.SetDefault(sortingConf, function.DefaultSorting.String())
	viper.SetDefault(maxDirectionsConf, function.DefaultMaxDirections)
	viper.SetDefault(adWeightConf, function.DefaultADWeight)
	viper.SetDefault(liveVariablesConf, function.DefaultLiveVariables)
	viper.SetDefault(parallelConf, 0)
	viper.SetDefault(logFormatConf, "text")
	viper.SetDefault(logLevelConf, "none")
	viper.SetDefault(pluginPathConf, []string{})

	cmd := &cobra.Command{
		Use:   "symad",
		Short: "Evaluate and differentiate expression graphs",
		Long: `symad builds functions from expression models, evaluates them and computes
sparse Jacobians, gradients and Hessians by graph coloring.

A model is a YAML file declaring symbolic inputs, output expressions and
optional input values.`,
		SilenceUsage:      true,
		PersistentPreRunE: readConfig,
	}

	flags := cmd.PersistentFlags()
	flags.String(configFlag, "", "config file (default ./config.yaml or $HOME/.symad/config.yaml)")
	flags.String(sortingFlag, function.DefaultSorting.String(), "scheduling mode: depth-first, breadth-first or postponed")
	flags.Int(maxDirectionsFlag, function.DefaultMaxDirections, "directions per symbolic sweep")
	flags.Float64(adWeightFlag, function.DefaultADWeight, "forward/adjoint weight of the Jacobian seeding choice")
	flags.Bool(liveVariablesFlag, function.DefaultLiveVariables, "reuse work slots")
	flags.Int(parallelFlag, 0, "goroutines per schedule level (0 or 1: sequential)")
	flags.String(logFormatFlag, "text", "log format: text or json")
	flags.String(logLevelFlag, "none", "log level: none, debug, info, warn, error")
	flags.StringSlice(pluginPathFlag, nil, "directories searched for plugin libraries")

	cmd.AddCommand(NewEvalCommand(), NewJacobianCommand(), NewScheduleCommand(), NewPluginsCommand())
	return cmd
}

// readConfig binds the persistent flags and reads the config file.
func readConfig(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	MustBindPFlag(sortingConf, flags.Lookup(sortingFlag))
	MustBindPFlag(maxDirectionsConf, flags.Lookup(maxDirectionsFlag))
	MustBindPFlag(adWeightConf, flags.Lookup(adWeightFlag))
	MustBindPFlag(liveVariablesConf, flags.Lookup(liveVariablesFlag))
	MustBindPFlag(parallelConf, flags.Lookup(parallelFlag))
	MustBindPFlag(logFormatConf, flags.Lookup(logFormatFlag))
	MustBindPFlag(logLevelConf, flags.Lookup(logLevelFlag))
	MustBindPFlag(pluginPathConf, flags.Lookup(pluginPathFlag))

	if path, _ := flags.GetString(configFlag); path != "" {
		viper.SetConfigFile(path)
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}
