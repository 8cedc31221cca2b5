package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polarsignals/pqexplorer"
	"github.com/polarsignals/pqexplorer/normalize"
)

// Config holds the settings shared by all commands. Every field can be set
// with a flag, a PQEXPLORER_ prefixed environment variable or the config
// file.
type Config struct {
	TimestampFormat string `mapstructure:"timestamp-format"`
	DateFormat      string `mapstructure:"date-format"`
	Timezone        string `mapstructure:"timezone"`
	RowCap          int    `mapstructure:"row-cap"`
	MaxSize         string `mapstructure:"max-size"`
	LogLevel        string `mapstructure:"log-level"`
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cfg := &Config{}

	rootCmd := &cobra.Command{
		Use:           "parquet-tool",
		Short:         "Explore parquet files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("timestamp-format", normalize.DefaultTimestampFormat, "layout of timestamp cells")
	flags.String("date-format", normalize.DefaultDateFormat, "layout of date cells")
	flags.String("timezone", "UTC", "time zone temporal cells are shown in")
	flags.Int("row-cap", pqexplorer.DefaultRowCap, "maximum number of rows to materialize")
	flags.String("max-size", "1GiB", "refuse files larger than this")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newViewCmd(cfg),
		newSchemaCmd(cfg),
		newMetaCmd(cfg),
		newExportCmd(cfg),
	)
	return rootCmd
}

func loadConfig(v *viper.Viper, cmd *cobra.Command, cfg *Config) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("PQEXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "read config")
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}
	return nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *Config) logger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	var opt level.Option
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func (c *Config) maxSize() (int64, error) {
	if c.MaxSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid max size %q", c.MaxSize)
	}
	return int64(n), nil
}
