package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fbettag/llmdb/internal/config"
	"github.com/fbettag/llmdb/internal/logger"
	"github.com/fbettag/llmdb/internal/modelcatalog"
	"github.com/fbettag/llmdb/internal/query"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
	settings = config.Default()
)

// Execute boots the CLI.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "llmdb: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "llmdb",
		Short:         "llmdb is a layered catalog of LLM providers and models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to llmdb config file (defaults to ~/.llmdb/config.toml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	bindFlag(cmd, "log-level")
	bindFlag(cmd, "log-file")

	cmd.AddCommand(
		newBuildCommand(),
		newProvidersCommand(),
		newModelsCommand(),
		newResolveCommand(),
		newSelectCommand(),
		newPickCommand(),
		newSchemaCommand(),
		newHistoryCommand(),
		newConfigCommand(),
		newProviderCommand(),
	)
	return cmd
}

func bindFlag(cmd *cobra.Command, name string) {
	if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("binding %s flag: %v", name, err))
	}
}

// setup loads .env, the config file and the logger, in that order.
func setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	settings = cfg
	level := firstNonEmpty(viper.GetString("log-level"), cfg.Log.Level)
	file := firstNonEmpty(viper.GetString("log-file"), cfg.Log.File)
	return logger.Configure(level, file)
}

// loadCatalog builds the configured layers into snapshot.Default.
func loadCatalog(ctx context.Context) (*modelcatalog.Report, *query.Catalog, error) {
	opts, err := modelcatalog.OptionsFromConfig(settings)
	if err != nil {
		return nil, nil, err
	}
	report, err := modelcatalog.Build(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("building catalog: %w", err)
	}
	return report, query.New(opts.Store), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
